package window

import "testing"

func TestRectContains(t *testing.T) {
	r := Rect{X: 100, Y: 50, Width: 800, Height: 600}

	tests := []struct {
		name string
		x, y int
		want bool
	}{
		{"inside", 400, 300, true},
		{"top-left corner", 100, 50, true},
		{"bottom-right corner", 900, 650, true},
		{"left of window", 99, 300, false},
		{"below window", 400, 651, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.x, tt.y); got != tt.want {
				t.Errorf("Contains(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestIsExcludedTitle(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{`command prompt - scrcpy --window-title=clashroyale`, true},
		{`c:\windows\system32\cmd.exe`, true},
		{`windows powershell`, true},
		{`terminal - scrcpy`, true},
		{`clashroyale`, false},
		{`scrcpy mirror`, false},
	}

	for _, tt := range tests {
		if got := isExcludedTitle(tt.title); got != tt.want {
			t.Errorf("isExcludedTitle(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}
