package bot

import (
	"image"
	"math"
	"testing"

	"jordanella.com/clash-arena-go/internal/window"
)

func TestToAbsolute(t *testing.T) {
	mapper := NewMapper(window.Rect{X: 100, Y: 50, Width: 800, Height: 600})

	tests := []struct {
		name string
		in   NormalizedPoint
		want image.Point
	}{
		{"origin", NormalizedPoint{X: 0, Y: 0}, image.Point{X: 100, Y: 50}},
		{"center", NormalizedPoint{X: 0.5, Y: 0.5}, image.Point{X: 500, Y: 350}},
		{"far corner", NormalizedPoint{X: 1, Y: 1}, image.Point{X: 900, Y: 650}},
		{"slot row", NormalizedPoint{X: 0.331, Y: 0.88}, image.Point{X: 365, Y: 578}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapper.ToAbsolute(tt.in); got != tt.want {
				t.Errorf("ToAbsolute(%+v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestToAbsoluteStaysInsideWindow(t *testing.T) {
	bounds := window.Rect{X: -200, Y: 30, Width: 457, Height: 311}
	mapper := NewMapper(bounds)

	for x := 0.0; x <= 1.0; x += 0.05 {
		for y := 0.0; y <= 1.0; y += 0.05 {
			p := mapper.ToAbsolute(NormalizedPoint{X: x, Y: y})
			if !bounds.Contains(p.X, p.Y) {
				t.Fatalf("ToAbsolute(%.2f,%.2f) = %v lies outside %+v", x, y, p, bounds)
			}
		}
	}
}

func TestToFrame(t *testing.T) {
	mapper := NewMapper(window.Rect{X: 100, Y: 50, Width: 800, Height: 600})

	got := mapper.ToFrame(NormalizedPoint{X: 0.5, Y: 0.5})
	want := image.Point{X: 400, Y: 300}
	if got != want {
		t.Errorf("ToFrame(center) = %v, want %v", got, want)
	}
}

func TestNormalizedRoundTrip(t *testing.T) {
	bounds := window.Rect{X: 37, Y: 112, Width: 963, Height: 541}
	mapper := NewMapper(bounds)

	for _, p := range []NormalizedPoint{
		{X: 0.1, Y: 0.1},
		{X: 0.331, Y: 0.88},
		{X: 0.589, Y: 0.532},
		{X: 0.9, Y: 0.9},
	} {
		abs := mapper.ToAbsolute(p)
		back, err := mapper.ToNormalized(abs.X, abs.Y)
		if err != nil {
			t.Fatalf("ToNormalized(%v): %v", abs, err)
		}

		// one pixel of rounding tolerance in each axis
		tolX := 1.0 / float64(bounds.Width)
		tolY := 1.0 / float64(bounds.Height)
		if math.Abs(back.X-p.X) > tolX || math.Abs(back.Y-p.Y) > tolY {
			t.Errorf("round trip of %+v gave %+v", p, back)
		}
	}
}

func TestToNormalizedOutsideWindow(t *testing.T) {
	mapper := NewMapper(window.Rect{X: 0, Y: 0, Width: 100, Height: 100})

	if _, err := mapper.ToNormalized(500, 500); err == nil {
		t.Error("expected error for pixel outside the window")
	}
	if _, err := mapper.ToNormalized(-1, 50); err == nil {
		t.Error("expected error for pixel left of the window")
	}
}

func TestNormalizedPointValidate(t *testing.T) {
	if err := (NormalizedPoint{X: 0.5, Y: 0.5}).Validate(); err != nil {
		t.Errorf("valid point rejected: %v", err)
	}
	if err := (NormalizedPoint{X: 1.2, Y: 0.5}).Validate(); err == nil {
		t.Error("X > 1 accepted")
	}
	if err := (NormalizedPoint{X: 0.5, Y: -0.1}).Validate(); err == nil {
		t.Error("negative Y accepted")
	}
}
