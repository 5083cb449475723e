package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jordanella.com/clash-arena-go/internal/bot"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Settings.ini")

	original := bot.DefaultConfig()
	original.WindowTitle = "MyMirror"
	original.SlotX = []float64{0.3, 0.5, 0.7}
	original.DeployDelay = 4500 * time.Millisecond
	original.MatchConfidence = 0.85
	original.GrayscaleMatch = true
	original.DatabasePath = "history.db"
	original.Humanizer.ThinkChance = 0.2
	original.Humanizer.LongPauseMax = 10 * time.Second

	if err := SaveToINI(original, path); err != nil {
		t.Fatalf("SaveToINI: %v", err)
	}

	loaded, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("LoadFromINI: %v", err)
	}

	if loaded.WindowTitle != "MyMirror" {
		t.Errorf("window title = %q, want MyMirror", loaded.WindowTitle)
	}
	if len(loaded.SlotX) != 3 || loaded.SlotX[1] != 0.5 {
		t.Errorf("slotX = %v, want [0.3 0.5 0.7]", loaded.SlotX)
	}
	if loaded.DeployDelay != 4500*time.Millisecond {
		t.Errorf("deploy delay = %v, want 4.5s", loaded.DeployDelay)
	}
	if math.Abs(loaded.MatchConfidence-0.85) > 1e-9 {
		t.Errorf("confidence = %v, want 0.85", loaded.MatchConfidence)
	}
	if loaded.DatabasePath != "history.db" {
		t.Errorf("database path = %q, want history.db", loaded.DatabasePath)
	}
	if len(loaded.DropTargets) != len(original.DropTargets) {
		t.Errorf("%d drop targets, want %d", len(loaded.DropTargets), len(original.DropTargets))
	}
	if !loaded.GrayscaleMatch {
		t.Error("grayscale matching flag lost in the round trip")
	}
	if math.Abs(loaded.Humanizer.ThinkChance-0.2) > 1e-9 {
		t.Errorf("think chance = %v, want 0.2", loaded.Humanizer.ThinkChance)
	}
	if loaded.Humanizer.LongPauseMax != 10*time.Second {
		t.Errorf("long pause max = %v, want 10s", loaded.Humanizer.LongPauseMax)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Settings.ini")
	content := "[Window]\ntitle = ScrcpyMirror\n\n[Timing]\ndeployDelaySeconds = 1.5\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFromINI(path)
	if err != nil {
		t.Fatalf("LoadFromINI: %v", err)
	}

	defaults := bot.DefaultConfig()
	if loaded.WindowTitle != "ScrcpyMirror" {
		t.Errorf("window title = %q, want ScrcpyMirror", loaded.WindowTitle)
	}
	if loaded.DeployDelay != 1500*time.Millisecond {
		t.Errorf("deploy delay = %v, want 1.5s", loaded.DeployDelay)
	}
	if len(loaded.SlotX) != len(defaults.SlotX) {
		t.Errorf("slotX = %v, want the defaults", loaded.SlotX)
	}
	if loaded.MatchConfidence != defaults.MatchConfidence {
		t.Errorf("confidence = %v, want default %v", loaded.MatchConfidence, defaults.MatchConfidence)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad slot list", "[Slots]\nslotX = 0.3, oops, 0.7\n"},
		{"slot out of range", "[Slots]\nslotX = 0.3, 1.5\n"},
		{"bad drop target", "[Arena]\ndropTargets = 0.5;0.5\n"},
		{"zero delay", "[Timing]\ndeployDelaySeconds = 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "Settings.ini")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFromINI(path); err == nil {
				t.Error("expected load error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := LoadFromINI(filepath.Join(t.TempDir(), "absent.ini")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestParsePointList(t *testing.T) {
	points, err := parsePointList("0.589:0.532, 0.25:0.50,0.75:0.50")
	if err != nil {
		t.Fatalf("parsePointList: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
	if points[0].X != 0.589 || points[0].Y != 0.532 {
		t.Errorf("first point = %+v, want (0.589, 0.532)", points[0])
	}
}
