package bot

import (
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty window title", func(c *Config) { c.WindowTitle = "" }},
		{"no slots", func(c *Config) { c.SlotX = nil }},
		{"slot out of range", func(c *Config) { c.SlotX = []float64{0.3, 1.4} }},
		{"no drop targets", func(c *Config) { c.DropTargets = nil }},
		{"bad drop target", func(c *Config) { c.DropTargets = []NormalizedPoint{{X: -0.2, Y: 0.5}} }},
		{"drop target outside arena", func(c *Config) { c.DropTargets = []NormalizedPoint{{X: 0.5, Y: 0.95}} }},
		{"inverted arena", func(c *Config) { c.Arena.Top, c.Arena.Bottom = c.Arena.Bottom, c.Arena.Top }},
		{"zero deploy delay", func(c *Config) { c.DeployDelay = 0 }},
		{"negative drag duration", func(c *Config) { c.DragDuration = -time.Second }},
		{"confidence above one", func(c *Config) { c.MatchConfidence = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSlotPosition(t *testing.T) {
	cfg := DefaultConfig()

	p, err := cfg.SlotPosition(0)
	if err != nil {
		t.Fatalf("SlotPosition(0): %v", err)
	}
	if p.X != cfg.SlotX[0] || p.Y != cfg.SlotY {
		t.Errorf("SlotPosition(0) = %+v, want (%.3f, %.3f)", p, cfg.SlotX[0], cfg.SlotY)
	}

	if _, err := cfg.SlotPosition(cfg.SlotCount()); err == nil {
		t.Error("expected error for slot index past the end")
	}
	if _, err := cfg.SlotPosition(-1); err == nil {
		t.Error("expected error for negative slot index")
	}
}

func TestArenaBoundsContains(t *testing.T) {
	arena := DefaultConfig().Arena

	if !arena.Contains(NormalizedPoint{X: 0.5, Y: 0.5}) {
		t.Error("arena center reported outside")
	}
	if arena.Contains(NormalizedPoint{X: 0.5, Y: 0.95}) {
		t.Error("card row reported inside the arena")
	}
	if arena.Contains(NormalizedPoint{X: 0.02, Y: 0.5}) {
		t.Error("left margin reported inside the arena")
	}
}

func TestDefaultDropTargetsInsideArena(t *testing.T) {
	cfg := DefaultConfig()
	for i, target := range cfg.DropTargets {
		if !cfg.Arena.Contains(target) {
			t.Errorf("drop target %d (%+v) lies outside the arena", i, target)
		}
	}
}
