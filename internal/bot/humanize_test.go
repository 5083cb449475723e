package bot

import (
	"math/rand"
	"testing"
	"time"
)

func newTestHumanizer(config HumanizerConfig) *Humanizer {
	return NewHumanizer(config, rand.New(rand.NewSource(42)))
}

func TestJitterPositionStaysNearOriginal(t *testing.T) {
	h := newTestHumanizer(DefaultHumanizerConfig())
	p := NormalizedPoint{X: 0.5, Y: 0.5}

	for i := 0; i < 100; i++ {
		j := h.JitterPosition(p)
		if j.X < 0.48 || j.X > 0.52 || j.Y < 0.48 || j.Y > 0.52 {
			t.Fatalf("jitter %+v strayed more than the variance from %+v", j, p)
		}
	}
}

func TestJitterPositionClampsToSafeMargin(t *testing.T) {
	h := newTestHumanizer(HumanizerConfig{
		PositionVariance: 0.2,
		DragSpeedMin:     1,
		DragSpeedMax:     1,
	})

	for i := 0; i < 100; i++ {
		edge := h.JitterPosition(NormalizedPoint{X: 0.01, Y: 0.99})
		if edge.X < 0.05 || edge.X > 0.95 || edge.Y < 0.05 || edge.Y > 0.95 {
			t.Fatalf("jitter %+v escaped the [0.05,0.95] margin", edge)
		}
	}
}

func TestVaryDelayBounds(t *testing.T) {
	h := newTestHumanizer(DefaultHumanizerConfig())
	base := 3 * time.Second

	for i := 0; i < 100; i++ {
		d := h.VaryDelay(base)
		if d < 1500*time.Millisecond || d > 4500*time.Millisecond {
			t.Fatalf("delay %v outside ±50%% of %v", d, base)
		}
	}
}

func TestVaryDelayNeverCollapses(t *testing.T) {
	// variance of 200% would allow negative delays without the floor
	h := newTestHumanizer(HumanizerConfig{
		TimingVariance: 2.0,
		DragSpeedMin:   1,
		DragSpeedMax:   1,
	})
	base := time.Second

	for i := 0; i < 200; i++ {
		if d := h.VaryDelay(base); d < base/10 {
			t.Fatalf("delay %v fell below a tenth of the base", d)
		}
	}
}

func TestMaybePauseDisabled(t *testing.T) {
	h := newTestHumanizer(HumanizerConfig{
		ThinkChance:     0,
		LongPauseChance: 0,
	})

	for i := 0; i < 100; i++ {
		if p := h.MaybePause(); p != 0 {
			t.Fatalf("pause %v with both chances at zero, want 0", p)
		}
	}
}

func TestMaybePauseThinkRange(t *testing.T) {
	h := newTestHumanizer(HumanizerConfig{
		ThinkChance:   1,
		ThinkPauseMin: time.Second,
		ThinkPauseMax: 3 * time.Second,
	})

	for i := 0; i < 100; i++ {
		p := h.MaybePause()
		if p < time.Second || p > 3*time.Second {
			t.Fatalf("think pause %v outside [1s, 3s]", p)
		}
	}
}

func TestMaybePauseLongPauseWins(t *testing.T) {
	// a certain long pause outranks a certain think pause
	h := newTestHumanizer(HumanizerConfig{
		ThinkChance:     1,
		ThinkPauseMin:   time.Second,
		ThinkPauseMax:   time.Second,
		LongPauseChance: 1,
		LongPauseMin:    4 * time.Second,
		LongPauseMax:    8 * time.Second,
	})

	for i := 0; i < 100; i++ {
		p := h.MaybePause()
		if p < 4*time.Second || p > 8*time.Second {
			t.Fatalf("long pause %v outside [4s, 8s]", p)
		}
	}
}

func TestDragDurationRange(t *testing.T) {
	h := newTestHumanizer(DefaultHumanizerConfig())
	base := 300 * time.Millisecond

	for i := 0; i < 100; i++ {
		d := h.DragDuration(base)
		if d < 210*time.Millisecond || d > 450*time.Millisecond {
			t.Fatalf("drag duration %v outside [0.7x, 1.5x] of %v", d, base)
		}
	}
}
