package bot

import (
	"math/rand"
	"time"
)

// HumanizerConfig tunes how much randomness is layered onto gestures and
// timing. Humans don't hit the same pixel twice or wait exactly 3.0s.
type HumanizerConfig struct {
	// PositionVariance is the max random offset applied to a normalized
	// position (0.02 = 2% of the window in each axis)
	PositionVariance float64
	// TimingVariance scales delay jitter (0.5 = up to ±50% of the base delay)
	TimingVariance float64
	// DragSpeedMin/Max bound the multiplier applied to drag duration
	DragSpeedMin float64
	DragSpeedMax float64
	// ThinkChance is the probability of a short "thinking" pause between
	// deploys, lasting between ThinkPauseMin and ThinkPauseMax
	ThinkChance   float64
	ThinkPauseMin time.Duration
	ThinkPauseMax time.Duration
	// LongPauseChance is the probability of a longer distracted pause,
	// lasting between LongPauseMin and LongPauseMax
	LongPauseChance float64
	LongPauseMin    time.Duration
	LongPauseMax    time.Duration
}

// DefaultHumanizerConfig mirrors typical human imprecision
func DefaultHumanizerConfig() HumanizerConfig {
	return HumanizerConfig{
		PositionVariance: 0.02,
		TimingVariance:   0.5,
		DragSpeedMin:     0.7,
		DragSpeedMax:     1.5,
		ThinkChance:      0.1,
		ThinkPauseMin:    1 * time.Second,
		ThinkPauseMax:    3 * time.Second,
		LongPauseChance:  0.05,
		LongPauseMin:     4 * time.Second,
		LongPauseMax:     8 * time.Second,
	}
}

// Humanizer applies configured noise through an injectable random source so
// tests stay deterministic
type Humanizer struct {
	config HumanizerConfig
	rng    *rand.Rand
}

// NewHumanizer creates a humanizer; rng may be seeded for reproducibility
func NewHumanizer(config HumanizerConfig, rng *rand.Rand) *Humanizer {
	return &Humanizer{config: config, rng: rng}
}

// JitterPosition offsets a normalized position by up to PositionVariance in
// each axis, clamped to [0.05, 0.95] so the pointer stays well inside the
// window
func (h *Humanizer) JitterPosition(p NormalizedPoint) NormalizedPoint {
	v := h.config.PositionVariance
	jittered := NormalizedPoint{
		X: p.X + h.uniform(-v, v),
		Y: p.Y + h.uniform(-v, v),
	}

	jittered.X = clampFloat(jittered.X, 0.05, 0.95)
	jittered.Y = clampFloat(jittered.Y, 0.05, 0.95)
	return jittered
}

// VaryDelay jitters a delay by up to ±TimingVariance of its base value,
// never below a tenth of the base
func (h *Humanizer) VaryDelay(base time.Duration) time.Duration {
	variance := float64(base) * h.config.TimingVariance
	varied := float64(base) + h.uniform(-variance, variance)

	floor := float64(base) / 10
	if varied < floor {
		varied = floor
	}
	return time.Duration(varied)
}

// DragDuration scales the base drag time by a random speed multiplier -
// sometimes fast, sometimes slow
func (h *Humanizer) DragDuration(base time.Duration) time.Duration {
	mult := h.uniform(h.config.DragSpeedMin, h.config.DragSpeedMax)
	return time.Duration(float64(base) * mult)
}

// MaybePause rolls for an occasional extra pause between deploys. Humans
// sometimes stop to think, and sometimes get distracted for longer; a zero
// return means neither happened this time. Long pauses take precedence.
func (h *Humanizer) MaybePause() time.Duration {
	if h.rng.Float64() < h.config.LongPauseChance {
		return h.durationBetween(h.config.LongPauseMin, h.config.LongPauseMax)
	}
	if h.rng.Float64() < h.config.ThinkChance {
		return h.durationBetween(h.config.ThinkPauseMin, h.config.ThinkPauseMax)
	}
	return 0
}

func (h *Humanizer) durationBetween(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return time.Duration(h.uniform(float64(lo), float64(hi)))
}

func (h *Humanizer) uniform(lo, hi float64) float64 {
	return lo + h.rng.Float64()*(hi-lo)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
