package bot

import (
	"fmt"
	"time"
)

// Config is the immutable process configuration, built once at startup from
// Settings.ini and passed into each component. Nothing mutates it after load;
// calibration prints values for the user to copy in by hand.
type Config struct {
	// Window
	WindowTitle string

	// Card slots: X positions of each slot plus the shared Y row, and the
	// small next-card preview position
	SlotX    []float64
	SlotY    float64
	NextCard NormalizedPoint

	// Slot crop extents for detection, as fractions of window size
	SlotWidth  float64
	SlotHeight float64

	// Arena drop area and the ordered drop-target list
	Arena       ArenaBounds
	DropTargets []NormalizedPoint

	// Timing
	DeployDelay  time.Duration
	DragDuration time.Duration
	ActionPause  time.Duration

	// Detection
	MatchConfidence float64
	GrayscaleMatch  bool
	TemplatesDir    string

	// Humanized behavior (only applied when randomization is on)
	Humanizer HumanizerConfig

	// Debug / bookkeeping
	ScreenshotDir string
	DatabasePath  string
	LogLevel      string
}

// ArenaBounds delimits the deployable area as fractions of the window
type ArenaBounds struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// Contains reports whether a normalized point lies inside the arena
func (a ArenaBounds) Contains(p NormalizedPoint) bool {
	return p.X >= a.Left && p.X <= a.Right && p.Y >= a.Top && p.Y <= a.Bottom
}

// DefaultConfig returns the calibrated defaults for a 16:10 scrcpy window
func DefaultConfig() *Config {
	return &Config{
		WindowTitle: "ClashRoyale",
		SlotX:       []float64{0.331, 0.504, 0.665, 0.824},
		SlotY:       0.88,
		NextCard:    NormalizedPoint{X: 0.22, Y: 0.92},
		SlotWidth:   0.12,
		SlotHeight:  0.10,
		Arena: ArenaBounds{
			Top:    0.15,
			Bottom: 0.75,
			Left:   0.10,
			Right:  0.90,
		},
		DropTargets: []NormalizedPoint{
			{X: 0.589, Y: 0.532},
			{X: 0.25, Y: 0.50}, // left bridge
			{X: 0.75, Y: 0.50}, // right bridge
			{X: 0.50, Y: 0.45},
			{X: 0.30, Y: 0.55},
			{X: 0.70, Y: 0.55},
		},
		DeployDelay:     3 * time.Second,
		DragDuration:    300 * time.Millisecond,
		ActionPause:     500 * time.Millisecond,
		MatchConfidence: 0.8,
		GrayscaleMatch:  false,
		TemplatesDir:    "assets/templates",
		Humanizer:       DefaultHumanizerConfig(),
		ScreenshotDir:   "debug_screenshots",
		DatabasePath:    "",
		LogLevel:        "INFO",
	}
}

// Validate checks the configuration invariants before a run starts
func (c *Config) Validate() error {
	if c.WindowTitle == "" {
		return fmt.Errorf("window title must not be empty")
	}
	if len(c.SlotX) == 0 {
		return fmt.Errorf("at least one card slot is required")
	}
	for i, x := range c.SlotX {
		if err := (NormalizedPoint{X: x, Y: c.SlotY}).Validate(); err != nil {
			return fmt.Errorf("card slot %d: %w", i, err)
		}
	}
	if c.Arena.Left >= c.Arena.Right || c.Arena.Top >= c.Arena.Bottom {
		return fmt.Errorf("arena bounds %+v are inverted or empty", c.Arena)
	}
	if len(c.DropTargets) == 0 {
		return fmt.Errorf("at least one drop target is required")
	}
	for i, t := range c.DropTargets {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("drop target %d: %w", i, err)
		}
		if !c.Arena.Contains(t) {
			return fmt.Errorf("drop target %d (%.3f,%.3f) lies outside the arena", i, t.X, t.Y)
		}
	}
	if c.DeployDelay <= 0 {
		return fmt.Errorf("deploy delay must be positive, got %v", c.DeployDelay)
	}
	if c.DragDuration <= 0 {
		return fmt.Errorf("drag duration must be positive, got %v", c.DragDuration)
	}
	if c.MatchConfidence < 0 || c.MatchConfidence > 1 {
		return fmt.Errorf("match confidence %.3f out of range [0,1]", c.MatchConfidence)
	}
	return nil
}

// SlotCount returns the number of configured card slots
func (c *Config) SlotCount() int {
	return len(c.SlotX)
}

// SlotPosition returns the normalized center of a card slot
func (c *Config) SlotPosition(slot int) (NormalizedPoint, error) {
	if slot < 0 || slot >= len(c.SlotX) {
		return NormalizedPoint{}, fmt.Errorf("card slot %d out of range 0-%d", slot, len(c.SlotX)-1)
	}
	return NormalizedPoint{X: c.SlotX[slot], Y: c.SlotY}, nil
}

// RunConfig holds the per-run options from the command line. Separate from
// Config so a run can be re-parameterized without reloading Settings.ini.
type RunConfig struct {
	// Count limits the run to N deploys; 0 means run until cancelled
	Count int
	// Delay overrides Config.DeployDelay when positive
	Delay time.Duration
	// Randomize picks random slots/targets and applies humanized noise
	Randomize bool
	// Strict aborts the run on a failed cycle instead of continuing
	Strict bool
	// CaptureRetries is how many extra capture attempts a cycle gets
	CaptureRetries int
}

// DefaultRunConfig returns run defaults matching the CLI defaults
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Count:          0,
		Delay:          0,
		Randomize:      false,
		Strict:         false,
		CaptureRetries: 2,
	}
}
