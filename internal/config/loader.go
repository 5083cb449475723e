package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"jordanella.com/clash-arena-go/internal/bot"
)

// LoadFromINI loads configuration from a Settings.ini file. Missing keys
// fall back to the calibrated defaults, so a partial file is fine.
func LoadFromINI(path string) (*bot.Config, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	config := bot.DefaultConfig()

	win := cfg.Section("Window")
	config.WindowTitle = win.Key("title").MustString(config.WindowTitle)

	slots := cfg.Section("Slots")
	if raw := slots.Key("slotX").String(); raw != "" {
		xs, err := parseFloatList(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid slotX: %w", err)
		}
		config.SlotX = xs
	}
	config.SlotY = slots.Key("slotY").MustFloat64(config.SlotY)
	config.SlotWidth = slots.Key("slotWidth").MustFloat64(config.SlotWidth)
	config.SlotHeight = slots.Key("slotHeight").MustFloat64(config.SlotHeight)
	if raw := slots.Key("nextCard").String(); raw != "" {
		p, err := parsePoint(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid nextCard: %w", err)
		}
		config.NextCard = p
	}

	arena := cfg.Section("Arena")
	config.Arena.Top = arena.Key("top").MustFloat64(config.Arena.Top)
	config.Arena.Bottom = arena.Key("bottom").MustFloat64(config.Arena.Bottom)
	config.Arena.Left = arena.Key("left").MustFloat64(config.Arena.Left)
	config.Arena.Right = arena.Key("right").MustFloat64(config.Arena.Right)
	if raw := arena.Key("dropTargets").String(); raw != "" {
		targets, err := parsePointList(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid dropTargets: %w", err)
		}
		config.DropTargets = targets
	}

	timing := cfg.Section("Timing")
	config.DeployDelay = secondsKey(timing, "deployDelaySeconds", config.DeployDelay)
	config.DragDuration = secondsKey(timing, "dragDurationSeconds", config.DragDuration)
	config.ActionPause = secondsKey(timing, "actionPauseSeconds", config.ActionPause)

	detection := cfg.Section("Detection")
	config.MatchConfidence = detection.Key("confidence").MustFloat64(config.MatchConfidence)
	config.GrayscaleMatch = detection.Key("grayscale").MustBool(config.GrayscaleMatch)
	config.TemplatesDir = detection.Key("templatesDir").MustString(config.TemplatesDir)

	behavior := cfg.Section("Behavior")
	config.Humanizer.PositionVariance = behavior.Key("positionVariance").MustFloat64(config.Humanizer.PositionVariance)
	config.Humanizer.TimingVariance = behavior.Key("timingVariance").MustFloat64(config.Humanizer.TimingVariance)
	config.Humanizer.DragSpeedMin = behavior.Key("dragSpeedMin").MustFloat64(config.Humanizer.DragSpeedMin)
	config.Humanizer.DragSpeedMax = behavior.Key("dragSpeedMax").MustFloat64(config.Humanizer.DragSpeedMax)
	config.Humanizer.ThinkChance = behavior.Key("thinkChance").MustFloat64(config.Humanizer.ThinkChance)
	config.Humanizer.ThinkPauseMin = secondsKey(behavior, "thinkPauseMinSeconds", config.Humanizer.ThinkPauseMin)
	config.Humanizer.ThinkPauseMax = secondsKey(behavior, "thinkPauseMaxSeconds", config.Humanizer.ThinkPauseMax)
	config.Humanizer.LongPauseChance = behavior.Key("longPauseChance").MustFloat64(config.Humanizer.LongPauseChance)
	config.Humanizer.LongPauseMin = secondsKey(behavior, "longPauseMinSeconds", config.Humanizer.LongPauseMin)
	config.Humanizer.LongPauseMax = secondsKey(behavior, "longPauseMaxSeconds", config.Humanizer.LongPauseMax)

	debug := cfg.Section("Debug")
	config.ScreenshotDir = debug.Key("screenshotDir").MustString(config.ScreenshotDir)
	config.DatabasePath = debug.Key("databasePath").MustString(config.DatabasePath)
	config.LogLevel = debug.Key("logLevel").MustString(config.LogLevel)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	return config, nil
}

// SaveToINI writes a configuration out as a Settings.ini file. Used by
// --init to give the user a complete file to edit.
func SaveToINI(config *bot.Config, path string) error {
	cfg := ini.Empty()

	win := cfg.Section("Window")
	win.Key("title").SetValue(config.WindowTitle)

	slots := cfg.Section("Slots")
	slots.Key("slotX").SetValue(formatFloatList(config.SlotX))
	slots.Key("slotY").SetValue(formatFloat(config.SlotY))
	slots.Key("slotWidth").SetValue(formatFloat(config.SlotWidth))
	slots.Key("slotHeight").SetValue(formatFloat(config.SlotHeight))
	slots.Key("nextCard").SetValue(formatPoint(config.NextCard))

	arena := cfg.Section("Arena")
	arena.Key("top").SetValue(formatFloat(config.Arena.Top))
	arena.Key("bottom").SetValue(formatFloat(config.Arena.Bottom))
	arena.Key("left").SetValue(formatFloat(config.Arena.Left))
	arena.Key("right").SetValue(formatFloat(config.Arena.Right))
	arena.Key("dropTargets").SetValue(formatPointList(config.DropTargets))

	timing := cfg.Section("Timing")
	timing.Key("deployDelaySeconds").SetValue(formatFloat(config.DeployDelay.Seconds()))
	timing.Key("dragDurationSeconds").SetValue(formatFloat(config.DragDuration.Seconds()))
	timing.Key("actionPauseSeconds").SetValue(formatFloat(config.ActionPause.Seconds()))

	detection := cfg.Section("Detection")
	detection.Key("confidence").SetValue(formatFloat(config.MatchConfidence))
	detection.Key("grayscale").SetValue(strconv.FormatBool(config.GrayscaleMatch))
	detection.Key("templatesDir").SetValue(config.TemplatesDir)

	behavior := cfg.Section("Behavior")
	behavior.Key("positionVariance").SetValue(formatFloat(config.Humanizer.PositionVariance))
	behavior.Key("timingVariance").SetValue(formatFloat(config.Humanizer.TimingVariance))
	behavior.Key("dragSpeedMin").SetValue(formatFloat(config.Humanizer.DragSpeedMin))
	behavior.Key("dragSpeedMax").SetValue(formatFloat(config.Humanizer.DragSpeedMax))
	behavior.Key("thinkChance").SetValue(formatFloat(config.Humanizer.ThinkChance))
	behavior.Key("thinkPauseMinSeconds").SetValue(formatFloat(config.Humanizer.ThinkPauseMin.Seconds()))
	behavior.Key("thinkPauseMaxSeconds").SetValue(formatFloat(config.Humanizer.ThinkPauseMax.Seconds()))
	behavior.Key("longPauseChance").SetValue(formatFloat(config.Humanizer.LongPauseChance))
	behavior.Key("longPauseMinSeconds").SetValue(formatFloat(config.Humanizer.LongPauseMin.Seconds()))
	behavior.Key("longPauseMaxSeconds").SetValue(formatFloat(config.Humanizer.LongPauseMax.Seconds()))

	debug := cfg.Section("Debug")
	debug.Key("screenshotDir").SetValue(config.ScreenshotDir)
	debug.Key("databasePath").SetValue(config.DatabasePath)
	debug.Key("logLevel").SetValue(config.LogLevel)

	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

// secondsKey reads a float seconds key into a duration
func secondsKey(section *ini.Section, name string, fallback time.Duration) time.Duration {
	seconds := section.Key(name).MustFloat64(fallback.Seconds())
	return time.Duration(seconds * float64(time.Second))
}

// parseFloatList parses "0.331, 0.504, 0.665, 0.824"
func parseFloatList(raw string) ([]float64, error) {
	parts := strings.Split(raw, ",")
	values := make([]float64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("bad value %q", part)
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	return values, nil
}

// parsePoint parses "0.22:0.92"
func parsePoint(raw string) (bot.NormalizedPoint, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return bot.NormalizedPoint{}, fmt.Errorf("bad point %q, want x:y", raw)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return bot.NormalizedPoint{}, fmt.Errorf("bad point %q: %v", raw, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return bot.NormalizedPoint{}, fmt.Errorf("bad point %q: %v", raw, err)
	}
	return bot.NormalizedPoint{X: x, Y: y}, nil
}

// parsePointList parses "0.589:0.532, 0.25:0.50, 0.75:0.50"
func parsePointList(raw string) ([]bot.NormalizedPoint, error) {
	parts := strings.Split(raw, ",")
	points := make([]bot.NormalizedPoint, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p, err := parsePoint(part)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	return points, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatList(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, ", ")
}

func formatPoint(p bot.NormalizedPoint) string {
	return formatFloat(p.X) + ":" + formatFloat(p.Y)
}

func formatPointList(points []bot.NormalizedPoint) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = formatPoint(p)
	}
	return strings.Join(parts, ", ")
}
