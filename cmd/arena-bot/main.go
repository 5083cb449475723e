package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jordanella.com/clash-arena-go/internal/bot"
	"jordanella.com/clash-arena-go/internal/config"
	"jordanella.com/clash-arena-go/internal/cv"
	"jordanella.com/clash-arena-go/internal/database"
	"jordanella.com/clash-arena-go/internal/events"
	"jordanella.com/clash-arena-go/internal/input"
	"jordanella.com/clash-arena-go/internal/logging"
	"jordanella.com/clash-arena-go/internal/window"
	"jordanella.com/clash-arena-go/pkg/templates"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "Settings.ini", "Path to Settings.ini")
	initConfig := flag.Bool("init", false, "Write a default Settings.ini and exit")
	count := flag.Int("count", 0, "Number of deploys to perform (0 = until interrupted)")
	delay := flag.Float64("delay", 0, "Seconds between deploys (overrides config when > 0)")
	random := flag.Bool("random", false, "Randomize slots, targets and timing")
	strict := flag.Bool("strict", false, "Abort the run when a cycle fails")
	testMode := flag.Bool("test", false, "Dry run: locate, capture and detect but inject no input")
	calibrate := flag.Bool("calibrate", false, "Interactive calibration: sample pointer positions as window fractions")
	saveReference := flag.String("save-reference", "", "Capture one frame to the given PNG path and exit")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("arena-bot %s\n", version)
		return
	}

	if err := run(*configPath, *initConfig, *count, *delay, *random, *strict, *testMode, *calibrate, *saveReference); err != nil {
		fmt.Fprintf(os.Stderr, "arena-bot: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, initConfig bool, count int, delaySeconds float64, random, strict, testMode, calibrate bool, saveReference string) error {
	if initConfig {
		cfg := bot.DefaultConfig()
		if err := config.SaveToINI(cfg, configPath); err != nil {
			return err
		}
		fmt.Printf("Wrote default configuration to %s\n", configPath)
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := logging.NewLogger("Main").SetMinLevel(logging.ParseLevel(cfg.LogLevel))
	finder := window.NewLocator()

	if calibrate {
		calibrator := bot.NewCalibrator(finder, os.Stdin, os.Stdout)
		return calibrator.Run(cfg.WindowTitle)
	}

	if saveReference != "" {
		return captureReference(finder, cfg, saveReference)
	}

	runCfg := bot.DefaultRunConfig()
	runCfg.Count = count
	runCfg.Randomize = random
	runCfg.Strict = strict
	if delaySeconds > 0 {
		runCfg.Delay = time.Duration(delaySeconds * float64(time.Second))
	}
	// a bare -test means one dry cycle; -test -count N dry-runs N cycles
	if testMode && runCfg.Count == 0 {
		runCfg.Count = 1
	}

	// capturer bounds are re-targeted once the window is located
	capturer, err := cv.NewRegionCapture(window.Rect{Width: 1, Height: 1})
	if err != nil {
		return err
	}

	dragger := input.NewController(cfg.ActionPause)

	b := bot.New(cfg, runCfg, finder, capturer, dragger).
		WithTestMode(testMode)

	bus := events.NewEventBus(100)
	defer bus.Stop()
	b.WithEventBus(bus)

	if eventLogger, err := logging.NewEventLogger(bus, "logs"); err != nil {
		logger.Warn(fmt.Sprintf("Event log disabled: %v", err))
	} else {
		defer eventLogger.Close()
	}

	if detector := buildDetector(cfg, logger); detector != nil {
		b.WithDetector(detector)
	}

	if cfg.DatabasePath != "" {
		db, err := database.Open(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("failed to open deploy history database: %w", err)
		}
		defer db.Close()
		if err := db.RunMigrations(); err != nil {
			return fmt.Errorf("failed to migrate deploy history database: %w", err)
		}
		logger.Info(fmt.Sprintf("Recording deploy history to %s", db.Path()))
		b.WithRecorder(db)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := b.Run(ctx); err != nil {
		switch {
		case errors.Is(err, window.ErrWindowNotFound):
			return fmt.Errorf("%v\nIs the scrcpy mirror running with title %q? Start it with: scrcpy --window-title=%q", err, cfg.WindowTitle, cfg.WindowTitle)
		case errors.Is(err, window.ErrAmbiguousWindow):
			return fmt.Errorf("%v\nGive the mirror a unique title: scrcpy --window-title=%q", err, cfg.WindowTitle)
		case errors.Is(err, input.ErrInjectionFailed):
			return fmt.Errorf("%v\nCheck that the window is focused and input permissions are granted", err)
		default:
			return err
		}
	}

	stats := b.Stats()
	fmt.Printf("Done: %d deploys, %d failed cycles in %s\n",
		stats.Deploys, stats.FailedCycles, stats.Elapsed().Round(time.Millisecond))
	return nil
}

// loadConfig loads Settings.ini, falling back to defaults when the file does
// not exist yet
func loadConfig(path string) (*bot.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("No %s found, using defaults (run with -init to create one)\n", path)
		return bot.DefaultConfig(), nil
	}
	return config.LoadFromINI(path)
}

// buildDetector loads the template registry. A missing or empty templates
// directory just disables detection.
func buildDetector(cfg *bot.Config, logger *logging.Logger) *cv.Detector {
	registry := templates.NewRegistry(cfg.TemplatesDir)
	if err := registry.LoadFromDirectory(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn(fmt.Sprintf("Template loading failed, detection disabled: %v", err))
		}
		return nil
	}
	if registry.Count() == 0 {
		return nil
	}

	if err := registry.PreloadAll(); err != nil {
		logger.Warn(fmt.Sprintf("Template preload failed, detection disabled: %v", err))
		return nil
	}

	logger.Info(fmt.Sprintf("Loaded %d card templates from %s", registry.Count(), cfg.TemplatesDir))
	return cv.NewDetector(registry, cfg.MatchConfidence).WithGrayscale(cfg.GrayscaleMatch)
}

// captureReference locates the window and saves one frame for calibration
func captureReference(finder window.Finder, cfg *bot.Config, path string) error {
	win, err := finder.Find(cfg.WindowTitle)
	if err != nil {
		return fmt.Errorf("failed to locate window %q: %w", cfg.WindowTitle, err)
	}

	capturer, err := cv.NewRegionCapture(win.Bounds)
	if err != nil {
		return err
	}

	svc := cv.NewService(capturer)
	if err := svc.SaveReference(path); err != nil {
		return err
	}

	fmt.Printf("Saved reference frame of %q (%dx%d) to %s\n",
		win.Title, win.Bounds.Width, win.Bounds.Height, path)
	return nil
}
