// diagnose checks every precondition of a bot run and reports what it finds:
// is scrcpy running, does the mirror window resolve, can the screen be
// captured, are card templates present. Run it first when the bot misbehaves.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/shirou/gopsutil/v4/process"

	"jordanella.com/clash-arena-go/internal/bot"
	"jordanella.com/clash-arena-go/internal/config"
	"jordanella.com/clash-arena-go/internal/cv"
	"jordanella.com/clash-arena-go/internal/input"
	"jordanella.com/clash-arena-go/internal/window"
	"jordanella.com/clash-arena-go/pkg/templates"
)

func main() {
	configPath := flag.String("config", "Settings.ini", "Path to Settings.ini")
	flag.Parse()

	cfg := bot.DefaultConfig()
	if _, err := os.Stat(*configPath); err == nil {
		loaded, err := config.LoadFromINI(*configPath)
		if err != nil {
			fmt.Printf("[FAIL] config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
		fmt.Printf("[ ok ] config: loaded %s\n", *configPath)
	} else {
		fmt.Printf("[warn] config: no %s, using defaults\n", *configPath)
	}

	failed := 0
	if !checkScrcpy() {
		failed++
	}

	win := checkWindow(cfg)
	if win == nil {
		failed++
	} else {
		if !checkCapture(win) {
			failed++
		}
		reportPointer(win)
	}

	checkTemplates(cfg)

	if failed > 0 {
		fmt.Printf("\n%d check(s) failed\n", failed)
		os.Exit(1)
	}
	fmt.Println("\nAll checks passed")
}

// checkScrcpy looks for a running scrcpy process
func checkScrcpy() bool {
	procs, err := process.Processes()
	if err != nil {
		fmt.Printf("[warn] process list unavailable: %v\n", err)
		return true
	}

	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(name), "scrcpy") {
			fmt.Printf("[ ok ] scrcpy: running (pid %d)\n", p.Pid)
			return true
		}
	}

	fmt.Println("[FAIL] scrcpy: no scrcpy process found")
	fmt.Println("       start the mirror: scrcpy --window-title=ClashRoyale")
	return false
}

// checkWindow resolves the mirror window by title
func checkWindow(cfg *bot.Config) *window.Window {
	win, err := window.NewLocator().Find(cfg.WindowTitle)
	if err != nil {
		fmt.Printf("[FAIL] window: %v\n", err)
		return nil
	}

	fmt.Printf("[ ok ] window: %q %dx%d at (%d,%d)\n",
		win.Title, win.Bounds.Width, win.Bounds.Height, win.Bounds.X, win.Bounds.Y)
	return win
}

// checkCapture grabs one frame from the window region
func checkCapture(win *window.Window) bool {
	capturer, err := cv.NewRegionCapture(win.Bounds)
	if err != nil {
		fmt.Printf("[FAIL] capture: %v\n", err)
		return false
	}

	frame, err := capturer.CaptureFrame()
	if err != nil {
		fmt.Printf("[FAIL] capture: %v\n", err)
		return false
	}

	fmt.Printf("[ ok ] capture: %dx%d frame\n", frame.Bounds().Dx(), frame.Bounds().Dy())
	return true
}

// reportPointer echoes the current mouse position as window percentages, a
// quick sanity check for the coordinate mapping
func reportPointer(win *window.Window) {
	p := input.PointerLocation()
	norm, err := bot.NewMapper(win.Bounds).ToNormalized(p.X, p.Y)
	if err != nil {
		fmt.Printf("[info] pointer: (%d,%d), outside the window\n", p.X, p.Y)
		return
	}
	fmt.Printf("[info] pointer: (%d,%d) = (%.3f, %.3f) of the window\n", p.X, p.Y, norm.X, norm.Y)
}

// checkTemplates reports the state of the card template library. Missing
// templates are not a failure: the bot runs without detection.
func checkTemplates(cfg *bot.Config) {
	registry := templates.NewRegistry(cfg.TemplatesDir)
	if err := registry.LoadFromDirectory(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Printf("[warn] templates: %s does not exist, detection disabled\n", cfg.TemplatesDir)
		} else {
			fmt.Printf("[warn] templates: %v\n", err)
		}
		return
	}

	if registry.Count() == 0 {
		fmt.Printf("[warn] templates: no templates in %s, detection disabled\n", cfg.TemplatesDir)
		return
	}

	fmt.Printf("[ ok ] templates: %d cards (%s)\n",
		registry.Count(), strings.Join(registry.Identities(), ", "))
}
