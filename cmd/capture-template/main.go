// capture-template grabs a crop from the live mirror window and saves it as
// a card template PNG. Three modes: -slot crops a configured card slot,
// -full saves the whole window, and the default walks you through marking
// two corners with the mouse. Point the bot at the resulting directory.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"jordanella.com/clash-arena-go/internal/bot"
	"jordanella.com/clash-arena-go/internal/config"
	"jordanella.com/clash-arena-go/internal/cv"
	"jordanella.com/clash-arena-go/internal/input"
	"jordanella.com/clash-arena-go/internal/window"
)

func main() {
	configPath := flag.String("config", "Settings.ini", "Path to Settings.ini")
	card := flag.String("card", "", "Card name to save the template as (required)")
	slot := flag.Int("slot", -1, "Card slot to crop (0-based); -1 for interactive corner marking")
	full := flag.Bool("full", false, "Capture the whole window instead of a crop")
	outDir := flag.String("out", "", "Output directory (default: templatesDir from config)")
	flag.Parse()

	if *card == "" {
		fmt.Fprintln(os.Stderr, "capture-template: -card is required")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(*configPath, *card, *slot, *full, *outDir); err != nil {
		fmt.Fprintf(os.Stderr, "capture-template: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, card string, slot int, full bool, outDir string) error {
	cfg := bot.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := config.LoadFromINI(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if outDir == "" {
		outDir = cfg.TemplatesDir
	}

	win, err := window.NewLocator().Find(cfg.WindowTitle)
	if err != nil {
		return fmt.Errorf("failed to locate window %q: %w", cfg.WindowTitle, err)
	}

	capturer, err := cv.NewRegionCapture(win.Bounds)
	if err != nil {
		return err
	}
	svc := cv.NewService(capturer)
	mapper := bot.NewMapper(win.Bounds)

	var region cv.Region
	switch {
	case full:
		region = cv.NewRegion(0, 0, win.Bounds.Width, win.Bounds.Height)
	case slot >= 0:
		region, err = slotRegion(cfg, mapper, win, slot)
		if err != nil {
			return err
		}
	default:
		region, err = markCorners(mapper)
		if err != nil {
			return err
		}
	}

	frame, err := svc.CaptureFrame(false)
	if err != nil {
		return err
	}

	crop, err := svc.CropSlot(frame, region)
	if err != nil {
		return fmt.Errorf("failed to crop region: %w", err)
	}

	outPath := filepath.Join(outDir, card+".png")
	if err := cv.SaveImage(crop, outPath); err != nil {
		return err
	}

	fmt.Printf("Saved %dx%d template for %q to %s\n",
		crop.Bounds().Dx(), crop.Bounds().Dy(), card, outPath)
	return nil
}

// slotRegion computes the frame-space crop box of a configured card slot
func slotRegion(cfg *bot.Config, mapper bot.Mapper, win *window.Window, slot int) (cv.Region, error) {
	pos, err := cfg.SlotPosition(slot)
	if err != nil {
		return cv.Region{}, err
	}

	center := mapper.ToFrame(pos)
	halfW := int(cfg.SlotWidth * float64(win.Bounds.Width) / 2)
	halfH := int(cfg.SlotHeight * float64(win.Bounds.Height) / 2)

	return cv.NewRegion(
		center.X-halfW, center.Y-halfH,
		center.X+halfW, center.Y+halfH,
	), nil
}

// markCorners samples the pointer twice to define a crop box
func markCorners(mapper bot.Mapper) (cv.Region, error) {
	scanner := bufio.NewScanner(os.Stdin)

	corners := make([]image.Point, 0, 2)
	prompts := []string{
		"Hover the mouse over the TOP-LEFT corner of the card and press Enter...",
		"Hover the mouse over the BOTTOM-RIGHT corner and press Enter...",
	}

	for _, prompt := range prompts {
		fmt.Println(prompt)
		if !scanner.Scan() {
			return cv.Region{}, fmt.Errorf("input closed before both corners were marked")
		}

		p := input.PointerLocation()
		norm, err := mapper.ToNormalized(p.X, p.Y)
		if err != nil {
			return cv.Region{}, fmt.Errorf("pointer is outside the window: %w", err)
		}

		frame := mapper.ToFrame(norm)
		fmt.Printf("  corner at (%d,%d) in frame, (%.3f, %.3f) normalized\n",
			frame.X, frame.Y, norm.X, norm.Y)
		corners = append(corners, frame)
	}

	region := cv.NewRegion(corners[0].X, corners[0].Y, corners[1].X, corners[1].Y)
	if region.Empty() {
		return cv.Region{}, fmt.Errorf("corners (%d,%d) and (%d,%d) do not form a box, mark top-left first",
			corners[0].X, corners[0].Y, corners[1].X, corners[1].Y)
	}
	return region, nil
}
