package bot

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"jordanella.com/clash-arena-go/internal/input"
	"jordanella.com/clash-arena-go/internal/window"
)

// Calibrator samples mouse positions over the mirror window and prints them
// as normalized fractions ready to paste into Settings.ini. Read-out only:
// it never writes configuration itself.
type Calibrator struct {
	finder window.Finder
	locate func() (int, int)
	in     io.Reader
	out    io.Writer
}

// NewCalibrator creates a calibrator reading commands from in and printing
// samples to out
func NewCalibrator(finder window.Finder, in io.Reader, out io.Writer) *Calibrator {
	return &Calibrator{
		finder: finder,
		locate: func() (int, int) {
			p := input.PointerLocation()
			return p.X, p.Y
		},
		in:  in,
		out: out,
	}
}

// Run locates the window, then samples the pointer each time the user
// presses Enter until they type q. Bounds are re-read before every sample so
// a window moved mid-session still normalizes correctly.
func (c *Calibrator) Run(windowTitle string) error {
	win, err := c.finder.Find(windowTitle)
	if err != nil {
		return fmt.Errorf("failed to locate window %q: %w", windowTitle, err)
	}

	fmt.Fprintf(c.out, "Calibrating against %q (%dx%d at %d,%d)\n",
		win.Title, win.Bounds.Width, win.Bounds.Height, win.Bounds.X, win.Bounds.Y)
	fmt.Fprintln(c.out, "Hover the mouse over a point of interest and press Enter to sample it.")
	fmt.Fprintln(c.out, "Type q to quit.")

	scanner := bufio.NewScanner(c.in)
	sample := 0
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "q" || line == "quit" {
			break
		}

		if err := c.finder.Refresh(win); err != nil {
			return fmt.Errorf("window %q disappeared: %w", windowTitle, window.ErrWindowNotFound)
		}
		mapper := NewMapper(win.Bounds)

		x, y := c.locate()
		p, err := mapper.ToNormalized(x, y)
		if err != nil {
			fmt.Fprintf(c.out, "pointer (%d,%d) is outside the window, try again\n", x, y)
			continue
		}

		sample++
		fmt.Fprintf(c.out, "sample %d: screen (%d,%d)  normalized (%.3f, %.3f)\n",
			sample, x, y, p.X, p.Y)
	}

	if sample > 0 {
		fmt.Fprintf(c.out, "%d samples taken. Copy the normalized values into Settings.ini.\n", sample)
	}
	return scanner.Err()
}
