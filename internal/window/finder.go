package window

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-vgo/robotgo"
)

// Sentinel errors for window resolution failures. Both are fatal to a run:
// the bot cannot act on a window it cannot unambiguously identify.
var (
	ErrWindowNotFound  = errors.New("window not found")
	ErrAmbiguousWindow = errors.New("multiple windows match title")
)

// Rect is a window bounding rectangle in screen pixels
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Contains checks whether a screen pixel lies within the rectangle,
// inclusive of all edges
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// Window is a located top-level window. It is resolved fresh each time it is
// needed - windows move and resize between cycles, so a Window is never
// persisted across cycles without a Refresh.
type Window struct {
	PID    int32
	Title  string
	Bounds Rect
}

// Finder resolves windows by title and tracks them afterwards. The bot
// depends on this interface so tests can substitute a fake; Locator is the
// production implementation.
type Finder interface {
	Find(titleSubstring string) (*Window, error)
	// Refresh re-reads the window bounds from the OS
	Refresh(w *Window) error
	// Activate brings the window to the foreground
	Activate(w *Window) error
}

// Locator finds windows through the OS window list via robotgo
type Locator struct{}

// NewLocator creates a window locator
func NewLocator() *Locator {
	return &Locator{}
}

// shell hosts whose titles echo whatever command launched them; a terminal
// running "scrcpy --window-title=ClashRoyale" must not match
var excludedTitleFragments = []string{
	"command prompt",
	"cmd.exe",
	"powershell",
	"terminal",
}

// Find returns the unique visible window whose title contains titleSubstring
// (case-insensitive). Zero matches yields ErrWindowNotFound; more than one
// match yields ErrAmbiguousWindow, since acting on the wrong window would
// inject input into an arbitrary application.
func (l *Locator) Find(titleSubstring string) (*Window, error) {
	pids, err := robotgo.Pids()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	search := strings.ToLower(titleSubstring)

	var matches []*Window
	for _, pid := range pids {
		title := robotgo.GetTitle(pid)
		if title == "" {
			continue
		}

		lower := strings.ToLower(title)
		if !strings.Contains(lower, search) {
			continue
		}
		if isExcludedTitle(lower) {
			continue
		}

		x, y, w, h := robotgo.GetBounds(pid)
		if w <= 0 || h <= 0 {
			continue
		}

		matches = append(matches, &Window{
			PID:    int32(pid),
			Title:  title,
			Bounds: Rect{X: x, Y: y, Width: w, Height: h},
		})
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: no visible window title contains %q", ErrWindowNotFound, titleSubstring)
	case 1:
		return matches[0], nil
	default:
		titles := make([]string, len(matches))
		for i, m := range matches {
			titles[i] = fmt.Sprintf("%q", m.Title)
		}
		return nil, fmt.Errorf("%w: %q matches %s", ErrAmbiguousWindow, titleSubstring, strings.Join(titles, ", "))
	}
}

func isExcludedTitle(lowerTitle string) bool {
	for _, fragment := range excludedTitleFragments {
		if strings.Contains(lowerTitle, fragment) {
			return true
		}
	}
	return false
}

// Refresh re-reads the window bounds from the OS. The window may have moved
// or resized since it was located; bounds staleness is tolerated for at most
// one cycle.
func (l *Locator) Refresh(w *Window) error {
	x, y, width, height := robotgo.GetBounds(int(w.PID))
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: window for PID %d is gone", ErrWindowNotFound, w.PID)
	}

	w.Bounds = Rect{X: x, Y: y, Width: width, Height: height}
	return nil
}

// Activate brings the window to the foreground so simulated input lands in
// it. OS-dependent side effect: steals focus from whatever was frontmost.
func (l *Locator) Activate(w *Window) error {
	if err := robotgo.ActivePid(int(w.PID)); err != nil {
		return fmt.Errorf("failed to activate window %q: %w", w.Title, err)
	}
	return nil
}
