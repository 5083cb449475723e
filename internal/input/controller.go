// Package input simulates mouse gestures against the mirror window.
// A mouse drag inside the scrcpy window becomes a touch drag on the device.
package input

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/go-vgo/robotgo"
)

// ErrInjectionFailed marks an input injection the OS refused. Never retried
// automatically: repeated refusals mean a focus or permission problem that
// needs user action, not another attempt.
var ErrInjectionFailed = errors.New("input injection failed")

// Dragger performs press-drag-release gestures. The bot depends on this
// interface so tests can record invocations without touching the mouse.
type Dragger interface {
	Drag(from, to image.Point, duration time.Duration) error
}

// Controller injects mouse input through robotgo
type Controller struct {
	// ActionPause is the settle time after each gesture
	ActionPause time.Duration
}

// NewController creates an input controller
func NewController(actionPause time.Duration) *Controller {
	return &Controller{ActionPause: actionPause}
}

// Drag presses at from, moves linearly to to over duration, and releases.
// Press, move, and release are one scoped action: the release is issued even
// when a move step fails, so no cancellation path can leave the button held.
func (c *Controller) Drag(from, to image.Point, duration time.Duration) error {
	steps := dragSteps(from, to, duration)

	robotgo.Move(from.X, from.Y)
	robotgo.MilliSleep(50)

	if err := robotgo.Toggle("left", "down"); err != nil {
		return fmt.Errorf("%w: press refused at (%d,%d): %v", ErrInjectionFailed, from.X, from.Y, err)
	}

	stepDelay := duration / time.Duration(len(steps))
	for _, p := range steps {
		robotgo.Move(p.X, p.Y)
		robotgo.MilliSleep(int(stepDelay.Milliseconds()))
	}

	err := robotgo.Toggle("left", "up")
	if err != nil {
		return fmt.Errorf("%w: release refused at (%d,%d): %v", ErrInjectionFailed, to.X, to.Y, err)
	}

	if c.ActionPause > 0 {
		time.Sleep(c.ActionPause)
	}

	return nil
}

// dragSteps computes the interpolated waypoints of a drag, final point
// always exactly to. Step count scales with duration so slow drags stay
// smooth and fast drags stay cheap.
func dragSteps(from, to image.Point, duration time.Duration) []image.Point {
	n := int(duration / (10 * time.Millisecond))
	if n < 2 {
		n = 2
	}
	if n > 100 {
		n = 100
	}

	steps := make([]image.Point, n)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		steps[i-1] = image.Point{
			X: from.X + int(float64(to.X-from.X)*t),
			Y: from.Y + int(float64(to.Y-from.Y)*t),
		}
	}
	// rounding drift on the last waypoint would land the card off-target
	steps[n-1] = to
	return steps
}

// PointerLocation returns the current mouse position in screen pixels
// (calibration mode samples it on demand)
func PointerLocation() image.Point {
	x, y := robotgo.Location()
	return image.Point{X: x, Y: y}
}
