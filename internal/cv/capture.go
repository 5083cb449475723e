package cv

import (
	"errors"
	"fmt"
	"image"

	"github.com/go-vgo/robotgo"

	"jordanella.com/clash-arena-go/internal/window"
)

// ErrCaptureFailed marks a transient capture failure. The window may have
// closed or moved off-screen between locate and capture; callers retry a
// bounded number of times before giving up on the cycle.
var ErrCaptureFailed = errors.New("screen capture failed")

// Capturer interface for different capture methods
type Capturer interface {
	CaptureFrame() (*image.RGBA, error)
	GetDimensions() (width, height int)
}

// RegionCapture grabs the screen region covered by the mirror window.
// Bounds are re-targeted after every locate, so staleness is bounded by one
// cycle - the documented tolerance for a window moving mid-capture.
type RegionCapture struct {
	bounds window.Rect
}

// NewRegionCapture creates a capturer for the given window bounds
func NewRegionCapture(bounds window.Rect) (*RegionCapture, error) {
	if bounds.Width <= 0 || bounds.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid capture bounds %dx%d", ErrCaptureFailed, bounds.Width, bounds.Height)
	}
	return &RegionCapture{bounds: bounds}, nil
}

// SetBounds re-targets the capturer after the window has been re-located
func (rc *RegionCapture) SetBounds(bounds window.Rect) {
	rc.bounds = bounds
}

// CaptureFrame captures the current window region as an image
func (rc *RegionCapture) CaptureFrame() (*image.RGBA, error) {
	img, err := robotgo.CaptureImg(rc.bounds.X, rc.bounds.Y, rc.bounds.Width, rc.bounds.Height)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	if img == nil {
		return nil, fmt.Errorf("%w: empty frame", ErrCaptureFailed)
	}

	return toRGBA(img), nil
}

// GetDimensions returns the capture dimensions
func (rc *RegionCapture) GetDimensions() (width, height int) {
	return rc.bounds.Width, rc.bounds.Height
}

// toRGBA normalizes any decoded image to *image.RGBA with origin (0,0)
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			rgba.Set(x, y, img.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return rgba
}
