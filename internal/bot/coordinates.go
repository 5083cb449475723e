package bot

import (
	"fmt"
	"image"
	"math"

	"jordanella.com/clash-arena-go/internal/window"
)

// NormalizedPoint is a screen location expressed as fractions of window
// width/height, independent of window size and position. Card slots and drop
// targets are stored this way in configuration; pixels are derived per action.
type NormalizedPoint struct {
	X float64
	Y float64
}

// Validate ensures both fractions lie in [0,1]
func (p NormalizedPoint) Validate() error {
	if p.X < 0 || p.X > 1 {
		return fmt.Errorf("normalized X %.4f out of range [0,1]", p.X)
	}
	if p.Y < 0 || p.Y > 1 {
		return fmt.Errorf("normalized Y %.4f out of range [0,1]", p.Y)
	}
	return nil
}

// Mapper translates between normalized positions and pixels for one set of
// window bounds. Absolute positions are never stored - the window can move
// between cycles, so a Mapper is rebuilt from fresh bounds every time.
type Mapper struct {
	bounds window.Rect
}

// NewMapper creates a mapper for the given window bounds
func NewMapper(bounds window.Rect) Mapper {
	return Mapper{bounds: bounds}
}

// Bounds returns the window bounds this mapper was built from
func (m Mapper) Bounds() window.Rect {
	return m.bounds
}

// ToAbsolute converts a normalized position to screen pixels:
// abs = origin + round(pct * extent), clamped inside the window rectangle
// inclusive of its edges.
func (m Mapper) ToAbsolute(p NormalizedPoint) image.Point {
	x := m.bounds.X + int(math.Round(p.X*float64(m.bounds.Width)))
	y := m.bounds.Y + int(math.Round(p.Y*float64(m.bounds.Height)))

	x = clamp(x, m.bounds.X, m.bounds.X+m.bounds.Width)
	y = clamp(y, m.bounds.Y, m.bounds.Y+m.bounds.Height)

	return image.Point{X: x, Y: y}
}

// ToFrame converts a normalized position to pixels relative to the window's
// own top-left corner - the coordinate space of a captured frame
func (m Mapper) ToFrame(p NormalizedPoint) image.Point {
	abs := m.ToAbsolute(p)
	return image.Point{X: abs.X - m.bounds.X, Y: abs.Y - m.bounds.Y}
}

// ToNormalized converts a screen pixel back to fractions of the window.
// Errors when the pixel lies outside the window - calibration reports that
// instead of emitting a bogus position.
func (m Mapper) ToNormalized(x, y int) (NormalizedPoint, error) {
	if !m.bounds.Contains(x, y) {
		return NormalizedPoint{}, fmt.Errorf("pixel (%d,%d) is outside window bounds %+v", x, y, m.bounds)
	}

	return NormalizedPoint{
		X: float64(x-m.bounds.X) / float64(m.bounds.Width),
		Y: float64(y-m.bounds.Y) / float64(m.bounds.Height),
	}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
