package bot

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"jordanella.com/clash-arena-go/internal/window"
)

func TestCalibratorSamplesPointer(t *testing.T) {
	finder := &fakeFinder{win: testWindow()}

	in := strings.NewReader("\n\nq\n")
	var out bytes.Buffer

	c := NewCalibrator(finder, in, &out)
	positions := [][2]int{{500, 880}, {250, 500}}
	calls := 0
	c.locate = func() (int, int) {
		p := positions[calls]
		calls++
		return p[0], p[1]
	}

	if err := c.Run("ClashRoyale"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	output := out.String()
	if !strings.Contains(output, "normalized (0.500, 0.880)") {
		t.Errorf("output missing first sample:\n%s", output)
	}
	if !strings.Contains(output, "normalized (0.250, 0.500)") {
		t.Errorf("output missing second sample:\n%s", output)
	}
	if !strings.Contains(output, "2 samples taken") {
		t.Errorf("output missing sample summary:\n%s", output)
	}
}

func TestCalibratorTracksMovedWindow(t *testing.T) {
	finder := &fakeFinder{win: testWindow()}

	in := strings.NewReader("\n\nq\n")
	var out bytes.Buffer

	c := NewCalibrator(finder, in, &out)
	calls := 0
	c.locate = func() (int, int) {
		calls++
		if calls == 1 {
			// the window moves after the first sample
			finder.win.Bounds = window.Rect{X: 1000, Y: 1000, Width: 1000, Height: 1000}
			return 500, 880
		}
		return 1250, 1500
	}

	if err := c.Run("ClashRoyale"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	output := out.String()
	if !strings.Contains(output, "normalized (0.500, 0.880)") {
		t.Errorf("output missing pre-move sample:\n%s", output)
	}
	if !strings.Contains(output, "normalized (0.250, 0.500)") {
		t.Errorf("post-move sample not normalized against the new bounds:\n%s", output)
	}
}

func TestCalibratorWindowDisappearsMidSession(t *testing.T) {
	finder := &fakeFinder{
		win:        testWindow(),
		refreshErr: fmt.Errorf("gone"),
	}

	c := NewCalibrator(finder, strings.NewReader("\nq\n"), &bytes.Buffer{})
	if err := c.Run("ClashRoyale"); !errors.Is(err, window.ErrWindowNotFound) {
		t.Fatalf("Run error = %v, want ErrWindowNotFound", err)
	}
}

func TestCalibratorRejectsPointerOutsideWindow(t *testing.T) {
	finder := &fakeFinder{win: testWindow()}

	in := strings.NewReader("\nq\n")
	var out bytes.Buffer

	c := NewCalibrator(finder, in, &out)
	c.locate = func() (int, int) { return 5000, 5000 }

	if err := c.Run("ClashRoyale"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !strings.Contains(out.String(), "outside the window") {
		t.Errorf("output missing out-of-window notice:\n%s", out.String())
	}
}

func TestCalibratorWindowNotFound(t *testing.T) {
	finder := &fakeFinder{
		findErr: fmt.Errorf("%w: nothing matches", window.ErrWindowNotFound),
	}

	c := NewCalibrator(finder, strings.NewReader("q\n"), &bytes.Buffer{})
	if err := c.Run("ClashRoyale"); !errors.Is(err, window.ErrWindowNotFound) {
		t.Fatalf("Run error = %v, want ErrWindowNotFound", err)
	}
}
