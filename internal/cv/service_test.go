package cv

import (
	"image"
	"testing"
	"time"
)

// countingCapturer returns a fresh noise frame per capture and counts calls
type countingCapturer struct {
	calls int
}

func (c *countingCapturer) CaptureFrame() (*image.RGBA, error) {
	c.calls++
	return noiseImage(32, 32, int64(c.calls)), nil
}

func (c *countingCapturer) GetDimensions() (int, int) {
	return 32, 32
}

func TestCaptureFrameCaching(t *testing.T) {
	capturer := &countingCapturer{}
	svc := NewServiceWithCache(capturer, time.Minute)

	first, err := svc.CaptureFrame(true)
	if err != nil {
		t.Fatalf("CaptureFrame: %v", err)
	}
	second, err := svc.CaptureFrame(true)
	if err != nil {
		t.Fatalf("CaptureFrame: %v", err)
	}

	if capturer.calls != 1 {
		t.Errorf("capturer called %d times, want 1 (cached)", capturer.calls)
	}
	if first != second {
		t.Error("cached capture returned a different frame")
	}

	svc.InvalidateCache()
	if _, err := svc.CaptureFrame(true); err != nil {
		t.Fatalf("CaptureFrame: %v", err)
	}
	if capturer.calls != 2 {
		t.Errorf("capturer called %d times after invalidate, want 2", capturer.calls)
	}
}

func TestCaptureFrameUncachedAlwaysFresh(t *testing.T) {
	capturer := &countingCapturer{}
	svc := NewService(capturer)

	svc.CaptureFrame(false)
	svc.CaptureFrame(false)

	if capturer.calls != 2 {
		t.Errorf("capturer called %d times, want 2 for uncached captures", capturer.calls)
	}
}

func TestCropSlotClampsToFrame(t *testing.T) {
	svc := NewService(&countingCapturer{})
	frame := noiseImage(32, 32, 1)

	// region hangs off the bottom-right corner
	crop, err := svc.CropSlot(frame, NewRegion(24, 24, 48, 48))
	if err != nil {
		t.Fatalf("CropSlot: %v", err)
	}
	if crop.Bounds().Dx() != 8 || crop.Bounds().Dy() != 8 {
		t.Errorf("crop size = %dx%d, want 8x8 after clamping", crop.Bounds().Dx(), crop.Bounds().Dy())
	}
}

func TestCropSlotOutsideFrame(t *testing.T) {
	svc := NewService(&countingCapturer{})
	frame := noiseImage(32, 32, 1)

	if _, err := svc.CropSlot(frame, NewRegion(100, 100, 120, 120)); err == nil {
		t.Error("expected error for a region entirely outside the frame")
	}
}
