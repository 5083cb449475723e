package cv

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Service handles all computer vision operations for the mirror window
type Service struct {
	capturer Capturer

	// Frame caching for performance: several slot crops in one cycle should
	// not trigger several captures
	cachedFrame     *image.RGBA
	cachedFrameTime time.Time
	cacheDuration   time.Duration

	mu sync.RWMutex
}

// NewService creates a new CV service
func NewService(capturer Capturer) *Service {
	return &Service{
		capturer:      capturer,
		cacheDuration: 100 * time.Millisecond,
	}
}

// NewServiceWithCache creates a CV service with custom cache duration
func NewServiceWithCache(capturer Capturer, cacheDuration time.Duration) *Service {
	return &Service{
		capturer:      capturer,
		cacheDuration: cacheDuration,
	}
}

// CaptureFrame captures current window frame with optional caching
func (s *Service) CaptureFrame(useCache bool) (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if useCache && s.cachedFrame != nil {
		elapsed := time.Since(s.cachedFrameTime)
		if elapsed < s.cacheDuration {
			return s.cachedFrame, nil
		}
	}

	frame, err := s.capturer.CaptureFrame()
	if err != nil {
		return nil, err
	}

	if useCache {
		s.cachedFrame = frame
		s.cachedFrameTime = time.Now()
	}

	return frame, nil
}

// InvalidateCache forces next capture to get fresh frame
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cachedFrame = nil
}

// CropSlot extracts a slot region from a frame, clamped to the frame bounds
func (s *Service) CropSlot(frame *image.RGBA, region Region) (*image.RGBA, error) {
	rect := region.ToImageRectangle().Intersect(frame.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("slot region (%d,%d)-(%d,%d) lies outside the frame",
			region.X1, region.Y1, region.X2, region.Y2)
	}
	return CropRegion(frame, rect), nil
}

// SaveReference captures a fresh frame and writes it to path as PNG.
// Debug/calibration aid only - the deploy loop never reads it back.
func (s *Service) SaveReference(path string) error {
	s.InvalidateCache()

	frame, err := s.CaptureFrame(false)
	if err != nil {
		return fmt.Errorf("failed to capture reference frame: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create screenshot directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create reference file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, frame); err != nil {
		return fmt.Errorf("failed to encode reference PNG: %w", err)
	}

	return nil
}

// SaveImage writes an arbitrary image to path as PNG (template capture tool)
func SaveImage(img image.Image, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}

	return nil
}
