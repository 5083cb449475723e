package templates

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"sync"
)

// ImageCache caches decoded template images keyed by file path. Templates
// are small crops, so everything loaded stays resident for the run.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*image.RGBA
	stats  CacheStats
}

// CacheStats tracks cache performance
type CacheStats struct {
	Hits   int64
	Misses int64
	Loads  int64
}

// NewImageCache creates an empty image cache
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*image.RGBA),
	}
}

// Get returns the decoded image for a path, loading it on first use
func (ic *ImageCache) Get(path string) (*image.RGBA, error) {
	ic.mu.RLock()
	img, ok := ic.images[path]
	ic.mu.RUnlock()

	if ok {
		ic.mu.Lock()
		ic.stats.Hits++
		ic.mu.Unlock()
		return img, nil
	}

	ic.mu.Lock()
	defer ic.mu.Unlock()

	// Another goroutine may have loaded it between the locks
	if img, ok := ic.images[path]; ok {
		ic.stats.Hits++
		return img, nil
	}

	img, err := loadPNG(path)
	if err != nil {
		return nil, err
	}

	ic.images[path] = img
	ic.stats.Misses++
	ic.stats.Loads++
	return img, nil
}

// Stats returns cache statistics
func (ic *ImageCache) Stats() CacheStats {
	ic.mu.RLock()
	defer ic.mu.RUnlock()
	return ic.stats
}

// loadPNG decodes a PNG file into an RGBA image with origin (0,0)
func loadPNG(path string) (*image.RGBA, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template image: %w", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode template image %s: %w", path, err)
	}

	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba, nil
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			rgba.Set(x, y, img.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}
	return rgba, nil
}
