// Package templates manages the card template library used for slot
// detection. Templates are PNG crops captured from the mirror window, one
// per card, optionally described by a YAML manifest with per-card
// thresholds. The registry implements cv.TemplateSource.
package templates

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"jordanella.com/clash-arena-go/internal/cv"
)

// Registry manages the collection of card templates for one templates
// directory
type Registry struct {
	mu        sync.RWMutex
	templates map[string]cv.Template
	basePath  string
	cache     *ImageCache
}

// ManifestEntry is one card in a YAML manifest
type ManifestEntry struct {
	Name      string  `yaml:"name"`
	Path      string  `yaml:"path"`
	Threshold float64 `yaml:"threshold,omitempty"`
}

// Manifest is the structure of a cards.yaml file
type Manifest struct {
	Cards []ManifestEntry `yaml:"cards"`
}

// NewRegistry creates an empty registry rooted at basePath
func NewRegistry(basePath string) *Registry {
	return &Registry{
		templates: make(map[string]cv.Template),
		basePath:  basePath,
		cache:     NewImageCache(),
	}
}

// LoadFromDirectory discovers templates in the registry's base path. Bare
// PNG files register under their file name; YAML manifests may add entries
// or override thresholds. A missing directory is not an error here, the
// caller decides whether detection is optional.
func (r *Registry) LoadFromDirectory() error {
	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		return fmt.Errorf("failed to read template directory %s: %w", r.basePath, err)
	}

	// PNGs first so manifests can override what discovery registered
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(entry.Name())) != ".png" {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		r.Register(cv.Template{
			Name: name,
			Path: filepath.Join(r.basePath, entry.Name()),
		})
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		if err := r.loadManifest(filepath.Join(r.basePath, entry.Name())); err != nil {
			return fmt.Errorf("manifest %s: %w", entry.Name(), err)
		}
	}

	return nil
}

// loadManifest merges a YAML manifest into the registry
func (r *Registry) loadManifest(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("failed to parse manifest: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, card := range manifest.Cards {
		if card.Name == "" {
			return fmt.Errorf("card %d: name cannot be empty", i+1)
		}

		template, exists := r.templates[card.Name]
		if !exists {
			if card.Path == "" {
				return fmt.Errorf("card %q: path cannot be empty for a card with no discovered PNG", card.Name)
			}
			template = cv.Template{Name: card.Name}
		}

		if card.Path != "" {
			template.Path = filepath.Join(r.basePath, card.Path)
		}
		if card.Threshold > 0 {
			template = template.WithThreshold(card.Threshold)
		}

		r.templates[card.Name] = template
	}

	return nil
}

// Register adds or replaces a template
func (r *Registry) Register(template cv.Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[template.Name] = template
}

// Count returns the number of registered templates
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

// Identities lists registered card names in stable order
func (r *Registry) Identities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Image returns the decoded template image and its per-card threshold.
// Satisfies cv.TemplateSource.
func (r *Registry) Image(name string) (*image.RGBA, float64, error) {
	r.mu.RLock()
	template, ok := r.templates[name]
	r.mu.RUnlock()

	if !ok {
		return nil, 0, fmt.Errorf("no template registered for card %q", name)
	}

	img, err := r.cache.Get(template.Path)
	if err != nil {
		return nil, 0, err
	}
	return img, template.Threshold, nil
}

// PreloadAll decodes every template up front so the first detection cycle
// pays no disk latency
func (r *Registry) PreloadAll() error {
	for _, name := range r.Identities() {
		if _, _, err := r.Image(name); err != nil {
			return fmt.Errorf("preload %q: %w", name, err)
		}
	}
	return nil
}

// CacheStats returns image cache statistics
func (r *Registry) CacheStats() CacheStats {
	return r.cache.Stats()
}
