package cv

import (
	"fmt"
	"image"
	"sort"
	"testing"
)

// stubSource serves templates from memory
type stubSource struct {
	images     map[string]*image.RGBA
	thresholds map[string]float64
}

func (s *stubSource) Identities() []string {
	names := make([]string, 0, len(s.images))
	for name := range s.images {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *stubSource) Image(name string) (*image.RGBA, float64, error) {
	img, ok := s.images[name]
	if !ok {
		return nil, 0, fmt.Errorf("no template %q", name)
	}
	return img, s.thresholds[name], nil
}

func TestIdentifyMatchesCard(t *testing.T) {
	slot := noiseImage(48, 48, 10)
	source := &stubSource{
		images: map[string]*image.RGBA{
			"knight": CropRegion(slot, image.Rect(12, 12, 36, 36)),
			"archer": noiseImage(24, 24, 77),
		},
	}

	detector := NewDetector(source, 0.8)

	card, confidence, err := detector.Identify(slot)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if card != Identity("knight") {
		t.Errorf("card = %q, want knight", card)
	}
	if confidence < 0.99 {
		t.Errorf("confidence = %.3f, want >= 0.99", confidence)
	}
}

func TestIdentifyGrayscale(t *testing.T) {
	slot := noiseImage(48, 48, 10)
	source := &stubSource{
		images: map[string]*image.RGBA{
			"knight": CropRegion(slot, image.Rect(12, 12, 36, 36)),
			"archer": noiseImage(24, 24, 77),
		},
	}

	detector := NewDetector(source, 0.8).WithGrayscale(true)

	card, confidence, err := detector.Identify(slot)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if card != Identity("knight") {
		t.Errorf("card = %q, want knight", card)
	}
	if confidence < 0.99 {
		t.Errorf("confidence = %.3f, want >= 0.99 for an exact grayscale match", confidence)
	}
}

func TestIdentifyUnknownBelowThreshold(t *testing.T) {
	slot := noiseImage(48, 48, 10)
	source := &stubSource{
		images: map[string]*image.RGBA{
			"knight": noiseImage(24, 24, 50),
			"archer": noiseImage(24, 24, 51),
		},
	}

	detector := NewDetector(source, 0.95)

	card, _, err := detector.Identify(slot)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if card != IdentityUnknown {
		t.Errorf("card = %q, want unknown for unrelated templates", card)
	}
}

func TestIdentifyAmbiguousTie(t *testing.T) {
	slot := noiseImage(48, 48, 10)
	match := CropRegion(slot, image.Rect(12, 12, 36, 36))

	// two cards with identical templates both match perfectly
	source := &stubSource{
		images: map[string]*image.RGBA{
			"knight": match,
			"archer": CropRegion(slot, image.Rect(12, 12, 36, 36)),
		},
	}

	detector := NewDetector(source, 0.8)

	card, _, err := detector.Identify(slot)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if card != IdentityUnknown {
		t.Errorf("card = %q, want unknown for a near-tie", card)
	}
}

func TestIdentifyPerTemplateThreshold(t *testing.T) {
	slot := noiseImage(48, 48, 10)
	source := &stubSource{
		images: map[string]*image.RGBA{
			"knight": CropRegion(slot, image.Rect(12, 12, 36, 36)),
		},
		// impossible per-card threshold overrides the detector default
		thresholds: map[string]float64{"knight": 1.1},
	}

	detector := NewDetector(source, 0.5)

	card, _, err := detector.Identify(slot)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if card != IdentityUnknown {
		t.Errorf("card = %q, want unknown when per-card threshold is not met", card)
	}
}

func TestDetectorDisabled(t *testing.T) {
	detector := NewDetector(nil, 0.8)
	if detector.Enabled() {
		t.Error("detector with nil source reports enabled")
	}

	empty := NewDetector(&stubSource{images: map[string]*image.RGBA{}}, 0.8)
	if empty.Enabled() {
		t.Error("detector with no templates reports enabled")
	}

	card, confidence, err := detector.Identify(noiseImage(8, 8, 1))
	if err != nil || card != IdentityUnknown || confidence != 0 {
		t.Errorf("disabled Identify = (%q, %.3f, %v), want (unknown, 0, nil)", card, confidence, err)
	}
}
