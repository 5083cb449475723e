package cv

import (
	"fmt"
	"image"
)

// Identity names the card a template represents
type Identity string

// IdentityUnknown is the legitimate "no confident match" outcome. It is not
// an error: the deploy loop treats unidentified slots as interchangeable.
const IdentityUnknown Identity = "unknown"

// ambiguityMargin is how close a runner-up score may come to the best score
// before the detection is considered ambiguous and reported as Unknown
const ambiguityMargin = 0.02

// TemplateSource supplies card templates to the detector. pkg/templates
// provides the production implementation; tests provide fakes.
type TemplateSource interface {
	// Identities lists the card names with registered templates
	Identities() []string
	// Image returns the template image and its per-template threshold
	// (0 means use the detector default)
	Image(name string) (*image.RGBA, float64, error)
}

// Detector identifies which card occupies a slot by scoring the cropped slot
// image against every registered template. Stateless per call.
type Detector struct {
	source    TemplateSource
	method    MatchMethod
	threshold float64
	grayscale bool
}

// NewDetector creates a detector with the given confidence threshold
func NewDetector(source TemplateSource, threshold float64) *Detector {
	return &Detector{
		source:    source,
		method:    MatchMethodNCC,
		threshold: threshold,
	}
}

// WithMethod selects the matching algorithm (NCC by default)
func (d *Detector) WithMethod(method MatchMethod) *Detector {
	d.method = method
	return d
}

// WithGrayscale switches matching to grayscale. Cheaper per comparison and
// insensitive to the color shifts some mirrors introduce.
func (d *Detector) WithGrayscale(enabled bool) *Detector {
	d.grayscale = enabled
	return d
}

// Enabled reports whether any templates are configured. When false the
// deploy loop bypasses detection entirely.
func (d *Detector) Enabled() bool {
	return d.source != nil && len(d.source.Identities()) > 0
}

// Identify matches the slot image against each template and returns the
// highest-scoring identity when its score meets the threshold, else
// IdentityUnknown. Two near-tied candidates are ambiguous and also yield
// IdentityUnknown.
func (d *Detector) Identify(slot *image.RGBA) (Identity, float64, error) {
	if !d.Enabled() {
		return IdentityUnknown, 0, nil
	}

	best := Identity(IdentityUnknown)
	bestScore := 0.0
	runnerUp := 0.0
	bestThreshold := d.threshold

	for _, name := range d.source.Identities() {
		tmpl, threshold, err := d.source.Image(name)
		if err != nil {
			return IdentityUnknown, 0, fmt.Errorf("failed to load template %q: %w", name, err)
		}
		if threshold <= 0 {
			threshold = d.threshold
		}

		match := FindTemplate
		if d.grayscale {
			match = GrayscaleMatch
		}
		result := match(slot, tmpl, &MatchConfig{
			Method:    d.method,
			Threshold: threshold,
		})

		if result.Confidence > bestScore {
			runnerUp = bestScore
			bestScore = result.Confidence
			best = Identity(name)
			bestThreshold = threshold
		} else if result.Confidence > runnerUp {
			runnerUp = result.Confidence
		}
	}

	if bestScore < bestThreshold {
		return IdentityUnknown, bestScore, nil
	}
	if runnerUp >= bestThreshold && bestScore-runnerUp < ambiguityMargin {
		// Two cards both claim the slot; trusting either would be a guess
		return IdentityUnknown, bestScore, nil
	}

	return best, bestScore, nil
}
