package cv

// Template describes one card template image on disk
type Template struct {
	Name      string
	Path      string
	Threshold float64
}

// WithThreshold sets a per-template matching threshold
func (t Template) WithThreshold(threshold float64) Template {
	t.Threshold = threshold
	return t
}
