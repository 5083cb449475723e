package cv

import (
	"image"
	"math"
)

// MatchResult contains template matching results
type MatchResult struct {
	Found      bool
	Location   image.Point
	Confidence float64
}

// MatchMethod defines template matching algorithm
type MatchMethod int

const (
	// MatchMethodSAD - Sum of Absolute Differences (fastest)
	MatchMethodSAD MatchMethod = iota
	// MatchMethodSSD - Sum of Squared Differences (balanced)
	MatchMethodSSD
	// MatchMethodNCC - Normalized Cross-Correlation (most accurate)
	MatchMethodNCC
)

// MatchConfig configures template matching
type MatchConfig struct {
	Method       MatchMethod
	Threshold    float64          // 0.0-1.0, higher = more strict
	SearchRegion *image.Rectangle // Optional: limit search area
}

// DefaultMatchConfig returns recommended settings
func DefaultMatchConfig() *MatchConfig {
	return &MatchConfig{
		Method:    MatchMethodNCC,
		Threshold: 0.8,
	}
}

// FindTemplate finds a template image within a larger image
func FindTemplate(haystack, needle *image.RGBA, config *MatchConfig) *MatchResult {
	if config == nil {
		config = DefaultMatchConfig()
	}

	haystackBounds := haystack.Bounds()
	needleBounds := needle.Bounds()

	needleWidth := needleBounds.Dx()
	needleHeight := needleBounds.Dy()

	if needleWidth > haystackBounds.Dx() || needleHeight > haystackBounds.Dy() {
		return &MatchResult{Found: false}
	}

	searchBounds := haystackBounds
	if config.SearchRegion != nil {
		searchBounds = config.SearchRegion.Intersect(haystackBounds)

		if searchBounds.Empty() {
			return &MatchResult{Found: false, Confidence: 0.0}
		}
	}

	bestScore := 0.0
	bestLocation := image.Point{}
	found := false

	// IMPORTANT: Use <= for Min, < for Max to ensure we don't go out of bounds
	maxY := searchBounds.Max.Y - needleHeight
	maxX := searchBounds.Max.X - needleWidth

	if maxY < searchBounds.Min.Y || maxX < searchBounds.Min.X {
		// Template doesn't fit in search region
		return &MatchResult{Found: false, Confidence: 0.0}
	}

	for y := searchBounds.Min.Y; y <= maxY; y++ {
		for x := searchBounds.Min.X; x <= maxX; x++ {
			score := calculateMatchScore(haystack, needle, x, y, config.Method)

			if score > bestScore {
				bestScore = score
				bestLocation = image.Point{X: x, Y: y}
				if score >= config.Threshold {
					found = true
				}
			}
		}
	}

	return &MatchResult{
		Found:      found,
		Location:   bestLocation,
		Confidence: bestScore,
	}
}

// calculateMatchScore computes similarity between template and image region
func calculateMatchScore(haystack, needle *image.RGBA, x, y int, method MatchMethod) float64 {
	needleBounds := needle.Bounds()
	needleWidth := needleBounds.Dx()
	needleHeight := needleBounds.Dy()

	switch method {
	case MatchMethodSAD:
		return matchSAD(haystack, needle, x, y, needleWidth, needleHeight)
	case MatchMethodSSD:
		return matchSSD(haystack, needle, x, y, needleWidth, needleHeight)
	case MatchMethodNCC:
		return matchNCC(haystack, needle, x, y, needleWidth, needleHeight)
	default:
		return matchSSD(haystack, needle, x, y, needleWidth, needleHeight)
	}
}

// matchSAD - Sum of Absolute Differences (fastest, least accurate)
func matchSAD(haystack, needle *image.RGBA, x, y, width, height int) float64 {
	var sad uint64

	for ny := 0; ny < height; ny++ {
		for nx := 0; nx < width; nx++ {
			hIdx := ((y+ny)*haystack.Stride + (x+nx)*4)
			nIdx := (ny*needle.Stride + nx*4)

			// RGB difference
			sad += uint64(abs(int(haystack.Pix[hIdx]) - int(needle.Pix[nIdx])))
			sad += uint64(abs(int(haystack.Pix[hIdx+1]) - int(needle.Pix[nIdx+1])))
			sad += uint64(abs(int(haystack.Pix[hIdx+2]) - int(needle.Pix[nIdx+2])))
		}
	}

	// Normalize to 0-1 (lower SAD = better match)
	maxSAD := float64(width * height * 3 * 255)
	return 1.0 - (float64(sad) / maxSAD)
}

// matchSSD - Sum of Squared Differences (balanced)
func matchSSD(haystack, needle *image.RGBA, x, y, width, height int) float64 {
	var ssd uint64

	for ny := 0; ny < height; ny++ {
		for nx := 0; nx < width; nx++ {
			hIdx := ((y+ny)*haystack.Stride + (x+nx)*4)
			nIdx := (ny*needle.Stride + nx*4)

			// RGB squared difference
			dr := int(haystack.Pix[hIdx]) - int(needle.Pix[nIdx])
			dg := int(haystack.Pix[hIdx+1]) - int(needle.Pix[nIdx+1])
			db := int(haystack.Pix[hIdx+2]) - int(needle.Pix[nIdx+2])

			ssd += uint64(dr*dr + dg*dg + db*db)
		}
	}

	// Normalize to 0-1
	maxSSD := float64(width * height * 3 * 255 * 255)
	return 1.0 - (float64(ssd) / maxSSD)
}

// matchNCC - Normalized Cross-Correlation (slowest, most accurate)
func matchNCC(haystack, needle *image.RGBA, x, y, width, height int) float64 {
	var sumH, sumN, sumHN, sumHH, sumNN float64
	pixelCount := float64(width * height * 3)

	for ny := 0; ny < height; ny++ {
		for nx := 0; nx < width; nx++ {
			hIdx := ((y+ny)*haystack.Stride + (x+nx)*4)
			nIdx := (ny*needle.Stride + nx*4)

			for c := 0; c < 3; c++ {
				h := float64(haystack.Pix[hIdx+c])
				n := float64(needle.Pix[nIdx+c])

				sumH += h
				sumN += n
				sumHN += h * n
				sumHH += h * h
				sumNN += n * n
			}
		}
	}

	numerator := sumHN - (sumH * sumN / pixelCount)
	denomH := math.Sqrt(sumHH - (sumH * sumH / pixelCount))
	denomN := math.Sqrt(sumNN - (sumN * sumN / pixelCount))

	if denomH == 0 || denomN == 0 {
		return 0
	}

	// Correlation coefficient (-1 to 1, normalize to 0-1)
	correlation := numerator / (denomH * denomN)
	return (correlation + 1.0) / 2.0
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// CropRegion extracts a rectangular region from an image. The crop is
// re-based to origin (0,0): the matchers index pixel data directly and
// require it.
func CropRegion(img *image.RGBA, rect image.Rectangle) *image.RGBA {
	cropped := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))

	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			cropped.SetRGBA(x, y, img.RGBAAt(rect.Min.X+x, rect.Min.Y+y))
		}
	}

	return cropped
}

// toGrayscale converts RGBA to grayscale
func toGrayscale(img *image.RGBA) *image.RGBA {
	bounds := img.Bounds()
	gray := image.NewRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			idx := (y * img.Stride) + (x * 4)
			r := img.Pix[idx]
			g := img.Pix[idx+1]
			b := img.Pix[idx+2]

			// Luminance formula
			grayValue := uint8((int(r)*299 + int(g)*587 + int(b)*114) / 1000)

			gray.Pix[idx] = grayValue
			gray.Pix[idx+1] = grayValue
			gray.Pix[idx+2] = grayValue
			gray.Pix[idx+3] = 255
		}
	}

	return gray
}

// GrayscaleMatch performs grayscale template matching (faster)
func GrayscaleMatch(haystack, needle *image.RGBA, config *MatchConfig) *MatchResult {
	grayHaystack := toGrayscale(haystack)
	grayNeedle := toGrayscale(needle)

	return FindTemplate(grayHaystack, grayNeedle, config)
}
