package legend

import (
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// DefaultWhitelist restricts recognition to digits, which covers speed and
// weight limits.
const DefaultWhitelist = "0123456789"

// Legend is the text read from one sign.
type Legend struct {
	Text string `json:"text"`

	// Confidence is the OCR engine's word confidence scaled to 0.0..1.0.
	Confidence float64 `json:"confidence"`
}

// Reader extracts a legend from a sign crop. An empty Legend with a nil error
// means nothing legible was found.
type Reader interface {
	ReadLegend(img image.Image) (Legend, error)
}

// Prepare cuts the central inner×inner part of img, converts it to grayscale,
// stretches its contrast and scales it to the given height.
func Prepare(img image.Image, inner float64, height int) *image.NRGBA {
	b := img.Bounds()
	w, h := int(float64(b.Dx())*inner), int(float64(b.Dy())*inner)
	if w < 1 || h < 1 || height < 1 {
		return &image.NRGBA{}
	}
	center := imaging.CropCenter(img, w, h)
	gray := imaging.AdjustContrast(imaging.Grayscale(center), 30)
	return imaging.Resize(gray, 0, height, imaging.Lanczos)
}

// Word is one recognized word and the engine's confidence in it, scaled to
// 0.0..1.0.
type Word struct {
	Text       string
	Confidence float64
}

// Pick returns the most confident word made only of whitelisted characters.
// Earlier words win ties.
func Pick(words []Word, whitelist string) Legend {
	var best Legend
	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		if whitelist != "" && strings.Trim(text, whitelist) != "" {
			continue
		}
		if best.Text == "" || w.Confidence > best.Confidence {
			best = Legend{Text: text, Confidence: w.Confidence}
		}
	}
	return best
}
