package segment

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"
)

// HueWrapThreshold is the hue above which values are folded to 0.
const HueWrapThreshold = 0.8

// HSVImage holds per-pixel hue, saturation and value in [0,1], row-major.
// Hue has already been corrected with CorrectHue.
type HSVImage struct {
	Width  int
	Height int
	H      []float64
	S      []float64
	V      []float64
}

// CorrectHue folds hues above HueWrapThreshold to 0 so that the red band,
// which straddles the hue origin, becomes one contiguous window.
func CorrectHue(h float64) float64 {
	if h > HueWrapThreshold {
		return 0
	}
	return h
}

// ToHSV converts an image to corrected HSV. The image bounds are normalized so
// that index 0 is the image's top-left pixel regardless of img.Bounds().Min.
func ToHSV(img image.Image) *HSVImage {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := &HSVImage{
		Width:  width,
		Height: height,
		H:      make([]float64, width*height),
		S:      make([]float64, width*height),
		V:      make([]float64, width*height),
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			c := colorful.Color{
				R: float64(r>>8) / 255.0,
				G: float64(g>>8) / 255.0,
				B: float64(b>>8) / 255.0,
			}
			h, s, v := c.Hsv()
			i := y*width + x
			out.H[i] = CorrectHue(h / 360.0)
			out.S[i] = s
			out.V[i] = v
		}
	}
	return out
}
