package features

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/sign-tools-mcp/internal/detection"
	signimaging "github.com/ironsheep/sign-tools-mcp/internal/imaging"
)

// Extract crops the square of side 2×radius around c and encodes it.
//
// ok is false when the square overhangs the image by half its side or more;
// such candidates are dropped, not reported as errors.
func Extract(img image.Image, c detection.Circle, cfg Config) (v Vector, ok bool) {
	crop, ok := signimaging.CropSquare(img, c.X, c.Y, c.Radius)
	if !ok {
		return nil, false
	}
	return Encode(crop, cfg), true
}

// Encode resizes img to the canonical size, converts it to intensity and
// returns its HOG descriptor. Training exemplars and live crops both go
// through Encode so their vectors are comparable.
func Encode(img image.Image, cfg Config) Vector {
	size := cfg.CanonicalSize
	gray := imaging.Grayscale(imaging.Resize(img, size, size, imaging.Linear))
	return HOG(Intensity(gray), size, size, cfg)
}

// Intensity returns the red channel of a grayscale image as row-major values
// in [0,1].
func Intensity(gray *image.NRGBA) []float64 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < w; x++ {
			out[y*w+x] = float64(row[x*4]) / 255
		}
	}
	return out
}
