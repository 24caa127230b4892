package imaging

import (
	"fmt"
	"image"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBAColor represents an RGBA color with 8-bit components including alpha.
//
// The alpha component represents opacity:
//   - 0 = fully transparent
//   - 255 = fully opaque
type RGBAColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
	A uint8 `json:"a"` // Alpha/opacity component (0-255)
}

// HSVColor is a color in HSV space with every component in [0,1].
//
// Hue is the raw hue as a fraction of a full turn (0=red, 1/3=green,
// 2/3=blue). It is not folded; color classes compare against the folded hue.
type HSVColor struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	V float64 `json:"v"`
}

// ColorSample is the color of one pixel in the representations useful for
// tuning color class windows.
type ColorSample struct {
	X    int       `json:"x"`
	Y    int       `json:"y"`
	Hex  string    `json:"hex"` // "#RRGGBB", alpha excluded
	RGBA RGBAColor `json:"rgba"`
	HSV  HSVColor  `json:"hsv"`
}

// SampleColor returns the color at (x, y).
//
// Coordinates are 0-based with origin at the image's top-left pixel, whatever
// img.Bounds().Min is. Points outside the image are an error.
//
// 16-bit channels are reduced to 8 bits before conversion, the same way the
// segmenter reads pixels, so the reported HSV is exactly what segmentation
// sees.
func SampleColor(img image.Image, x, y int) (*ColorSample, error) {
	bounds := img.Bounds()
	if x < 0 || y < 0 || x >= bounds.Dx() || y >= bounds.Dy() {
		return nil, fmt.Errorf("coordinates (%d,%d) outside %dx%d image", x, y, bounds.Dx(), bounds.Dy())
	}

	r, g, b, a := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
	r8, g8, b8, a8 := uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8)

	c := colorful.Color{R: float64(r8) / 255, G: float64(g8) / 255, B: float64(b8) / 255}
	h, s, v := c.Hsv()

	return &ColorSample{
		X:    x,
		Y:    y,
		Hex:  fmt.Sprintf("#%02X%02X%02X", r8, g8, b8),
		RGBA: RGBAColor{R: r8, G: g8, B: b8, A: a8},
		HSV:  HSVColor{H: h / 360, S: s, V: v},
	}, nil
}

// SampleColors samples several points in input order. Any point outside the
// image fails the whole call.
func SampleColors(img image.Image, points []image.Point) ([]ColorSample, error) {
	samples := make([]ColorSample, 0, len(points))
	for _, p := range points {
		sample, err := SampleColor(img, p.X, p.Y)
		if err != nil {
			return nil, err
		}
		samples = append(samples, *sample)
	}
	return samples, nil
}
