package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/clone"
	"github.com/disintegration/imaging"
)

// CropSquare extracts the square of side 2×radius centered at (cx, cy).
// Coordinates are relative to the image's top-left pixel.
//
// # Bounds Policy
//
// The overhang is the largest distance the square extends past any image edge:
//   - overhang 0: plain crop
//   - overhang < radius (less than half the side): the image is edge-extended by
//     the overhang, so missing border pixels replicate the nearest edge pixel
//   - overhang >= radius: the candidate is dropped and ok is false
//
// A radius below 1 is always dropped.
func CropSquare(img image.Image, cx, cy, radius int) (crop *image.NRGBA, ok bool) {
	if radius < 1 {
		return nil, false
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	box := image.Rect(cx-radius, cy-radius, cx+radius, cy+radius)

	overhang := max(0, -box.Min.X, -box.Min.Y, box.Max.X-width, box.Max.Y-height)
	if overhang >= radius {
		return nil, false
	}

	if overhang == 0 {
		return imaging.Crop(img, box.Add(bounds.Min)), true
	}

	// Pad works on an origin-based copy so box offsets stay simple.
	padded := clone.Pad(imaging.Clone(img), overhang, overhang, clone.EdgeExtend)
	return imaging.Crop(padded, box.Add(image.Pt(overhang, overhang))), true
}
