package imaging

import (
	"image"
	"image/color"
	"testing"
)

// createGradient returns an opaque image whose red channel encodes x and
// green channel encodes y, so every pixel identifies its source position.
func createGradient(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), 0, 255})
		}
	}
	return img
}

func TestCropSquare_InBounds(t *testing.T) {
	img := createGradient(40, 30)

	crop, ok := CropSquare(img, 20, 15, 6)
	if !ok {
		t.Fatal("in-bounds candidate was dropped")
	}
	if b := crop.Bounds(); b.Dx() != 12 || b.Dy() != 12 || b.Min != (image.Point{}) {
		t.Fatalf("unexpected bounds %v, want 12x12 at origin", b)
	}

	for y := 0; y < 12; y++ {
		for x := 0; x < 12; x++ {
			got := crop.NRGBAAt(x, y)
			if int(got.R) != 14+x || int(got.G) != 9+y {
				t.Fatalf("pixel (%d,%d) = %v, want source (%d,%d)", x, y, got, 14+x, 9+y)
			}
		}
	}
}

func TestCropSquare_OffsetBounds(t *testing.T) {
	img := createGradient(40, 30)
	shifted := img.SubImage(image.Rect(10, 5, 40, 30))

	crop, ok := CropSquare(shifted, 5, 5, 4)
	if !ok {
		t.Fatal("in-bounds candidate was dropped")
	}
	// (0,0) of the crop is image-relative (1,1), absolute (11,6).
	got := crop.NRGBAAt(0, 0)
	if got.R != 11 || got.G != 6 {
		t.Errorf("top-left pixel = %v, want source (11,6)", got)
	}
}

func TestCropSquare_EdgeExtend(t *testing.T) {
	img := createGradient(40, 30)

	// Square spans x in [-3, 7), overhang 3 < radius 5.
	crop, ok := CropSquare(img, 2, 15, 5)
	if !ok {
		t.Fatal("candidate with small overhang was dropped")
	}
	if b := crop.Bounds(); b.Dx() != 10 || b.Dy() != 10 {
		t.Fatalf("unexpected bounds %v, want 10x10", b)
	}

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			wantX := max(0, x-3)
			got := crop.NRGBAAt(x, y)
			if int(got.R) != wantX || int(got.G) != 10+y || got.A != 255 {
				t.Fatalf("pixel (%d,%d) = %v, want source (%d,%d)", x, y, got, wantX, 10+y)
			}
		}
	}
}

func TestCropSquare_Dropped(t *testing.T) {
	img := createGradient(40, 30)

	tests := []struct {
		name           string
		cx, cy, radius int
	}{
		{"overhang equals radius", 0, 15, 5},
		{"center outside", -2, 15, 5},
		{"bottom right corner", 40, 30, 6},
		{"zero radius", 20, 15, 0},
		{"negative radius", 20, 15, -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if crop, ok := CropSquare(img, tt.cx, tt.cy, tt.radius); ok || crop != nil {
				t.Errorf("CropSquare(%d,%d,%d) = (%v, %v), want dropped", tt.cx, tt.cy, tt.radius, crop != nil, ok)
			}
		})
	}
}
