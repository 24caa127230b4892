package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"

	"github.com/ironsheep/sign-tools-mcp/internal/detection"
)

// AnnotateResult contains an image with detected circles drawn on it.
type AnnotateResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	Circles     int    `json:"circles"`
}

// DrawCircles returns a copy of img with every circle's perimeter drawn and a
// 1-based index label next to it. Circle coordinates are relative to the
// image's top-left pixel.
//
// Every write is bounds-checked first; parts of a circle that fall outside
// the canvas are clipped.
func DrawCircles(img image.Image, circles []detection.Circle, stroke color.Color) *image.RGBA {
	bounds := img.Bounds()
	result := image.NewRGBA(bounds)
	draw.Draw(result, bounds, img, bounds.Min, draw.Src)

	for i, c := range circles {
		cx, cy := c.X+bounds.Min.X, c.Y+bounds.Min.Y
		// Two concentric outlines keep the ring visible on busy photos.
		for _, r := range []int{c.Radius, c.Radius + 1} {
			for _, o := range detection.CirclePerimeter(r) {
				setClipped(result, cx+o.X, cy+o.Y, stroke)
			}
		}
		drawLabel(result, cx+c.Radius+3, cy-c.Radius, strconv.Itoa(i+1),
			color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 0, 180})
	}
	return result
}

// Annotate draws circles on img and returns the result as a base64 PNG.
// An unparseable color falls back to the default red stroke.
func Annotate(img image.Image, circles []detection.Circle, colorHex string) (*AnnotateResult, error) {
	stroke, err := parseHexColor(colorHex)
	if err != nil {
		stroke = color.RGBA{220, 20, 20, 255}
	}

	result := DrawCircles(img, circles, stroke)

	var buf bytes.Buffer
	if err := png.Encode(&buf, result); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &AnnotateResult{
		Width:       result.Bounds().Dx(),
		Height:      result.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		Circles:     len(circles),
	}, nil
}

// setClipped writes a pixel only when it lies on the canvas.
func setClipped(img *image.RGBA, x, y int, c color.Color) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.Set(x, y, c)
	}
}

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.RGBA, error) {
	if len(hex) == 0 {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}

// drawLabel draws a small digit label with a background box, clipped to the canvas.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	// 3x5 pixel digits
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setClipped(img, x+dx, y+dy, bg)
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					setClipped(img, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
