package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrImageDecode is returned when an image file is corrupt or in an
// unsupported format. Open failures are reported separately.
var ErrImageDecode = errors.New("image decode failed")

// Decode reads one image from r. Failures wrap ErrImageDecode.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return img, format, nil
}

// DecodeFile opens and decodes the image at path. A missing file is an open
// error; a file that is not a supported image wraps ErrImageDecode.
func DecodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// ImageInfo describes an image file before any sign processing.
type ImageInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format comes from the file extension (see FormatFromExt), not the contents.
	Format string `json:"format"`

	// ColorDepth is "8-bit" or "16-bit" per channel.
	ColorDepth string `json:"color_depth"`

	HasAlpha      bool  `json:"has_alpha"`
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads path through the cache and reports its metadata.
//
// Alpha and depth follow the decoded Go image type: *image.RGBA and
// *image.NRGBA carry alpha, their 64-bit variants carry alpha at 16 bits, and
// *image.Gray16 is 16-bit without alpha. Everything else (YCbCr JPEGs,
// paletted GIFs) reports 8-bit without alpha.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	info := &ImageInfo{
		Width:         img.Bounds().Dx(),
		Height:        img.Bounds().Dy(),
		Format:        FormatFromExt(path),
		ColorDepth:    "8-bit",
		FileSizeBytes: stat.Size(),
	}
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		info.HasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		info.HasAlpha = true
		info.ColorDepth = "16-bit"
	case *image.Gray16:
		info.ColorDepth = "16-bit"
	}
	return info, nil
}

// DimensionsResult is the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions loads path through the cache and reports its size.
func GetDimensions(cache *ImageCache, path string) (*DimensionsResult, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	return &DimensionsResult{Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}, nil
}

// FormatFromExt maps a file extension (case-insensitive) to a format name:
//   - ".png" -> "png"
//   - ".jpg", ".jpeg" -> "jpeg"
//   - ".gif" -> "gif"
//   - ".bmp" -> "bmp"
//   - ".tif", ".tiff" -> "tiff"
//   - ".webp" -> "webp"
//   - Other extensions -> "unknown"
func FormatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "png"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".gif":
		return "gif"
	case ".bmp":
		return "bmp"
	case ".tif", ".tiff":
		return "tiff"
	case ".webp":
		return "webp"
	}
	return "unknown"
}
