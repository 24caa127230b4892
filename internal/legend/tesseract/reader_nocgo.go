//go:build !cgo

package tesseract

import (
	"errors"
	"image"

	"github.com/ironsheep/sign-tools-mcp/internal/legend"
)

// ErrUnavailable is returned by ReadLegend in binaries built without cgo.
var ErrUnavailable = errors.New("tesseract: built without cgo")

// Reader stands in for the gosseract-backed reader when cgo is disabled.
type Reader struct {
	Language string
}

// NewReader returns a Reader whose ReadLegend always fails.
func NewReader(language string) *Reader {
	if language == "" {
		language = "eng"
	}
	return &Reader{Language: language}
}

// ReadLegend returns ErrUnavailable.
func (r *Reader) ReadLegend(image.Image) (legend.Legend, error) {
	return legend.Legend{}, ErrUnavailable
}

// Close is a no-op.
func (r *Reader) Close() error { return nil }
