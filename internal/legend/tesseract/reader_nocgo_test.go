//go:build !cgo

package tesseract

import (
	"errors"
	"image"
	"testing"

	"github.com/ironsheep/sign-tools-mcp/internal/legend"
)

func TestReader_Unavailable(t *testing.T) {
	r := NewReader("")
	if _, err := r.ReadLegend(image.NewRGBA(image.Rect(0, 0, 10, 10))); !errors.Is(err, ErrUnavailable) {
		t.Errorf("ReadLegend() error = %v, want ErrUnavailable", err)
	}
}

var _ legend.Reader = (*Reader)(nil)
