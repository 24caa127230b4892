//go:build cgo

package tesseract

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/sign-tools-mcp/internal/legend"
)

// Reader is a legend.Reader backed by one gosseract client. Calls are
// serialized because a Tesseract client is not safe for concurrent use.
type Reader struct {
	Language  string
	Whitelist string

	// Height is the height, in pixels, crops are upscaled to.
	Height int

	// Inner is the fraction of the crop's side kept around its center.
	Inner float64

	mu     sync.Mutex
	client *gosseract.Client
}

// NewReader returns a digit reader for the given Tesseract language ("eng"
// when empty). Call Close when done.
func NewReader(language string) *Reader {
	if language == "" {
		language = "eng"
	}
	return &Reader{
		Language:  language,
		Whitelist: legend.DefaultWhitelist,
		Height:    96,
		Inner:     0.7,
	}
}

// ReadLegend recognizes a single word in the center of img.
func (r *Reader) ReadLegend(img image.Image) (legend.Legend, error) {
	prepared := legend.Prepare(img, r.Inner, r.Height)
	if prepared.Bounds().Empty() {
		return legend.Legend{}, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, prepared); err != nil {
		return legend.Legend{}, fmt.Errorf("failed to encode crop: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		client := gosseract.NewClient()
		if err := configure(client, r.Language, r.Whitelist); err != nil {
			client.Close()
			return legend.Legend{}, err
		}
		r.client = client
	}

	if err := r.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return legend.Legend{}, fmt.Errorf("failed to set image: %w", err)
	}
	boxes, err := r.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return legend.Legend{}, fmt.Errorf("OCR failed: %w", err)
	}
	return legend.Pick(words(boxes), r.Whitelist), nil
}

// Close releases the Tesseract client.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	return err
}

func configure(client *gosseract.Client, language, whitelist string) error {
	if err := client.SetLanguage(language); err != nil {
		return fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_WORD); err != nil {
		return fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if whitelist != "" {
		if err := client.SetWhitelist(whitelist); err != nil {
			return fmt.Errorf("failed to set whitelist: %w", err)
		}
	}
	return nil
}

// words converts Tesseract's percent confidences to fractions.
func words(boxes []gosseract.BoundingBox) []legend.Word {
	out := make([]legend.Word, len(boxes))
	for i, b := range boxes {
		out[i] = legend.Word{Text: b.Word, Confidence: b.Confidence / 100}
	}
	return out
}
