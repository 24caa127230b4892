package training

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/sign-tools-mcp/internal/classifier"
	"github.com/ironsheep/sign-tools-mcp/internal/features"
	signimaging "github.com/ironsheep/sign-tools-mcp/internal/imaging"
)

// ErrNoExemplars is returned when a directory holds no supported images.
var ErrNoExemplars = errors.New("no exemplar images found")

// Exemplar is one labeled training image.
type Exemplar struct {
	Label string
	Path  string
	Image image.Image
}

// exemplarExts lists the extensions LoadExemplars picks up.
var exemplarExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// LoadExemplars decodes every supported image directly inside dir, sorted by
// file name. Subdirectories and other files are skipped. A file that cannot
// be decoded aborts the load with an error wrapping imaging.ErrImageDecode.
func LoadExemplars(dir string) ([]Exemplar, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read exemplar directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !exemplarExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		names = append(names, e.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoExemplars)
	}
	sort.Strings(names)

	exemplars := make([]Exemplar, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		img, err := decodeFile(path)
		if err != nil {
			return nil, err
		}
		exemplars = append(exemplars, Exemplar{
			Label: strings.TrimSuffix(name, filepath.Ext(name)),
			Path:  path,
			Image: img,
		})
	}
	return exemplars, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open exemplar: %w", err)
	}
	defer f.Close()

	img, _, err := signimaging.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("exemplar %s: %w", path, err)
	}
	return img, nil
}

// Flatten composites img over an opaque black background of the same size.
func Flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	background := imaging.New(b.Dx(), b.Dy(), color.Black)
	return imaging.Overlay(background, img, image.Point{}, 1.0)
}

// Build flattens and encodes every exemplar, preserving order.
func Build(exemplars []Exemplar, cfg features.Config) []classifier.Example {
	examples := make([]classifier.Example, len(exemplars))
	for i, ex := range exemplars {
		examples[i] = classifier.Example{
			Label:  ex.Label,
			Vector: features.Encode(Flatten(ex.Image), cfg),
		}
	}
	return examples
}

// Train encodes exemplars and fits a model that records cfg.
func Train(exemplars []Exemplar, cfg features.Config, params classifier.Params) (*classifier.Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid descriptor config: %w", err)
	}
	if len(exemplars) == 0 {
		return nil, ErrNoExemplars
	}
	model, err := classifier.Fit(Build(exemplars, cfg), cfg, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fit model: %w", err)
	}
	return model, nil
}

// TrainDir loads the exemplars in dir and trains on them.
func TrainDir(dir string, cfg features.Config, params classifier.Params) (*classifier.Model, error) {
	exemplars, err := LoadExemplars(dir)
	if err != nil {
		return nil, err
	}
	return Train(exemplars, cfg, params)
}
