package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/sign-tools-mcp/internal/classifier"
	"github.com/ironsheep/sign-tools-mcp/internal/detection"
	"github.com/ironsheep/sign-tools-mcp/internal/features"
	"github.com/ironsheep/sign-tools-mcp/internal/imaging"
	"github.com/ironsheep/sign-tools-mcp/internal/legend"
	"github.com/ironsheep/sign-tools-mcp/internal/segment"
)

// ErrNoModel is returned by Detect when no classifier model is loaded.
var ErrNoModel = errors.New("no classifier model loaded")

// Detection is one classified sign.
type Detection struct {
	Circle     detection.Circle `json:"circle"`
	Label      string           `json:"label"`
	Confidence float64          `json:"confidence"`

	// Legend is set only when a legend reader is configured and read text.
	Legend *legend.Legend `json:"legend,omitempty"`
}

// ClassResult is the model-free part of the pipeline for one color class.
type ClassResult struct {
	Class   string             `json:"class"`
	Pixels  int                `json:"pixels"`
	Regions []segment.Region   `json:"regions"`
	Circles []detection.Circle `json:"circles"`
}

// Detector runs the detection pipeline. It is safe for concurrent use.
type Detector struct {
	cfg    Config
	model  atomic.Pointer[classifier.Model]
	reader legend.Reader
	logger *zap.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the logger used for debug tracing. The default discards
// everything.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithLegendReader enables legend reading on every detection.
func WithLegendReader(r legend.Reader) Option {
	return func(d *Detector) {
		d.reader = r
	}
}

// NewDetector validates cfg and returns a Detector. model may be nil, in which
// case Detect fails with ErrNoModel until SwapModel installs one.
func NewDetector(cfg Config, model *classifier.Model, opts ...Option) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	d := &Detector{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	d.cfg.Classes = append([]segment.ColorClass(nil), cfg.Classes...)
	for _, opt := range opts {
		opt(d)
	}

	if model != nil {
		if err := d.SwapModel(model); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Config returns a copy of the detector configuration.
func (d *Detector) Config() Config {
	cfg := d.cfg
	cfg.Classes = append([]segment.ColorClass(nil), d.cfg.Classes...)
	return cfg
}

// Model returns the current model, or nil.
func (d *Detector) Model() *classifier.Model {
	return d.model.Load()
}

// SwapModel installs m for images started from now on. Images already in
// flight finish with the model they started with.
func (d *Detector) SwapModel(m *classifier.Model) error {
	if m == nil {
		return ErrNoModel
	}
	if m.Descriptor() != d.cfg.Descriptor {
		return fmt.Errorf("%w: model has %v, detector %v",
			classifier.ErrModelConfigMismatch, m.Descriptor(), d.cfg.Descriptor)
	}
	old := d.model.Swap(m)
	d.logger.Info("classifier model installed",
		zap.Strings("labels", m.Labels()),
		zap.Int("support_vectors", m.SupportVectors()),
		zap.Bool("replaced", old != nil))
	return nil
}

// locate segments, cleans and searches one class.
func (d *Detector) locate(hsv *segment.HSVImage, class segment.ColorClass) (*segment.Mask, []detection.Circle) {
	mask := segment.Clean(segment.SegmentHSV(hsv, class), class.MinArea, class.ClosingRadius)
	circles := detection.FindCircles(mask, d.cfg.Hough, class.Name)
	d.logger.Debug("class localized",
		zap.String("class", class.Name),
		zap.Int("pixels", mask.Count()),
		zap.Int("candidates", len(circles)))
	return mask, circles
}

// Analyze runs segmentation and circle search for every class without
// classifying. It does not need a model.
func (d *Detector) Analyze(img image.Image) []ClassResult {
	hsv := segment.ToHSV(img)
	results := make([]ClassResult, 0, len(d.cfg.Classes))
	for _, class := range d.cfg.Classes {
		mask, circles := d.locate(hsv, class)
		results = append(results, ClassResult{
			Class:   class.Name,
			Pixels:  mask.Count(),
			Regions: segment.Label(mask),
			Circles: circles,
		})
	}
	return results
}

// Detect runs the full pipeline on one image.
//
// Candidates too close to the image edge to crop are skipped. A descriptor
// whose length does not match the model aborts the image with
// classifier.ErrFeatureDimensionMismatch.
func (d *Detector) Detect(img image.Image) ([]Detection, error) {
	model := d.model.Load()
	if model == nil {
		return nil, ErrNoModel
	}

	hsv := segment.ToHSV(img)
	detections := make([]Detection, 0)
	for _, class := range d.cfg.Classes {
		_, circles := d.locate(hsv, class)
		for _, c := range circles {
			vec, ok := features.Extract(img, c, d.cfg.Descriptor)
			if !ok {
				d.logger.Debug("candidate dropped at image edge",
					zap.String("class", class.Name),
					zap.Int("x", c.X), zap.Int("y", c.Y), zap.Int("radius", c.Radius))
				continue
			}

			label, confidence, err := model.Classify(vec)
			if err != nil {
				return nil, fmt.Errorf("class %s at (%d,%d): %w", class.Name, c.X, c.Y, err)
			}

			det := Detection{Circle: c, Label: label, Confidence: confidence}
			if d.reader != nil {
				det.Legend = d.readLegend(img, c)
			}
			detections = append(detections, det)
		}
	}
	return detections, nil
}

// readLegend returns nil when nothing legible was read.
func (d *Detector) readLegend(img image.Image, c detection.Circle) *legend.Legend {
	crop, ok := imaging.CropSquare(img, c.X, c.Y, c.Radius)
	if !ok {
		return nil
	}
	l, err := d.reader.ReadLegend(crop)
	if err != nil {
		d.logger.Debug("legend read failed", zap.Error(err))
		return nil
	}
	if l.Text == "" {
		return nil
	}
	return &l
}

// DetectBatch runs Detect over imgs with at most workers images in flight
// (GOMAXPROCS when workers < 1). Results are indexed like imgs. The first
// failure cancels images not yet started and is returned.
func (d *Detector) DetectBatch(ctx context.Context, imgs []image.Image, workers int) ([][]Detection, error) {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([][]Detection, len(imgs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, img := range imgs {
		i, img := i, img
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			dets, err := d.Detect(img)
			if err != nil {
				return fmt.Errorf("image %d: %w", i, err)
			}
			results[i] = dets
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
