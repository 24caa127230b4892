package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ironsheep/sign-tools-mcp/internal/classifier"
	"github.com/ironsheep/sign-tools-mcp/internal/features"
	"github.com/ironsheep/sign-tools-mcp/internal/legend"
)

var (
	signRed  = color.RGBA{220, 20, 20, 255}
	signBlue = color.RGBA{20, 80, 200, 255}
)

// createScene returns a white 100×100 image with filled disks drawn on it.
func createScene(disks ...disk) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.White)
			for _, d := range disks {
				dx, dy := x-d.x, y-d.y
				if dx*dx+dy*dy <= d.r*d.r {
					img.Set(x, y, d.c)
				}
			}
		}
	}
	return img
}

type disk struct {
	x, y, r int
	c       color.Color
}

// signCrop returns a 2r×2r white image with a disk of radius r filling it,
// framed the way CropSquare frames a live candidate.
func signCrop(r int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2*r, 2*r))
	for y := 0; y < 2*r; y++ {
		for x := 0; x < 2*r; x++ {
			dx, dy := x-r, y-r
			if dx*dx+dy*dy <= r*r {
				img.Set(x, y, c)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

// testModel trains a two-label model on a red disk and a blue bar.
func testModel(t *testing.T, cfg features.Config) *classifier.Model {
	t.Helper()
	stop := signCrop(40, signRed)
	bar := image.NewRGBA(image.Rect(0, 0, 60, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			if x >= 22 && x < 38 {
				bar.Set(x, y, signBlue)
			} else {
				bar.Set(x, y, color.White)
			}
		}
	}

	model, err := classifier.Fit([]classifier.Example{
		{Label: "stop", Vector: features.Encode(stop, cfg)},
		{Label: "keep_right", Vector: features.Encode(bar, cfg)},
	}, cfg, classifier.DefaultParams())
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	return model
}

func newTestDetector(t *testing.T, opts ...Option) *Detector {
	t.Helper()
	cfg := DefaultConfig()
	d, err := NewDetector(cfg, testModel(t, cfg.Descriptor), opts...)
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}
	return d
}

func TestDetect_RedDiskOnly(t *testing.T) {
	d := newTestDetector(t)

	dets, err := d.Detect(createScene(disk{50, 50, 18, signRed}))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(dets) != 1 {
		t.Fatalf("got %d detections, want 1: %+v", len(dets), dets)
	}

	det := dets[0]
	if det.Circle.Class != "red" {
		t.Errorf("detection came from class %q, want red", det.Circle.Class)
	}
	if abs(det.Circle.X-50) > 1 || abs(det.Circle.Y-50) > 1 || abs(det.Circle.Radius-18) > 1 {
		t.Errorf("circle %+v, want about (50,50,18)", det.Circle)
	}
	if det.Label != "stop" {
		t.Errorf("label %q, want stop", det.Label)
	}
	if det.Confidence <= 0.5 || det.Confidence > 1 {
		t.Errorf("confidence %g outside (0.5,1]", det.Confidence)
	}
	if det.Legend != nil {
		t.Errorf("legend set without a reader: %+v", det.Legend)
	}
}

func TestDetect_ClassOrder(t *testing.T) {
	d := newTestDetector(t)

	dets, err := d.Detect(createScene(disk{25, 50, 15, signBlue}, disk{72, 50, 15, signRed}))
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	classes := make([]string, len(dets))
	for i, det := range dets {
		classes[i] = det.Circle.Class
	}
	if diff := cmp.Diff([]string{"red", "blue"}, classes); diff != "" {
		t.Errorf("detection classes (-want +got):\n%s", diff)
	}
}

func TestDetect_EmptyScene(t *testing.T) {
	d := newTestDetector(t)
	dets, err := d.Detect(createScene())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if dets == nil || len(dets) != 0 {
		t.Errorf("got %v, want empty non-nil slice", dets)
	}
}

func TestDetect_NoModel(t *testing.T) {
	d, err := NewDetector(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}
	if _, err := d.Detect(createScene()); !errors.Is(err, ErrNoModel) {
		t.Errorf("error = %v, want ErrNoModel", err)
	}
}

func TestAnalyze(t *testing.T) {
	cfg := DefaultConfig()
	d, err := NewDetector(cfg, nil)
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}

	results := d.Analyze(createScene(disk{50, 50, 18, signRed}))
	if len(results) != 2 {
		t.Fatalf("got %d class results, want 2", len(results))
	}

	red, blue := results[0], results[1]
	if red.Class != "red" || blue.Class != "blue" {
		t.Fatalf("class order %q, %q", red.Class, blue.Class)
	}
	if red.Pixels == 0 || len(red.Regions) != 1 || len(red.Circles) != 1 {
		t.Errorf("red: %d pixels, %d regions, %d circles; want >0, 1, 1",
			red.Pixels, len(red.Regions), len(red.Circles))
	}
	if blue.Pixels != 0 || len(blue.Regions) != 0 || len(blue.Circles) != 0 {
		t.Errorf("blue should be empty: %+v", blue)
	}
}

type fakeReader struct {
	l   legend.Legend
	err error
}

func (f fakeReader) ReadLegend(image.Image) (legend.Legend, error) {
	return f.l, f.err
}

func TestDetect_Legend(t *testing.T) {
	scene := createScene(disk{50, 50, 18, signRed})

	tests := []struct {
		name   string
		reader legend.Reader
		want   *legend.Legend
	}{
		{"read", fakeReader{l: legend.Legend{Text: "50", Confidence: 0.9}}, &legend.Legend{Text: "50", Confidence: 0.9}},
		{"nothing legible", fakeReader{}, nil},
		{"reader error", fakeReader{err: errors.New("tesseract missing")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDetector(t, WithLegendReader(tt.reader))
			dets, err := d.Detect(scene)
			if err != nil {
				t.Fatalf("Detect failed: %v", err)
			}
			if len(dets) != 1 {
				t.Fatalf("got %d detections, want 1", len(dets))
			}
			if diff := cmp.Diff(tt.want, dets[0].Legend); diff != "" {
				t.Errorf("legend (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDetectBatch(t *testing.T) {
	d := newTestDetector(t)
	imgs := []image.Image{
		createScene(disk{50, 50, 18, signRed}),
		createScene(),
		createScene(disk{40, 60, 20, signBlue}),
		createScene(disk{50, 50, 18, signRed}),
	}

	results, err := d.DetectBatch(context.Background(), imgs, 2)
	if err != nil {
		t.Fatalf("DetectBatch failed: %v", err)
	}
	if len(results) != len(imgs) {
		t.Fatalf("got %d results, want %d", len(results), len(imgs))
	}

	counts := []int{len(results[0]), len(results[1]), len(results[2]), len(results[3])}
	if diff := cmp.Diff([]int{1, 0, 1, 1}, counts); diff != "" {
		t.Errorf("detections per image (-want +got):\n%s", diff)
	}
	if results[2][0].Circle.Class != "blue" {
		t.Errorf("image 2 class %q, want blue", results[2][0].Circle.Class)
	}

	// Sequential and parallel runs agree.
	for i, img := range imgs {
		want, err := d.Detect(img)
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}
		if diff := cmp.Diff(want, results[i]); diff != "" {
			t.Errorf("image %d differs from sequential run:\n%s", i, diff)
		}
	}
}

func TestDetectBatch_Errors(t *testing.T) {
	d, err := NewDetector(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}
	if _, err := d.DetectBatch(context.Background(), []image.Image{createScene()}, 0); !errors.Is(err, ErrNoModel) {
		t.Errorf("error = %v, want ErrNoModel", err)
	}

	d = newTestDetector(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.DetectBatch(ctx, []image.Image{createScene(), createScene()}, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestSwapModel(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	d := newTestDetector(t, WithLogger(zap.New(core)))
	first := d.Model()

	second := testModel(t, d.Config().Descriptor)
	if err := d.SwapModel(second); err != nil {
		t.Fatalf("SwapModel failed: %v", err)
	}
	if d.Model() != second || d.Model() == first {
		t.Error("SwapModel did not install the new model")
	}
	if n := logs.FilterMessage("classifier model installed").Len(); n != 2 {
		t.Errorf("logged %d installs, want 2", n)
	}

	other := features.DefaultConfig()
	other.Orientations = 9
	if err := d.SwapModel(testModel(t, other)); !errors.Is(err, classifier.ErrModelConfigMismatch) {
		t.Errorf("error = %v, want ErrModelConfigMismatch", err)
	}
	if d.Model() != second {
		t.Error("rejected model replaced the current one")
	}
	if err := d.SwapModel(nil); !errors.Is(err, ErrNoModel) {
		t.Errorf("error = %v, want ErrNoModel", err)
	}
}

func TestSwapModel_ConcurrentDetect(t *testing.T) {
	d := newTestDetector(t)
	scene := createScene(disk{50, 50, 18, signRed})
	models := []*classifier.Model{testModel(t, d.Config().Descriptor), testModel(t, d.Config().Descriptor)}

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		i := i
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := d.Detect(scene); err != nil {
				errs <- err
			}
		}()
		go func() {
			defer wg.Done()
			if err := d.SwapModel(models[i%2]); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent error: %v", err)
	}
}

func TestNewDetector_Invalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Classes = nil
	if _, err := NewDetector(cfg, nil); err == nil {
		t.Error("expected error for config without classes")
	}

	cfg = DefaultConfig()
	model := testModel(t, cfg.Descriptor)
	cfg.Descriptor.CellSize = 4
	if _, err := NewDetector(cfg, model); !errors.Is(err, classifier.ErrModelConfigMismatch) {
		t.Errorf("error = %v, want ErrModelConfigMismatch", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Classes = append(cfg.Classes, cfg.Classes[0])
	cfg.Hough.RadiusMin = 0
	cfg.Descriptor.BlockNorm = "none"

	err := cfg.Validate()
	if got := len(multierr.Errors(err)); got != 3 {
		t.Errorf("got %d errors, want 3: %v", got, err)
	}
	if !strings.Contains(err.Error(), "duplicate color class") {
		t.Errorf("missing duplicate class error: %v", err)
	}
}

func TestConfig_CopiedIntoDetector(t *testing.T) {
	cfg := DefaultConfig()
	d, err := NewDetector(cfg, nil)
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}
	cfg.Classes[0].Name = "mutated"
	got := d.Config()
	got.Classes[1].Name = "mutated"

	if diff := cmp.Diff(DefaultConfig(), d.Config()); diff != "" {
		t.Errorf("detector config changed (-want +got):\n%s", diff)
	}
	if _, ok := d.Config().Class("red"); !ok {
		t.Error("Class(red) not found")
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("partial override", func(t *testing.T) {
		cfg, err := LoadConfig(write("partial.json", `{"hough":{"radius_max":40}}`))
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		want := DefaultConfig()
		want.Hough.RadiusMax = 40
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Errorf("config (-want +got):\n%s", diff)
		}
	})

	t.Run("classes replaced", func(t *testing.T) {
		cfg, err := LoadConfig(write("classes.json",
			`{"classes":[{"name":"yellow","hue_min":0.1,"hue_max":0.2,"min_saturation":0.5,"min_area":32,"closing_radius":2}]}`))
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if len(cfg.Classes) != 1 || cfg.Classes[0].Name != "yellow" || cfg.Classes[0].MinArea != 32 {
			t.Errorf("classes = %+v", cfg.Classes)
		}
		if cfg.Descriptor != features.DefaultConfig() {
			t.Errorf("descriptor changed: %v", cfg.Descriptor)
		}
	})

	t.Run("unknown field", func(t *testing.T) {
		if _, err := LoadConfig(write("unknown.json", `{"houg":{}}`)); err == nil {
			t.Error("expected error for unknown field")
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := LoadConfig(write("invalid.json", `{"classes":[],"descriptor":{"cell_size":0}}`))
		if err == nil || !strings.Contains(err.Error(), "invalid config") {
			t.Errorf("error = %v, want invalid config", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(dir, "missing.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
