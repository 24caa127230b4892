package training

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/samber/lo"

	"github.com/ironsheep/sign-tools-mcp/internal/classifier"
	"github.com/ironsheep/sign-tools-mcp/internal/features"
	signimaging "github.com/ironsheep/sign-tools-mcp/internal/imaging"
)

// shape draws a 64×64 exemplar: white ink on a transparent background.
func shape(inside func(dx, dy int) bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if inside(x-32, y-32) {
				img.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
			}
		}
	}
	return img
}

var (
	disk = shape(func(dx, dy int) bool { return dx*dx+dy*dy <= 28*28 })
	ring = shape(func(dx, dy int) bool { d := dx*dx + dy*dy; return d <= 28*28 && d >= 20*20 })
	bar  = shape(func(dx, dy int) bool { return dx >= -6 && dx <= 6 && dy >= -26 && dy <= 26 })
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
}

func exemplarDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "stop.png"), disk)
	writePNG(t, filepath.Join(dir, "no_entry.png"), ring)
	writePNG(t, filepath.Join(dir, "keep_right.png"), bar)
	if err := os.WriteFile(filepath.Join(dir, "README.txt"), []byte("not an exemplar"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.png"), 0o755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadExemplars(t *testing.T) {
	exemplars, err := LoadExemplars(exemplarDir(t))
	if err != nil {
		t.Fatalf("LoadExemplars failed: %v", err)
	}

	labels := lo.Map(exemplars, func(e Exemplar, _ int) string { return e.Label })
	if diff := cmp.Diff([]string{"keep_right", "no_entry", "stop"}, labels); diff != "" {
		t.Errorf("labels (-want +got):\n%s", diff)
	}
	for _, e := range exemplars {
		if e.Image.Bounds().Dx() != 64 {
			t.Errorf("%s: width %d, want 64", e.Label, e.Image.Bounds().Dx())
		}
	}
}

func TestLoadExemplars_Errors(t *testing.T) {
	t.Run("empty dir", func(t *testing.T) {
		if _, err := LoadExemplars(t.TempDir()); !errors.Is(err, ErrNoExemplars) {
			t.Errorf("error = %v, want ErrNoExemplars", err)
		}
	})

	t.Run("missing dir", func(t *testing.T) {
		if _, err := LoadExemplars(filepath.Join(t.TempDir(), "missing")); err == nil {
			t.Error("expected error for missing directory")
		}
	})

	t.Run("corrupt image", func(t *testing.T) {
		dir := t.TempDir()
		writePNG(t, filepath.Join(dir, "a.png"), disk)
		if err := os.WriteFile(filepath.Join(dir, "b.png"), []byte("garbage"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadExemplars(dir); !errors.Is(err, signimaging.ErrImageDecode) {
			t.Errorf("error = %v, want ErrImageDecode", err)
		}
	})
}

func TestFlatten(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 0})
	img.SetNRGBA(1, 0, color.NRGBA{255, 0, 0, 255})
	img.SetNRGBA(2, 0, color.NRGBA{200, 100, 50, 128})

	flat := Flatten(img)

	want := []color.NRGBA{
		{0, 0, 0, 255},
		{255, 0, 0, 255},
		{100, 50, 25, 255},
	}
	for x, w := range want {
		got := flat.NRGBAAt(x, 0)
		if got.A != 255 || absDiff(got.R, w.R) > 1 || absDiff(got.G, w.G) > 1 || absDiff(got.B, w.B) > 1 {
			t.Errorf("pixel %d = %v, want about %v", x, got, w)
		}
	}
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func TestBuild(t *testing.T) {
	cfg := features.DefaultConfig()
	exemplars := []Exemplar{{Label: "stop", Image: disk}, {Label: "keep_right", Image: bar}}

	examples := Build(exemplars, cfg)
	if len(examples) != 2 {
		t.Fatalf("got %d examples, want 2", len(examples))
	}
	for i, ex := range examples {
		if ex.Label != exemplars[i].Label {
			t.Errorf("example %d label %q, want %q", i, ex.Label, exemplars[i].Label)
		}
		if len(ex.Vector) != cfg.Length() {
			t.Errorf("example %d length %d, want %d", i, len(ex.Vector), cfg.Length())
		}
	}

	// Transparent pixels encode like black ones.
	opaque := image.NewNRGBA(disk.Bounds())
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			c := disk.NRGBAAt(x, y)
			opaque.SetNRGBA(x, y, color.NRGBA{c.A, c.A, c.A, 255})
		}
	}
	if diff := cmp.Diff(features.Encode(opaque, cfg), examples[0].Vector); diff != "" {
		t.Errorf("flattened encoding differs:\n%s", diff)
	}
}

func TestTrainDir(t *testing.T) {
	cfg := features.DefaultConfig()
	dir := exemplarDir(t)

	model, err := TrainDir(dir, cfg, classifier.DefaultParams())
	if err != nil {
		t.Fatalf("TrainDir failed: %v", err)
	}
	if model.Descriptor() != cfg {
		t.Errorf("descriptor = %v, want %v", model.Descriptor(), cfg)
	}
	if diff := cmp.Diff([]string{"keep_right", "no_entry", "stop"}, model.Labels()); diff != "" {
		t.Errorf("labels (-want +got):\n%s", diff)
	}

	for label, img := range map[string]image.Image{"stop": disk, "no_entry": ring, "keep_right": bar} {
		got, conf, err := model.Classify(features.Encode(Flatten(img), cfg))
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if got != label {
			t.Errorf("exemplar %s classified as %s (confidence %g)", label, got, conf)
		}
	}
}

func TestTrain_Errors(t *testing.T) {
	if _, err := Train(nil, features.DefaultConfig(), classifier.DefaultParams()); !errors.Is(err, ErrNoExemplars) {
		t.Errorf("error = %v, want ErrNoExemplars", err)
	}
	if _, err := Train([]Exemplar{{Label: "a", Image: disk}}, features.Config{}, classifier.DefaultParams()); err == nil {
		t.Error("expected error for invalid config")
	}
}
