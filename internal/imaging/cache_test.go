package imaging

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// writeFrames writes n 10×10 PNGs (100 pixels each) and returns their paths.
func writeFrames(t *testing.T, n int) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, n)
	for i := range paths {
		paths[i] = writeTestImage(t, dir, "frame"+string(rune('a'+i))+".png", solid(10, 10, color.Gray{uint8(20 * i)}))
	}
	return paths
}

func TestImageCache_LoadReturnsCachedImage(t *testing.T) {
	cache := NewImageCache(0)
	path := writeFrames(t, 1)[0]

	first, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	second, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load after removal should hit the cache: %v", err)
	}
	if first != second {
		t.Error("second Load did not return the cached image")
	}
	if cache.Len() != 1 || cache.Pixels() != 100 {
		t.Errorf("cache holds %d images / %d pixels, want 1 / 100", cache.Len(), cache.Pixels())
	}
}

func TestImageCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewImageCache(300)
	paths := writeFrames(t, 4)

	for _, p := range paths[:3] {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}
	// Touch a so that b becomes the oldest entry.
	if _, err := cache.Load(paths[0]); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Load(paths[3]); err != nil {
		t.Fatal(err)
	}

	if cache.Len() != 3 || cache.Pixels() != 300 {
		t.Fatalf("cache holds %d images / %d pixels, want 3 / 300", cache.Len(), cache.Pixels())
	}

	// b was evicted: once its file is gone it can no longer load.
	if err := os.Remove(paths[1]); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Load(paths[1]); err == nil {
		t.Error("least recently used image was not evicted")
	}
	for _, p := range []string{paths[0], paths[2], paths[3]} {
		if err := os.Remove(p); err != nil {
			t.Fatal(err)
		}
		if _, err := cache.Load(p); err != nil {
			t.Errorf("%s should still be cached: %v", filepath.Base(p), err)
		}
	}
}

func TestImageCache_StaysWithinBudget(t *testing.T) {
	cache := NewImageCache(250)
	for _, p := range writeFrames(t, 8) {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if cache.Pixels() > 250 {
			t.Fatalf("cache grew to %d pixels, budget 250", cache.Pixels())
		}
	}
	if cache.Len() != 2 {
		t.Errorf("cache holds %d images, want 2", cache.Len())
	}
}

func TestImageCache_OversizedImageNotCached(t *testing.T) {
	cache := NewImageCache(50)
	path := writeFrames(t, 1)[0]

	img, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img.Bounds().Dx() != 10 {
		t.Errorf("width %d, want 10", img.Bounds().Dx())
	}
	if cache.Len() != 0 || cache.Pixels() != 0 {
		t.Errorf("oversized image cached: %d images / %d pixels", cache.Len(), cache.Pixels())
	}
}

func TestImageCache_PeekDoesNotInsert(t *testing.T) {
	cache := NewImageCache(0)
	paths := writeFrames(t, 2)

	if _, err := cache.Peek(paths[0]); err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("Peek cached %d images, want 0", cache.Len())
	}

	cached, err := cache.Load(paths[1])
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	peeked, err := cache.Peek(paths[1])
	if err != nil {
		t.Fatalf("Peek failed: %v", err)
	}
	if peeked != cached {
		t.Error("Peek did not return the cached image")
	}
}

func TestImageCache_DecodeErrors(t *testing.T) {
	cache := NewImageCache(0)
	corrupt := filepath.Join(t.TempDir(), "corrupt.png")
	if err := os.WriteFile(corrupt, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := cache.Load(corrupt); !errors.Is(err, ErrImageDecode) {
		t.Errorf("Load error %v does not wrap ErrImageDecode", err)
	}
	if _, err := cache.Peek(corrupt); !errors.Is(err, ErrImageDecode) {
		t.Errorf("Peek error %v does not wrap ErrImageDecode", err)
	}
	if cache.Len() != 0 {
		t.Errorf("failed loads cached %d images", cache.Len())
	}
}

func TestImageCache_ConcurrentLoads(t *testing.T) {
	cache := NewImageCache(0)
	paths := writeFrames(t, 3)

	var wg sync.WaitGroup
	errs := make(chan error, 90)
	for i := 0; i < 90; i++ {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			if _, err := cache.Load(p); err != nil {
				errs <- err
			}
		}(paths[i%3])
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
	if cache.Len() != 3 || cache.Pixels() != 300 {
		t.Errorf("cache holds %d images / %d pixels, want 3 / 300", cache.Len(), cache.Pixels())
	}
}
