package imaging

import (
	"image"
	"sync"

	"github.com/golang/groupcache/lru"
)

// DefaultCachePixels is the default cache budget: about 32 megapixels, a
// handful of full-size street photos.
const DefaultCachePixels = 32 << 20

// ImageCache keeps recently used decoded images keyed by path, bounded by a
// total pixel budget. When an insert pushes the total over budget the least
// recently used images are evicted first. An image larger than the whole
// budget is returned but never cached.
//
// Cached images are shared and must be treated as read-only. ImageCache is
// safe for concurrent use.
type ImageCache struct {
	mu        sync.Mutex
	entries   *lru.Cache
	pixels    int
	maxPixels int
}

// NewImageCache returns an empty cache holding at most maxPixels pixels.
// maxPixels <= 0 selects DefaultCachePixels.
func NewImageCache(maxPixels int) *ImageCache {
	if maxPixels <= 0 {
		maxPixels = DefaultCachePixels
	}
	c := &ImageCache{
		entries:   lru.New(0),
		maxPixels: maxPixels,
	}
	c.entries.OnEvicted = func(_ lru.Key, value interface{}) {
		c.pixels -= pixelCount(value.(image.Image))
	}
	return c
}

func pixelCount(img image.Image) int {
	return img.Bounds().Dx() * img.Bounds().Dy()
}

// Load returns the cached image for path, decoding and caching it on a miss.
// Paths are compared as given; a relative and an absolute path to the same
// file are separate entries.
func (c *ImageCache) Load(path string) (image.Image, error) {
	if img, ok := c.get(path); ok {
		return img, nil
	}

	img, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}
	return c.add(path, img), nil
}

// Peek returns the cached image for path, or decodes it without caching.
// Batch work uses it so one pass over a directory of photos does not flush
// the images interactive tools are working on.
func (c *ImageCache) Peek(path string) (image.Image, error) {
	if img, ok := c.get(path); ok {
		return img, nil
	}
	return DecodeFile(path)
}

func (c *ImageCache) get(path string) (image.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries.Get(path)
	if !ok {
		return nil, false
	}
	return v.(image.Image), true
}

// add caches img unless a concurrent Load got there first, in which case the
// cached image wins.
func (c *ImageCache) add(path string, img image.Image) image.Image {
	n := pixelCount(img)
	if n > c.maxPixels {
		return img
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.entries.Get(path); ok {
		return v.(image.Image)
	}
	c.entries.Add(path, img)
	c.pixels += n
	for c.pixels > c.maxPixels {
		c.entries.RemoveOldest()
	}
	return img
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Pixels returns the total pixel count of the cached images.
func (c *ImageCache) Pixels() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pixels
}
