// Package imaging provides the image I/O and pixel plumbing shared by the
// sign detection pipeline and the MCP server.
//
// This package covers loading and caching decoded images, square candidate
// crops around detected circles, and drawing detection overlays. The crop and
// pixel operations are built on github.com/disintegration/imaging and
// github.com/anthonynsimon/bild; decoders for BMP, TIFF and WebP come from
// golang.org/x/image.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based and relative to the
// image's top-left pixel, regardless of the image's Bounds().Min:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// # Crop Bounds Policy
//
// CropSquare never silently shrinks a crop. A square that overhangs the image
// by less than its radius is completed by replicating edge pixels; a square
// that overhangs further is dropped.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. It is a least-recently-used
// cache bounded by total pixel count; Peek reads through it without inserting. Cached images are shared and
// must be treated as read-only. Crop and overlay functions never modify their
// input and can be called concurrently.
//
// # Error Handling
//
// Files that exist but cannot be decoded produce errors wrapping
// ErrImageDecode, so callers can tell a corrupt or unsupported input apart
// from a missing file with errors.Is.
package imaging
