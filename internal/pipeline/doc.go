// Package pipeline wires the detection stages into a Detector.
//
// For every image the Detector converts to HSV once and then, for each
// configured color class in order, runs
//
//	segment -> clean -> find circles -> extract descriptor -> classify
//
// producing Detection records ordered by color class and then by circle rank.
// All stages are pure functions of the image and the immutable Config, so any
// number of images can be processed in parallel (see DetectBatch).
//
// # Models
//
// The classifier model lives behind an atomic pointer. Detect reads it once
// per image, so a concurrent SwapModel only affects images started after the
// swap. SwapModel refuses models trained with a descriptor configuration
// other than the Detector's.
//
// # Configuration
//
// Config gathers every tunable value: the ordered color classes, the circle
// search and the descriptor. DefaultConfig returns the stock red and blue
// classes; LoadConfig overlays a JSON file on those defaults.
package pipeline
