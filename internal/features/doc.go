// Package features turns candidate sign crops into fixed-length
// histogram-of-oriented-gradients (HOG) descriptors.
//
// A descriptor is produced in three steps:
//  1. The square around a detection.Circle is cropped (see imaging.CropSquare
//     for the bounds policy).
//  2. The crop is resized to Config.CanonicalSize² with bilinear resampling
//     and converted to grayscale intensities in [0,1].
//  3. HOG encodes the intensities with the Config's orientation bins, cell
//     size, block size and block normalization.
//
// # Length
//
// The descriptor length depends only on the Config, never on the input:
//
//	nb     = CanonicalSize/CellSize - BlockSize + 1
//	length = nb² × BlockSize² × Orientations
//
// The default configuration (48px, 8 orientations, 3px cells, 1-cell blocks,
// L2-Hys) produces 2048 values.
//
// # Determinism
//
// Every step is single-threaded arithmetic over the input pixels, so encoding
// the same crop with the same Config twice yields bit-identical vectors.
package features
