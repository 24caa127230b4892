// Package legend reads the printed legend of a detected sign, such as the
// number on a speed-limit disc.
//
// Legend reading is optional decoration on top of classification: the
// pipeline calls a Reader only when one is configured, and a failed read never
// fails a detection.
//
// This package holds the engine-neutral parts and does not use cgo. The
// Tesseract-backed Reader lives in the tesseract subpackage.
//
// # Preprocessing
//
// Sign crops are small. Before recognition the central part of the crop (the
// area inside the colored rim) is cut out, converted to grayscale, contrast
// stretched and upscaled to a fixed height. Pick then keeps the most confident
// recognized word made of whitelisted characters.
package legend
