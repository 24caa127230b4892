// Package tesseract implements legend.Reader on top of the Tesseract OCR
// engine through gosseract/v2.
//
// gosseract links against libtesseract, so the real reader is only compiled
// with cgo enabled. Without cgo, NewReader returns a Reader whose ReadLegend
// fails with ErrUnavailable; the detection pipeline treats that like any other
// failed read and keeps the detection.
//
// # Prerequisites
//
// Tesseract and the language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
package tesseract
