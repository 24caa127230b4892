// Package training builds classifier models from a directory of exemplar
// images.
//
// The directory holds one canonical image per sign; the file name without its
// extension is the label ("stop.png" trains the label "stop"). Exemplars are
// flattened over a black background, so transparent sign cut-outs and opaque
// photos encode alike, then passed through features.Encode, the same encoder
// used on live crops.
//
// Training runs offline, ahead of detection. Its only output is the
// classifier.Model it returns (or writes with Model.SaveFile).
package training
