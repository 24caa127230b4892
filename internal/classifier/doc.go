// Package classifier maps HOG descriptors to sign labels with a multi-class
// support-vector machine.
//
// Training (Fit) builds one binary C-SVC machine with an RBF kernel for every
// pair of labels and solves each with sequential minimal optimization. At
// prediction time every machine votes; the label with the most votes wins,
// ties going to the larger summed margin and then to the earlier label.
//
// A Model records the features.Config its training vectors were produced with.
// Classify rejects vectors of any other length, and Load rejects a persisted
// model whose recorded configuration differs from the caller's, so a model is
// never applied to descriptors it was not trained on.
//
// Models are immutable once built or loaded and are safe for concurrent use.
// Retraining produces a new Model; see pipeline.Detector.SwapModel.
//
// # Limitations
//
// The classifier is trained on positive exemplars only and always answers with
// one of its training labels. There is no "not a sign" outcome; a low
// confidence is the only hint that a candidate matched nothing well.
package classifier
