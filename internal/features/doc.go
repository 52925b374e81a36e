// Package features turns audio windows into the fixed-shape log-mel
// spectrogram features spectrogram-input models expect.
//
// Extraction is deterministic: the same window and config always produce the
// same flattened feature vector, which keeps embedding artifacts reproducible
// across re-runs.
package features
