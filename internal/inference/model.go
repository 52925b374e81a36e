package inference

import "context"

// Model turns batches of input windows into embedding vectors.
//
// Implementations must preserve batch order, return exactly one VectorDim-
// wide vector per input, and be deterministic for deterministic inputs. A
// window is either a raw waveform or a flattened spectrogram depending on
// the model's registered input format; the model does not distinguish.
type Model interface {
	VectorDim() int
	Embed(ctx context.Context, batch [][]float32) ([][]float32, error)
}
