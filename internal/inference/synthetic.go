package inference

import (
	"context"
	"fmt"
	"math"
)

// Synthetic embeds windows without any external model. Each vector is a
// sine ramp seeded from the window's leading content, so identical windows
// always embed identically and different windows almost never collide.
type Synthetic struct {
	vectorDim int
}

// Compile-time check that Synthetic implements Model.
var _ Model = (*Synthetic)(nil)

// NewSynthetic creates a synthetic model emitting vectors of the given
// width.
func NewSynthetic(vectorDim int) (*Synthetic, error) {
	if vectorDim <= 0 {
		return nil, fmt.Errorf("vector dim must be positive, got %d", vectorDim)
	}
	return &Synthetic{vectorDim: vectorDim}, nil
}

// VectorDim returns the embedding width.
func (m *Synthetic) VectorDim() int {
	return m.vectorDim
}

// Embed computes one deterministic vector per window. The seed folds the
// absolute values of the first eight samples, scaled to spread nearby
// windows across distinct seeds.
func (m *Synthetic) Embed(ctx context.Context, batch [][]float32) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(batch))
	for i, window := range batch {
		var sum float64
		for j := 0; j < len(window) && j < 8; j++ {
			sum += math.Abs(float64(window[j]))
		}
		seed := int64(sum*10000) % (1 << 31)

		vector := make([]float32, m.vectorDim)
		for t := 0; t < m.vectorDim; t++ {
			vector[t] = float32(math.Sin(float64(t) * float64(seed+1) / float64(m.vectorDim)))
		}
		vectors[i] = vector
	}
	return vectors, nil
}
