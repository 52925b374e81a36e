package clustering

import (
	"errors"
	"fmt"
	"sort"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

// Noise labels rows whose cluster fell below the minimum cluster size.
const Noise = -1

// Result is the outcome of one engine run. Labels carries one entry per
// input row, with surviving clusters renumbered 0..n-1 in ascending order
// and noise rows set to Noise. Projection holds a 2-D coordinate per row
// for visualization and is nil when the run did not reduce the input.
type Result struct {
	Labels     []int
	Projection [][2]float32
}

// Engine partitions an embedding matrix into labeled clusters. The pipeline
// treats the engine as opaque so implementations can be swapped.
type Engine interface {
	ReduceAndCluster(matrix [][]float32, params Params) (*Result, error)
}

// KMeans is the default Engine: PCA reduction followed by k-means, with
// undersized clusters relabeled as noise.
type KMeans struct{}

var _ Engine = (*KMeans)(nil)

// NewKMeans returns the default engine.
func NewKMeans() *KMeans {
	return &KMeans{}
}

// ReduceAndCluster reduces the matrix per params, partitions the result,
// and applies the minimum-cluster-size noise pass. The requested cluster
// count is clamped to the number of rows. Reduction is skipped when the
// input is already two-dimensional or narrower, in which case no
// projection is returned.
func (e *KMeans) ReduceAndCluster(matrix [][]float32, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	rows := len(matrix)
	if rows == 0 {
		return nil, errors.New("clustering: empty matrix")
	}
	dim := len(matrix[0])
	if dim == 0 {
		return nil, errors.New("clustering: zero-width matrix")
	}
	for i, row := range matrix {
		if len(row) != dim {
			return nil, fmt.Errorf("clustering: row %d has %d columns, expected %d", i, len(row), dim)
		}
	}

	input := toFloat64(matrix)
	var projection [][2]float32
	if params.ReductionMethod == ReductionPCA && dim > 2 {
		reduced, err := pcaReduce(matrix, params.NComponents)
		if err != nil {
			return nil, err
		}
		input = reduced
		projection = make([][2]float32, rows)
		for i, row := range reduced {
			coord := [2]float32{float32(row[0]), 0}
			if len(row) > 1 {
				coord[1] = float32(row[1])
			}
			projection[i] = coord
		}
	}

	labels, err := partition(input, min(params.NClusters, rows))
	if err != nil {
		return nil, err
	}
	relabelNoise(labels, params.MinClusterSize)
	return &Result{Labels: labels, Projection: projection}, nil
}

func partition(input [][]float64, k int) ([]int, error) {
	observations := make(clusters.Observations, len(input))
	for i, row := range input {
		observations[i] = clusters.Coordinates(row)
	}
	km := kmeans.New()
	partitioned, err := km.Partition(observations, k)
	if err != nil {
		return nil, fmt.Errorf("clustering: k-means partition: %w", err)
	}
	labels := make([]int, len(observations))
	for i, obs := range observations {
		labels[i] = partitioned.Nearest(obs)
	}
	return labels, nil
}

// relabelNoise rewrites labels in place: clusters with fewer than minSize
// members become Noise and the survivors are renumbered densely, keeping
// their relative order.
func relabelNoise(labels []int, minSize int) {
	counts := make(map[int]int)
	for _, label := range labels {
		counts[label]++
	}
	kept := make([]int, 0, len(counts))
	for label, count := range counts {
		if count >= minSize {
			kept = append(kept, label)
		}
	}
	sort.Ints(kept)
	remap := make(map[int]int, len(kept))
	for i, label := range kept {
		remap[label] = i
	}
	for i, label := range labels {
		if dense, ok := remap[label]; ok {
			labels[i] = dense
		} else {
			labels[i] = Noise
		}
	}
}

func toFloat64(matrix [][]float32) [][]float64 {
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		converted := make([]float64, len(row))
		for j, v := range row {
			converted[j] = float64(v)
		}
		out[i] = converted
	}
	return out
}
