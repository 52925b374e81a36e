package clustering

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// pcaReduce projects rows onto their top principal components. Columns are
// centered, the centered matrix is factorized with a thin SVD, and the
// scores are the left singular vectors scaled by the singular values. The
// component count is clamped to the factorization rank, so callers always
// get min(components, rows, dim) output columns.
func pcaReduce(matrix [][]float32, components int) ([][]float64, error) {
	rows := len(matrix)
	if rows == 0 {
		return nil, errors.New("clustering: empty matrix")
	}
	dim := len(matrix[0])
	if components > dim {
		components = dim
	}
	if components > rows {
		components = rows
	}

	means := make([]float64, dim)
	for _, row := range matrix {
		for j, v := range row {
			means[j] += float64(v)
		}
	}
	for j := range means {
		means[j] /= float64(rows)
	}
	centered := mat.NewDense(rows, dim, nil)
	for i, row := range matrix {
		for j, v := range row {
			centered.Set(i, j, float64(v)-means[j])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThin); !ok {
		return nil, errors.New("clustering: SVD factorization did not converge")
	}
	var u mat.Dense
	svd.UTo(&u)
	values := svd.Values(nil)

	reduced := make([][]float64, rows)
	for i := range reduced {
		scores := make([]float64, components)
		for j := range scores {
			scores[j] = u.At(i, j) * values[j]
		}
		reduced[i] = scores
	}
	return reduced, nil
}
