package artifact

import (
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// ReadEmbeddings loads a published embedding artifact into a row-major
// matrix. Rows come back in written order and must share one width.
func ReadEmbeddings(path string) ([][]float32, error) {
	rows, err := parquet.ReadFile[embeddingRow](path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	matrix := make([][]float32, len(rows))
	for i, row := range rows {
		if i > 0 && len(row.Embedding) != len(matrix[0]) {
			return nil, fmt.Errorf("artifact %s: inconsistent embedding width at row %d", path, i)
		}
		matrix[i] = row.Embedding
	}
	return matrix, nil
}
