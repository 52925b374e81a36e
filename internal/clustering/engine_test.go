package clustering_test

import (
	"math"
	"testing"

	"finback/internal/clustering"
)

// blob builds count rows of dims columns jittered around center. The jitter
// is a small deterministic offset so runs are reproducible.
func blob(count, dims int, center float64) [][]float32 {
	rows := make([][]float32, count)
	for i := range rows {
		row := make([]float32, dims)
		for j := range row {
			row[j] = float32(center + 0.01*float64((i*dims+j)%7))
		}
		rows[i] = row
	}
	return rows
}

func TestReduceAndClusterSeparatesBlobs(t *testing.T) {
	matrix := append(blob(10, 8, 0), blob(10, 8, 100)...)
	params := clustering.DefaultParams()
	params.NClusters = 2

	engine := clustering.NewKMeans()
	result, err := engine.ReduceAndCluster(matrix, params)
	if err != nil {
		t.Fatalf("ReduceAndCluster: %v", err)
	}
	if len(result.Labels) != len(matrix) {
		t.Fatalf("expected %d labels, got %d", len(matrix), len(result.Labels))
	}
	for i, label := range result.Labels {
		if label != result.Labels[(i/10)*10] {
			t.Fatalf("row %d label %d differs within its group: %v", i, label, result.Labels)
		}
		if label != 0 && label != 1 {
			t.Fatalf("row %d has unexpected label %d", i, label)
		}
	}
	if result.Labels[0] == result.Labels[10] {
		t.Fatalf("distinct groups share label %d", result.Labels[0])
	}

	if len(result.Projection) != len(matrix) {
		t.Fatalf("expected %d projection rows, got %d", len(matrix), len(result.Projection))
	}
	var meanA, meanB float64
	var maxY float64
	for i, coord := range result.Projection {
		if i < 10 {
			meanA += float64(coord[0])
		} else {
			meanB += float64(coord[0])
		}
		if y := math.Abs(float64(coord[1])); y > maxY {
			maxY = y
		}
	}
	meanA /= 10
	meanB /= 10
	if math.Abs(meanA-meanB) < 10 {
		t.Fatalf("projection does not separate groups: means %.2f vs %.2f", meanA, meanB)
	}
	if maxY > 5 {
		t.Fatalf("second projection axis unexpectedly large: %.2f", maxY)
	}

	again, err := engine.ReduceAndCluster(matrix, params)
	if err != nil {
		t.Fatalf("ReduceAndCluster second run: %v", err)
	}
	for i := range result.Projection {
		if again.Projection[i] != result.Projection[i] {
			t.Fatalf("projection row %d not deterministic: %v vs %v", i, result.Projection[i], again.Projection[i])
		}
	}
}

func TestReduceAndClusterMarksSmallClustersAsNoise(t *testing.T) {
	matrix := append(blob(12, 6, 0), blob(3, 6, 50)...)
	params := clustering.DefaultParams()
	params.NClusters = 2
	params.MinClusterSize = 5

	result, err := clustering.NewKMeans().ReduceAndCluster(matrix, params)
	if err != nil {
		t.Fatalf("ReduceAndCluster: %v", err)
	}
	for i := 0; i < 12; i++ {
		if result.Labels[i] != 0 {
			t.Fatalf("row %d: expected surviving cluster 0, got %d", i, result.Labels[i])
		}
	}
	for i := 12; i < 15; i++ {
		if result.Labels[i] != clustering.Noise {
			t.Fatalf("row %d: expected noise, got %d", i, result.Labels[i])
		}
	}
}

func TestReduceAndClusterClampsClusterCount(t *testing.T) {
	matrix := blob(4, 8, 0)

	// Defaults ask for 15 clusters over 4 rows. The clamp partitions into at
	// most 4 clusters, all below the default minimum size, so every row
	// comes back as noise.
	result, err := clustering.NewKMeans().ReduceAndCluster(matrix, clustering.DefaultParams())
	if err != nil {
		t.Fatalf("ReduceAndCluster: %v", err)
	}
	for i, label := range result.Labels {
		if label != clustering.Noise {
			t.Fatalf("row %d: expected noise, got %d", i, label)
		}
	}
}

func TestReduceAndClusterWithoutReduction(t *testing.T) {
	matrix := blob(8, 4, 1)
	params := clustering.DefaultParams()
	params.ReductionMethod = clustering.ReductionNone
	params.NClusters = 1
	params.MinClusterSize = 1

	result, err := clustering.NewKMeans().ReduceAndCluster(matrix, params)
	if err != nil {
		t.Fatalf("ReduceAndCluster: %v", err)
	}
	if result.Projection != nil {
		t.Fatalf("expected no projection without reduction, got %d rows", len(result.Projection))
	}
	for i, label := range result.Labels {
		if label != 0 {
			t.Fatalf("row %d: expected single cluster 0, got %d", i, label)
		}
	}
}

func TestReduceAndClusterSkipsProjectionForNarrowInput(t *testing.T) {
	matrix := blob(6, 2, 3)
	params := clustering.DefaultParams()
	params.NClusters = 1
	params.MinClusterSize = 1

	result, err := clustering.NewKMeans().ReduceAndCluster(matrix, params)
	if err != nil {
		t.Fatalf("ReduceAndCluster: %v", err)
	}
	if result.Projection != nil {
		t.Fatalf("expected no projection for 2-column input, got %d rows", len(result.Projection))
	}
}

func TestReduceAndClusterRejectsBadInput(t *testing.T) {
	engine := clustering.NewKMeans()
	if _, err := engine.ReduceAndCluster(nil, clustering.DefaultParams()); err == nil {
		t.Fatal("expected error for empty matrix")
	}
	ragged := [][]float32{{1, 2, 3}, {1, 2}}
	if _, err := engine.ReduceAndCluster(ragged, clustering.DefaultParams()); err == nil {
		t.Fatal("expected error for ragged matrix")
	}
}

func TestParamsFromMap(t *testing.T) {
	params, err := clustering.ParamsFromMap(map[string]any{
		"n_clusters":       float64(7),
		"min_cluster_size": float64(2),
		"reduction_method": "none",
		"future_knob":      "ignored",
	})
	if err != nil {
		t.Fatalf("ParamsFromMap: %v", err)
	}
	if params.NClusters != 7 || params.MinClusterSize != 2 {
		t.Fatalf("overrides not applied: %+v", params)
	}
	if params.ReductionMethod != clustering.ReductionNone {
		t.Fatalf("expected reduction none, got %q", params.ReductionMethod)
	}
	if params.NComponents != 5 {
		t.Fatalf("default n_components lost: %+v", params)
	}
}

func TestParamsFromMapRejectsBadValues(t *testing.T) {
	cases := []struct {
		name      string
		overrides map[string]any
	}{
		{"unknown reduction", map[string]any{"reduction_method": "umap"}},
		{"non-numeric clusters", map[string]any{"n_clusters": "many"}},
		{"zero clusters", map[string]any{"n_clusters": float64(0)}},
		{"narrow components", map[string]any{"n_components": float64(1)}},
		{"negative min size", map[string]any{"min_cluster_size": float64(-1)}},
	}
	for _, tc := range cases {
		if _, err := clustering.ParamsFromMap(tc.overrides); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
