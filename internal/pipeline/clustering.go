package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"finback/internal/artifact"
	"finback/internal/clustering"
	"finback/internal/logging"
	"finback/internal/queue"
	"finback/internal/storage"
)

// Clustering runs one clustering job: embedding sets in, labeled clusters
// plus side artifacts out.
type Clustering struct {
	store  *queue.Store
	layout *storage.Layout
	engine clustering.Engine
	logger *slog.Logger
}

// NewClustering constructs the clustering runner. A nil engine selects the
// default k-means engine.
func NewClustering(store *queue.Store, layout *storage.Layout, engine clustering.Engine, logger *slog.Logger) *Clustering {
	if engine == nil {
		engine = clustering.NewKMeans()
	}
	c := &Clustering{store: store, layout: layout, engine: engine}
	c.SetLogger(logger)
	return c
}

// SetLogger updates the runner's logging destination.
func (c *Clustering) SetLogger(logger *slog.Logger) {
	c.logger = logging.NewComponentLogger(logger, "clustering")
}

// ClusteringOutcome reports what one run produced. Metrics is persisted onto
// the job row by the caller on completion.
type ClusteringOutcome struct {
	Clusters []*queue.Cluster
	Metrics  map[string]any
}

// Summary document written to clusters.json beside the projection artifact.
type clusterSummary struct {
	JobID     string              `json:"job_id"`
	NClusters int                 `json:"n_clusters"`
	Clusters  []clusterSummaryRow `json:"clusters"`
	Params    map[string]any      `json:"params"`
	Sources   []summarySource     `json:"sources"`
}

type clusterSummaryRow struct {
	Label int    `json:"label"`
	Size  int    `json:"size"`
	ID    string `json:"id"`
}

type summarySource struct {
	EmbeddingSetID string `json:"embedding_set_id"`
	Rows           int    `json:"rows"`
}

// projectionRow mirrors the columns consumers expect from the projection
// artifact.
type projectionRow struct {
	X              float32 `parquet:"x"`
	Y              float32 `parquet:"y"`
	ClusterLabel   int32   `parquet:"cluster_label"`
	EmbeddingSetID string  `parquet:"embedding_set_id"`
	RowIndex       int32   `parquet:"embedding_row_index"`
}

// Run executes the job and returns its outcome. Any missing embedding set,
// unreadable artifact, or width mismatch fails the whole job; partial
// clustering results are never published.
func (c *Clustering) Run(ctx context.Context, job *queue.ClusteringJob) (*ClusteringOutcome, error) {
	logger := c.logger.With(logging.String(logging.FieldJobID, job.ID))

	params, err := clustering.ParamsFromMap(job.Params)
	if err != nil {
		return nil, err
	}

	sets, err := c.store.ListEmbeddingSetsByIDs(ctx, job.EmbeddingSetIDs)
	if err != nil {
		return nil, err
	}
	if len(sets) != len(job.EmbeddingSetIDs) {
		found := make(map[string]struct{}, len(sets))
		for _, set := range sets {
			found[set.ID] = struct{}{}
		}
		for _, id := range job.EmbeddingSetIDs {
			if _, ok := found[id]; !ok {
				return nil, fmt.Errorf("embedding set %s not found", id)
			}
		}
	}

	matrix, refs, err := loadEmbeddingRows(sets)
	if err != nil {
		return nil, err
	}
	if len(matrix) == 0 {
		return nil, errors.New("no embedding rows to cluster")
	}

	result, err := c.engine.ReduceAndCluster(matrix, params)
	if err != nil {
		return nil, err
	}

	members := make(map[int][]queue.RowRef)
	for i, label := range result.Labels {
		members[label] = append(members[label], refs[i])
	}
	labels := make([]int, 0, len(members))
	for label := range members {
		labels = append(labels, label)
	}
	sort.Ints(labels)
	writes := make([]queue.ClusterWrite, 0, len(labels))
	for _, label := range labels {
		writes = append(writes, queue.ClusterWrite{Label: label, Members: members[label]})
	}

	saved, err := c.store.SaveClusterResults(ctx, job.ID, writes)
	if err != nil {
		return nil, err
	}

	summary := clusterSummary{
		JobID:    job.ID,
		Clusters: make([]clusterSummaryRow, 0, len(saved)),
		Params: map[string]any{
			"reduction_method": params.ReductionMethod,
			"n_components":     params.NComponents,
			"n_clusters":       params.NClusters,
			"min_cluster_size": params.MinClusterSize,
		},
		Sources: make([]summarySource, 0, len(sets)),
	}
	for _, cluster := range saved {
		if cluster.Label != clustering.Noise {
			summary.NClusters++
		}
		summary.Clusters = append(summary.Clusters, clusterSummaryRow{
			Label: cluster.Label,
			Size:  cluster.Size,
			ID:    cluster.ID,
		})
	}
	for _, set := range sets {
		summary.Sources = append(summary.Sources, summarySource{EmbeddingSetID: set.ID, Rows: set.RowCount})
	}
	if err := storage.WriteJSONAtomic(c.layout.ClusterSummaryPath(job.ID), summary); err != nil {
		return nil, fmt.Errorf("write cluster summary: %w", err)
	}

	if result.Projection != nil {
		rows := make([]projectionRow, len(result.Projection))
		for i, coord := range result.Projection {
			rows[i] = projectionRow{
				X:              coord[0],
				Y:              coord[1],
				ClusterLabel:   int32(result.Labels[i]),
				EmbeddingSetID: refs[i].EmbeddingSetID,
				RowIndex:       int32(refs[i].RowIndex),
			}
		}
		if err := artifact.WriteFileAtomic(c.layout.ProjectionPath(job.ID), rows); err != nil {
			return nil, fmt.Errorf("write projection: %w", err)
		}
	}

	noiseRows := len(members[clustering.Noise])
	metrics := map[string]any{
		"n_clusters": summary.NClusters,
		"noise_rows": noiseRows,
		"input_rows": len(matrix),
	}
	logger.Info("clustering results published",
		logging.Int("clusters", summary.NClusters),
		logging.Int("noise_rows", noiseRows),
		logging.Int("input_rows", len(matrix)),
		logging.Bool("projection", result.Projection != nil),
	)
	return &ClusteringOutcome{Clusters: saved, Metrics: metrics}, nil
}

// loadEmbeddingRows concatenates the artifact rows of every set, tagging each
// row with its provenance. All sets must share one vector width.
func loadEmbeddingRows(sets []*queue.EmbeddingSet) ([][]float32, []queue.RowRef, error) {
	var matrix [][]float32
	var refs []queue.RowRef
	width := 0
	for _, set := range sets {
		rows, err := artifact.ReadEmbeddings(set.ArtifactPath)
		if err != nil {
			return nil, nil, fmt.Errorf("embedding set %s: %w", set.ID, err)
		}
		for i, row := range rows {
			if width == 0 {
				width = len(row)
			}
			if len(row) != width {
				return nil, nil, fmt.Errorf("embedding set %s: vector dim %d does not match %d", set.ID, len(row), width)
			}
			matrix = append(matrix, row)
			refs = append(refs, queue.RowRef{EmbeddingSetID: set.ID, RowIndex: i})
		}
	}
	return matrix, refs, nil
}
