package api

import (
	"context"
	"fmt"
	"strings"

	"finback/internal/clustering"
	"finback/internal/queue"
)

// CreateClusteringJobRequest describes a clustering submission over one or
// more embedding sets.
type CreateClusteringJobRequest struct {
	EmbeddingSetIDs []string       `json:"embeddingSetIds"`
	Params          map[string]any `json:"params,omitempty"`
}

// CreateClusteringJob queues a clustering job. Every referenced embedding
// set must exist and the parameters must parse, so bad submissions are
// rejected here instead of failing later inside the worker.
func (s *Service) CreateClusteringJob(ctx context.Context, req CreateClusteringJobRequest) (*ClusteringJobView, error) {
	ids := make([]string, 0, len(req.EmbeddingSetIDs))
	for _, id := range req.EmbeddingSetIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one embedding set id is required", ErrInvalid)
	}
	if _, err := clustering.ParamsFromMap(req.Params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	sets, err := s.store.ListEmbeddingSetsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[string]struct{}, len(sets))
	for _, set := range sets {
		found[set.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, fmt.Errorf("%w: embedding set %s not found", ErrInvalid, id)
		}
	}

	job, err := s.store.EnqueueClusteringJob(ctx, &queue.ClusteringJob{
		EmbeddingSetIDs: ids,
		Params:          req.Params,
	})
	if err != nil {
		return nil, err
	}
	view := FromClusteringJob(job)
	return &view, nil
}

// ListClusteringJobs returns clustering jobs newest first, optionally
// filtered by status.
func (s *Service) ListClusteringJobs(ctx context.Context, statuses ...queue.Status) ([]ClusteringJobView, error) {
	jobs, err := s.store.ListClusteringJobs(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromClusteringJobs(jobs), nil
}

// DescribeClusteringJob fetches one job, returning nil when absent.
func (s *Service) DescribeClusteringJob(ctx context.Context, id string) (*ClusteringJobView, error) {
	job, err := s.store.GetClusteringJob(ctx, id)
	if err != nil || job == nil {
		return nil, err
	}
	view := FromClusteringJob(job)
	return &view, nil
}

// CancelClusteringJob cancels a queued or running job. The boolean reports
// whether the row transitioned; terminal jobs come back unchanged and a
// missing job returns nil.
func (s *Service) CancelClusteringJob(ctx context.Context, id string) (*ClusteringJobView, bool, error) {
	job, changed, err := s.store.CancelClusteringJob(ctx, id)
	if err != nil || job == nil {
		return nil, false, err
	}
	view := FromClusteringJob(job)
	return &view, changed, nil
}

// ListClusters returns the clusters of one job ordered by label.
func (s *Service) ListClusters(ctx context.Context, jobID string) ([]ClusterView, error) {
	clusters, err := s.store.ListClusters(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return FromClusters(clusters), nil
}

// ListClusterAssignments returns the row assignments of one cluster.
func (s *Service) ListClusterAssignments(ctx context.Context, clusterID string) ([]ClusterAssignmentView, error) {
	assignments, err := s.store.ListClusterAssignments(ctx, clusterID)
	if err != nil {
		return nil, err
	}
	return FromClusterAssignments(assignments), nil
}
