package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// EnqueueClusteringJob inserts a clustering job in the queued state.
func (s *Store) EnqueueClusteringJob(ctx context.Context, job *ClusteringJob) (*ClusteringJob, error) {
	ctx = ensureContext(ctx)
	if job == nil {
		return nil, errors.New("clustering job must not be nil")
	}
	if len(job.EmbeddingSetIDs) == 0 {
		return nil, errors.New("clustering job requires at least one embedding set id")
	}

	id := job.ID
	if id == "" {
		id = uuid.NewString()
	}
	status := job.Status
	if status == "" {
		status = StatusQueued
	}
	setIDs, err := encodeStringSlice(job.EmbeddingSetIDs)
	if err != nil {
		return nil, fmt.Errorf("encode embedding set ids: %w", err)
	}
	params, err := encodeJSONMap(job.Params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}

	now := nowString()
	_, err = s.execWithRetry(ctx,
		"INSERT INTO clustering_jobs (id, status, embedding_set_ids, params, metrics, error_message, created_at, updated_at) VALUES (?, ?, ?, ?, NULL, NULL, ?, ?)",
		id, string(status), setIDs, params, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert clustering job: %w", err)
	}
	return s.GetClusteringJob(ctx, id)
}

// GetClusteringJob fetches one job by id, returning (nil, nil) when absent.
func (s *Store) GetClusteringJob(ctx context.Context, id string) (*ClusteringJob, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+clusteringJobColumns+" FROM clustering_jobs WHERE id = ?", id)
	job, err := scanClusteringJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get clustering job: %w", err)
	}
	return job, nil
}

// ListClusteringJobs returns jobs newest first, optionally filtered by
// status.
func (s *Store) ListClusteringJobs(ctx context.Context, statuses ...Status) ([]*ClusteringJob, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + clusteringJobColumns + " FROM clustering_jobs"
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += " WHERE status IN (" + makePlaceholders(len(statuses)) + ")"
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clustering jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*ClusteringJob
	for rows.Next() {
		job, err := scanClusteringJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan clustering job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clustering jobs: %w", err)
	}
	return jobs, nil
}

// claimClusteringSQL moves the oldest queued clustering job to running in
// one statement. Clustering has no signature exclusion; FIFO order decides.
const claimClusteringSQL = `
UPDATE clustering_jobs
SET status = ?, updated_at = ?
WHERE id = (
    SELECT id FROM clustering_jobs
    WHERE status = ?
    ORDER BY created_at ASC, id ASC
    LIMIT 1)
RETURNING ` + clusteringJobColumns

// ClaimClusteringJob atomically claims the oldest queued clustering job,
// returning (nil, nil) when nothing is claimable.
func (s *Store) ClaimClusteringJob(ctx context.Context) (*ClusteringJob, error) {
	ctx = ensureContext(ctx)
	var claimed *ClusteringJob
	err := retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(ctx, claimClusteringSQL,
			string(StatusRunning), nowString(), string(StatusQueued))
		job, err := scanClusteringJob(row)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				claimed = nil
				return nil
			}
			return err
		}
		claimed = job
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("claim clustering job: %w", err)
	}
	return claimed, nil
}

// CompleteClusteringJob marks a job complete and records its metrics unless
// it already reached a terminal state, then returns the current row.
func (s *Store) CompleteClusteringJob(ctx context.Context, id string, metrics map[string]any) (*ClusteringJob, error) {
	ctx = ensureContext(ctx)
	encoded, err := encodeJSONMap(metrics)
	if err != nil {
		return nil, fmt.Errorf("encode metrics: %w", err)
	}
	_, err = s.execWithRetry(ctx,
		"UPDATE clustering_jobs SET status = ?, metrics = ?, updated_at = ? WHERE id = ? AND status NOT IN (?, ?, ?)",
		string(StatusComplete), encoded, nowString(), id,
		string(StatusComplete), string(StatusFailed), string(StatusCanceled),
	)
	if err != nil {
		return nil, fmt.Errorf("complete clustering job: %w", err)
	}
	return s.GetClusteringJob(ctx, id)
}

// FailClusteringJob marks a job failed with a free-text reason unless it
// already reached a terminal state, then returns the current row.
func (s *Store) FailClusteringJob(ctx context.Context, id, message string) (*ClusteringJob, error) {
	ctx = ensureContext(ctx)
	_, err := s.execWithRetry(ctx,
		"UPDATE clustering_jobs SET status = ?, error_message = ?, updated_at = ? WHERE id = ? AND status NOT IN (?, ?, ?)",
		string(StatusFailed), nullableString(message), nowString(), id,
		string(StatusComplete), string(StatusFailed), string(StatusCanceled),
	)
	if err != nil {
		return nil, fmt.Errorf("fail clustering job: %w", err)
	}
	return s.GetClusteringJob(ctx, id)
}

// CancelClusteringJob cancels a queued or running job. The boolean reports
// whether the row transitioned; terminal rows are returned unchanged.
func (s *Store) CancelClusteringJob(ctx context.Context, id string) (*ClusteringJob, bool, error) {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(ctx,
		"UPDATE clustering_jobs SET status = ?, updated_at = ? WHERE id = ? AND status IN (?, ?)",
		string(StatusCanceled), nowString(), id,
		string(StatusQueued), string(StatusRunning),
	)
	if err != nil {
		return nil, false, fmt.Errorf("cancel clustering job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("cancel clustering job: %w", err)
	}
	job, err := s.GetClusteringJob(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return job, affected > 0, nil
}

// SaveClusterResults persists clusters and their assignments in one
// transaction. Assignments must partition the input rows; any failure rolls
// the whole batch back so readers never observe partial results. Results a
// previous execution of the same job left behind are replaced, so re-running
// a recovered job cannot duplicate clusters.
func (s *Store) SaveClusterResults(ctx context.Context, jobID string, results []ClusterWrite) ([]*Cluster, error) {
	ctx = ensureContext(ctx)
	if jobID == "" {
		return nil, errors.New("clustering job id must not be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin cluster tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM cluster_assignments WHERE cluster_id IN (SELECT id FROM clusters WHERE clustering_job_id = ?)",
		jobID,
	); err != nil {
		return nil, fmt.Errorf("clear prior assignments: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM clusters WHERE clustering_job_id = ?", jobID,
	); err != nil {
		return nil, fmt.Errorf("clear prior clusters: %w", err)
	}

	now := nowString()
	assignStmt, err := tx.PrepareContext(ctx,
		"INSERT INTO cluster_assignments (id, cluster_id, embedding_set_id, row_index, created_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return nil, fmt.Errorf("prepare assignment insert: %w", err)
	}
	defer assignStmt.Close()

	clusters := make([]*Cluster, 0, len(results))
	for _, result := range results {
		clusterID := uuid.NewString()
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO clusters (id, clustering_job_id, label, size, created_at) VALUES (?, ?, ?, ?, ?)",
			clusterID, jobID, result.Label, len(result.Members), now,
		); err != nil {
			return nil, fmt.Errorf("insert cluster label %d: %w", result.Label, err)
		}
		for _, member := range result.Members {
			if _, err := assignStmt.ExecContext(ctx,
				uuid.NewString(), clusterID, member.EmbeddingSetID, member.RowIndex, now,
			); err != nil {
				return nil, fmt.Errorf("insert assignment for label %d: %w", result.Label, err)
			}
		}
		clusters = append(clusters, &Cluster{
			ID:              clusterID,
			ClusteringJobID: jobID,
			Label:           result.Label,
			Size:            len(result.Members),
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cluster results: %w", err)
	}
	return clusters, nil
}

// ListClusters returns the clusters of one job ordered by label.
func (s *Store) ListClusters(ctx context.Context, jobID string) ([]*Cluster, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+clusterColumns+" FROM clusters WHERE clustering_job_id = ? ORDER BY label", jobID)
	if err != nil {
		return nil, fmt.Errorf("list clusters: %w", err)
	}
	defer rows.Close()

	var clusters []*Cluster
	for rows.Next() {
		cluster, err := scanCluster(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cluster: %w", err)
		}
		clusters = append(clusters, cluster)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clusters: %w", err)
	}
	return clusters, nil
}

// ListClusterAssignments returns the row assignments of one cluster ordered
// by embedding set and row index.
func (s *Store) ListClusterAssignments(ctx context.Context, clusterID string) ([]*ClusterAssignment, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+clusterAssignmentColumns+" FROM cluster_assignments WHERE cluster_id = ? ORDER BY embedding_set_id, row_index", clusterID)
	if err != nil {
		return nil, fmt.Errorf("list cluster assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*ClusterAssignment
	for rows.Next() {
		assignment, err := scanClusterAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cluster assignment: %w", err)
		}
		assignments = append(assignments, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cluster assignments: %w", err)
	}
	return assignments, nil
}
