package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// EnqueueProcessingJob inserts a processing job. Jobs default to the queued
// state; submission-time short-circuits may insert directly as complete.
func (s *Store) EnqueueProcessingJob(ctx context.Context, job *ProcessingJob) (*ProcessingJob, error) {
	ctx = ensureContext(ctx)
	if job == nil {
		return nil, errors.New("processing job must not be nil")
	}
	if job.AudioFileID == "" {
		return nil, errors.New("processing job requires an audio file id")
	}
	if job.EncodingSignature == "" {
		return nil, errors.New("processing job requires an encoding signature")
	}

	id := job.ID
	if id == "" {
		id = uuid.NewString()
	}
	status := job.Status
	if status == "" {
		status = StatusQueued
	}
	feature, err := encodeJSONMap(job.FeatureConfig)
	if err != nil {
		return nil, fmt.Errorf("encode feature config: %w", err)
	}

	now := nowString()
	_, err = s.execWithRetry(ctx,
		"INSERT INTO processing_jobs (id, audio_file_id, status, encoding_signature, model_name, window_seconds, sample_rate, feature_config, error_message, warning_message, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		id,
		job.AudioFileID,
		string(status),
		job.EncodingSignature,
		job.ModelName,
		job.WindowSeconds,
		job.SampleRate,
		feature,
		nullableString(job.ErrorMessage),
		nullableString(job.WarningMessage),
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert processing job: %w", err)
	}
	return s.GetProcessingJob(ctx, id)
}

// GetProcessingJob fetches one job by id, returning (nil, nil) when absent.
func (s *Store) GetProcessingJob(ctx context.Context, id string) (*ProcessingJob, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+processingJobColumns+" FROM processing_jobs WHERE id = ?", id)
	job, err := scanProcessingJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get processing job: %w", err)
	}
	return job, nil
}

// ListProcessingJobs returns jobs newest first, optionally filtered by
// status.
func (s *Store) ListProcessingJobs(ctx context.Context, statuses ...Status) ([]*ProcessingJob, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + processingJobColumns + " FROM processing_jobs"
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
		return nil, fmt.Errorf("list processing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*ProcessingJob
	for rows.Next() {
		job, err := scanProcessingJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan processing job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate processing jobs: %w", err)
	}
	return jobs, nil
}

// claimProcessingSQL moves the oldest eligible queued job to running in one
// statement. A job is eligible only when no running job holds its encoding
// signature, which keeps concurrent identical submissions serialized.
// SQLite executes the whole statement under the write lock, so two workers
// can never claim the same row.
const claimProcessingSQL = `
UPDATE processing_jobs
SET status = ?, updated_at = ?
WHERE id = (
    SELECT id FROM processing_jobs
    WHERE status = ?
      AND encoding_signature NOT IN (
          SELECT encoding_signature FROM processing_jobs WHERE status = ?)
    ORDER BY created_at ASC, id ASC
    LIMIT 1)
RETURNING ` + processingJobColumns

// ClaimProcessingJob atomically claims the oldest eligible queued
// processing job, returning (nil, nil) when nothing is claimable.
func (s *Store) ClaimProcessingJob(ctx context.Context) (*ProcessingJob, error) {
	ctx = ensureContext(ctx)
	var claimed *ProcessingJob
	err := retryOnBusy(ctx, func() error {
		row := s.db.QueryRowContext(ctx, claimProcessingSQL,
			string(StatusRunning), nowString(), string(StatusQueued), string(StatusRunning))
		job, err := scanProcessingJob(row)
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
		return nil, fmt.Errorf("claim processing job: %w", err)
	}
	return claimed, nil
}

// CompleteProcessingJob marks a job complete unless it already reached a
// terminal state, then returns the current row. Completing a canceled or
// failed job is a no-op, so late workers cannot resurrect terminal rows.
func (s *Store) CompleteProcessingJob(ctx context.Context, id string) (*ProcessingJob, error) {
	ctx = ensureContext(ctx)
	_, err := s.execWithRetry(ctx,
		"UPDATE processing_jobs SET status = ?, updated_at = ? WHERE id = ? AND status NOT IN (?, ?, ?)",
		string(StatusComplete), nowString(), id,
		string(StatusComplete), string(StatusFailed), string(StatusCanceled),
	)
	if err != nil {
		return nil, fmt.Errorf("complete processing job: %w", err)
	}
	return s.GetProcessingJob(ctx, id)
}

// FailProcessingJob marks a job failed with a free-text reason unless it
// already reached a terminal state, then returns the current row.
func (s *Store) FailProcessingJob(ctx context.Context, id, message string) (*ProcessingJob, error) {
	ctx = ensureContext(ctx)
	_, err := s.execWithRetry(ctx,
		"UPDATE processing_jobs SET status = ?, error_message = ?, updated_at = ? WHERE id = ? AND status NOT IN (?, ?, ?)",
		string(StatusFailed), nullableString(message), nowString(), id,
		string(StatusComplete), string(StatusFailed), string(StatusCanceled),
	)
	if err != nil {
		return nil, fmt.Errorf("fail processing job: %w", err)
	}
	return s.GetProcessingJob(ctx, id)
}

// CancelProcessingJob cancels a queued or running job. The boolean reports
// whether the row transitioned; terminal rows are returned unchanged. A
// worker still executing a canceled job finishes, but its final
// Complete/Fail lands on the terminal row as a no-op.
func (s *Store) CancelProcessingJob(ctx context.Context, id string) (*ProcessingJob, bool, error) {
	ctx = ensureContext(ctx)
	res, err := s.execWithRetry(ctx,
		"UPDATE processing_jobs SET status = ?, updated_at = ? WHERE id = ? AND status IN (?, ?)",
		string(StatusCanceled), nowString(), id,
		string(StatusQueued), string(StatusRunning),
	)
	if err != nil {
		return nil, false, fmt.Errorf("cancel processing job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("cancel processing job: %w", err)
	}
	job, err := s.GetProcessingJob(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return job, affected > 0, nil
}

// SetProcessingWarning records a non-fatal warning on a job without
// touching its status.
func (s *Store) SetProcessingWarning(ctx context.Context, id, message string) error {
	ctx = ensureContext(ctx)
	_, err := s.execWithRetry(ctx,
		"UPDATE processing_jobs SET warning_message = ?, updated_at = ? WHERE id = ?",
		nullableString(message), nowString(), id,
	)
	if err != nil {
		return fmt.Errorf("set processing warning: %w", err)
	}
	return nil
}
