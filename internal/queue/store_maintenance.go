package queue

import (
	"context"
	"fmt"
	"time"
)

// RecoverStaleJobs returns running jobs of both kinds to the queued state
// when their updated_at is strictly older than cutoff, and reports how many
// rows were recovered. The sweep is idempotent and safe to run concurrently
// from multiple processes; a job a live worker is still updating keeps its
// fresh timestamp and is left alone.
func (s *Store) RecoverStaleJobs(ctx context.Context, cutoff time.Time) (int, error) {
	ctx = ensureContext(ctx)
	cutoffStr := cutoff.UTC().Format(time.RFC3339Nano)
	now := nowString()

	total := 0
	for _, table := range []string{"processing_jobs", "clustering_jobs"} {
		res, err := s.execWithRetry(ctx,
			"UPDATE "+table+" SET status = ?, updated_at = ? WHERE status = ? AND updated_at < ?",
			string(StatusQueued), now, string(StatusRunning), cutoffStr,
		)
		if err != nil {
			return total, fmt.Errorf("recover stale %s: %w", table, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("recover stale %s: %w", table, err)
		}
		total += int(affected)
	}
	return total, nil
}

// QueueStats aggregates row counts across the queue tables.
func (s *Store) QueueStats(ctx context.Context) (*Stats, error) {
	ctx = ensureContext(ctx)
	stats := &Stats{
		Processing: make(map[Status]int),
		Clustering: make(map[Status]int),
	}

	for table, counts := range map[string]map[Status]int{
		"processing_jobs": stats.Processing,
		"clustering_jobs": stats.Clustering,
	} {
		rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM "+table+" GROUP BY status")
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		for rows.Next() {
			var status string
			var count int
			if err := rows.Scan(&status, &count); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan %s counts: %w", table, err)
			}
			counts[Status(status)] = count
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("iterate %s counts: %w", table, err)
		}
		rows.Close()
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM audio_files").Scan(&stats.AudioFiles); err != nil {
		return nil, fmt.Errorf("count audio files: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM embedding_sets").Scan(&stats.EmbeddingSets); err != nil {
		return nil, fmt.Errorf("count embedding sets: %w", err)
	}
	return stats, nil
}
