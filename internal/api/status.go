package api

import (
	"context"
	"time"
)

// QueueSnapshot returns queue and inventory counts.
func (s *Service) QueueSnapshot(ctx context.Context) (*QueueStatsView, error) {
	stats, err := s.store.QueueStats(ctx)
	if err != nil {
		return nil, err
	}
	view := FromStats(stats)
	return &view, nil
}

// RecoverStaleJobs requeues running jobs whose last update is older than the
// configured stale timeout and reports how many rows moved. The daemon runs
// the same sweep automatically; this exists for manual recovery.
func (s *Service) RecoverStaleJobs(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(s.cfg.Worker.StaleJobTimeout) * time.Second)
	return s.store.RecoverStaleJobs(ctx, cutoff)
}
