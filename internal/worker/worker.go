package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finback/internal/config"
	"finback/internal/logging"
	"finback/internal/pipeline"
	"finback/internal/queue"
)

// Worker claims and executes queued jobs until stopped.
type Worker struct {
	cfg        *config.Config
	store      *queue.Store
	processing *pipeline.Processing
	clustering *pipeline.Clustering
	logger     *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a worker over the given pipeline runners.
func New(cfg *config.Config, store *queue.Store, processing *pipeline.Processing, clustering *pipeline.Clustering, logger *slog.Logger) *Worker {
	return &Worker{
		cfg:        cfg,
		store:      store,
		processing: processing,
		clustering: clustering,
		logger:     logging.NewComponentLogger(logger, "worker"),
	}
}

// Start begins background job execution. It sweeps stale jobs once before
// claiming so work abandoned by a previous daemon run requeues immediately.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("worker already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.wg.Add(1)
	w.mu.Unlock()

	go w.run(runCtx)
	return nil
}

// Stop terminates claiming and waits for an in-flight job to finish. A
// claimed job always runs to its terminal status; jobs lost to a hard crash
// are returned to the queue by the stale sweep instead.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
}

func (w *Worker) staleTimeout() time.Duration {
	return time.Duration(w.cfg.Worker.StaleJobTimeout) * time.Second
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	w.sweepStale(ctx)
	lastSweep := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		claimed, err := w.claimAndRun(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("queue claim failed", logging.Error(err))
			w.waitOrShutdown(ctx, time.Duration(w.cfg.Worker.ErrorRetryInterval)*time.Second)
			continue
		}
		if claimed {
			continue
		}

		if time.Since(lastSweep) >= w.staleTimeout()/2 {
			w.sweepStale(ctx)
			lastSweep = time.Now()
		}
		w.waitOrShutdown(ctx, time.Duration(w.cfg.Worker.PollInterval)*time.Second)
	}
}

// claimAndRun claims at most one job, preferring the processing lane, and
// runs it to a terminal status. Claimed jobs run on a context detached from
// shutdown so a drain never strands a half-finished job in running state.
func (w *Worker) claimAndRun(ctx context.Context) (bool, error) {
	job, err := w.store.ClaimProcessingJob(ctx)
	if err != nil {
		return false, err
	}
	if job != nil {
		w.runProcessing(context.WithoutCancel(ctx), job)
		return true, nil
	}

	clusteringJob, err := w.store.ClaimClusteringJob(ctx)
	if err != nil {
		return false, err
	}
	if clusteringJob != nil {
		w.runClustering(context.WithoutCancel(ctx), clusteringJob)
		return true, nil
	}
	return false, nil
}

func (w *Worker) runProcessing(ctx context.Context, job *queue.ProcessingJob) {
	logger := w.logger.With(
		logging.String(logging.FieldJobKind, string(queue.KindProcessing)),
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldAudioID, job.AudioFileID),
	)
	start := time.Now()
	logger.Info("job started", logging.String(logging.FieldModel, job.ModelName))

	outcome, err := w.guardProcessing(ctx, job)
	if err != nil {
		logger.Error("job failed",
			logging.Error(err),
			logging.Duration("job_duration", time.Since(start)),
		)
		if _, failErr := w.store.FailProcessingJob(ctx, job.ID, err.Error()); failErr != nil {
			logger.Error("could not record job failure", logging.Error(failErr))
		}
		return
	}

	final, err := w.store.CompleteProcessingJob(ctx, job.ID)
	if err != nil {
		logger.Error("could not record job completion", logging.Error(err))
		return
	}
	logger.Info("job finished",
		logging.String("status", string(final.Status)),
		logging.Bool("skipped", outcome.Skipped),
		logging.Int("rows", outcome.EmbeddingSet.RowCount),
		logging.Duration("job_duration", time.Since(start)),
	)
}

func (w *Worker) runClustering(ctx context.Context, job *queue.ClusteringJob) {
	logger := w.logger.With(
		logging.String(logging.FieldJobKind, string(queue.KindClustering)),
		logging.String(logging.FieldJobID, job.ID),
	)
	start := time.Now()
	logger.Info("job started", logging.Int("embedding_sets", len(job.EmbeddingSetIDs)))

	outcome, err := w.guardClustering(ctx, job)
	if err != nil {
		logger.Error("job failed",
			logging.Error(err),
			logging.Duration("job_duration", time.Since(start)),
		)
		if _, failErr := w.store.FailClusteringJob(ctx, job.ID, err.Error()); failErr != nil {
			logger.Error("could not record job failure", logging.Error(failErr))
		}
		return
	}

	final, err := w.store.CompleteClusteringJob(ctx, job.ID, outcome.Metrics)
	if err != nil {
		logger.Error("could not record job completion", logging.Error(err))
		return
	}
	logger.Info("job finished",
		logging.String("status", string(final.Status)),
		logging.Int("clusters", len(outcome.Clusters)),
		logging.Duration("job_duration", time.Since(start)),
	)
}

// guardProcessing converts a pipeline panic into a job failure so one bad
// job cannot take the worker loop down.
func (w *Worker) guardProcessing(ctx context.Context, job *queue.ProcessingJob) (outcome *pipeline.ProcessingOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = nil
			err = fmt.Errorf("processing job panicked: %v", r)
		}
	}()
	return w.processing.Run(ctx, job)
}

func (w *Worker) guardClustering(ctx context.Context, job *queue.ClusteringJob) (outcome *pipeline.ClusteringOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome = nil
			err = fmt.Errorf("clustering job panicked: %v", r)
		}
	}()
	return w.clustering.Run(ctx, job)
}

func (w *Worker) sweepStale(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleTimeout())
	recovered, err := w.store.RecoverStaleJobs(ctx, cutoff)
	if err != nil {
		w.logger.Warn("stale job sweep failed", logging.Error(err))
		return
	}
	if recovered > 0 {
		w.logger.Info("requeued stale jobs", logging.Int("count", recovered))
	}
}

func (w *Worker) waitOrShutdown(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
