package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"finback/internal/api"
	"finback/internal/config"
	"finback/internal/logging"
	"finback/internal/queue"
	"finback/internal/worker"
)

// Daemon owns the background worker and HTTP API lifecycles and enforces
// single-instance execution through a lock file under the log directory.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *queue.Store
	worker *worker.Worker
	api    *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies. The HTTP API is
// only served when the config carries a bind address.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, w *worker.Worker, svc *api.Service) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || w == nil {
		return nil, errors.New("daemon requires config, store, logger, and worker")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "finbackd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		worker:   w,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	apiSrv, err := newAPIServer(cfg, d, svc, logger)
	if err != nil {
		return nil, err
	}
	d.api = apiSrv
	return d, nil
}

// Start acquires the daemon lock, launches the worker, and begins serving
// the HTTP API when one is configured.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another finback daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.worker.Start(d.ctx); err != nil {
		d.releaseStartup()
		return fmt.Errorf("start worker: %w", err)
	}
	if err := d.api.start(d.ctx); err != nil {
		d.worker.Stop()
		d.releaseStartup()
		return fmt.Errorf("start api server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("finback daemon started", logging.String("lock", d.lockPath))
	return nil
}

func (d *Daemon) releaseStartup() {
	_ = d.lock.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
	d.ctx = nil
	d.cancel = nil
}

// Stop halts the API server and background processing, then releases the
// daemon lock. A running job finishes its current attempt before the worker
// goroutine exits.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.worker.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("finback daemon stopped")
}

// Close stops the daemon and releases the queue store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
	}
}
