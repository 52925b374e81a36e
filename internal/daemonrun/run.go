// Package daemonrun boots the finback daemon process: configuration,
// logging, queue storage, the background worker, and the HTTP API, wired
// for signal-driven shutdown. Both finbackd and `finback daemon` call Run.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"finback/internal/api"
	"finback/internal/config"
	"finback/internal/daemon"
	"finback/internal/inference"
	"finback/internal/logging"
	"finback/internal/pipeline"
	"finback/internal/queue"
	"finback/internal/storage"
	"finback/internal/worker"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides the configured log level when non-empty.
	LogLevel string
}

// Run starts the finback daemon and blocks until the context is canceled or
// a termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.LogDir, "finbackd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}

	seeded, err := store.SeedDefaultModelConfig(signalCtx, defaultModel(cfg))
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("seed default model: %w", err)
	}
	if seeded {
		logger.Info("seeded default embedding model", logging.String("model", cfg.Model.DefaultName))
	}

	layout, err := storage.NewLayout(cfg.Paths.StorageDir)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("init storage layout: %w", err)
	}

	models := inference.NewCache(store, cfg)
	w := worker.New(cfg, store,
		pipeline.NewProcessing(store, layout, models, logger),
		pipeline.NewClustering(store, layout, nil, logger),
		logger,
	)

	d, err := daemon.New(cfg, store, logger, w, api.NewService(cfg, store, layout))
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("finback daemon shutting down")
	d.Stop()
	return nil
}

// defaultModel translates the configured model settings into a registry row
// used to seed an empty model table.
func defaultModel(cfg *config.Config) *queue.ModelConfig {
	return &queue.ModelConfig{
		Name:        cfg.Model.DefaultName,
		DisplayName: cfg.Model.DisplayName,
		Runtime:     cfg.Model.Runtime,
		Endpoint:    cfg.Model.Endpoint,
		VectorDim:   cfg.Model.VectorDim,
		InputFormat: cfg.Model.InputFormat,
		IsDefault:   true,
	}
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
