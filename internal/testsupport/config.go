// Package testsupport provides shared fixtures for finback tests: temp
// configs, open stores, and synthetic audio files.
package testsupport

import (
	"path/filepath"
	"testing"

	"finback/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.StorageDir = filepath.Join(base, "storage")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Worker.PollInterval = 1

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithModel overrides the default model identity and vector width. Small
// widths keep embedding fixtures cheap.
func WithModel(name string, vectorDim int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Model.DefaultName = name
		cfg.Model.DisplayName = name
		cfg.Model.VectorDim = vectorDim
	}
}

// WithWindow overrides the default window length and target sample rate.
func WithWindow(windowSeconds float64, sampleRate int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Model.WindowSeconds = windowSeconds
		cfg.Model.SampleRate = sampleRate
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
