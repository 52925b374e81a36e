package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"finback/internal/config"
	"finback/internal/queue"
	"finback/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *queue.Store
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t,
		testsupport.WithModel("fixture_model", 8),
		testsupport.WithWindow(1.0, 8000),
	)
	cfg.Paths.APIBind = ""

	configPath := filepath.Join(t.TempDir(), "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		store:      testsupport.MustOpenStore(t, cfg),
		configPath: configPath,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nstorage_dir = %q\nlog_dir = %q\napi_bind = \"\"\n\n[model]\ndefault_name = %q\nvector_dim = %d\nwindow_seconds = %.1f\nsample_rate = %d\n",
		cfg.Paths.DataDir,
		cfg.Paths.StorageDir,
		cfg.Paths.LogDir,
		cfg.Model.DefaultName,
		cfg.Model.VectorDim,
		cfg.Model.WindowSeconds,
		cfg.Model.SampleRate,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// lastField extracts the trailing token of single-line command output, used
// to capture generated ids from messages like "Added <path> as <id>".
func lastField(t *testing.T, output string) string {
	t.Helper()
	fields := strings.Fields(output)
	if len(fields) == 0 {
		t.Fatalf("no fields in output %q", output)
	}
	return fields[len(fields)-1]
}
