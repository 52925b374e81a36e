package testsupport

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"finback/internal/config"
	"finback/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustAudioFile inserts an audio row with a unique checksum for tests.
func MustAudioFile(t testing.TB, store *queue.Store, filename string) *queue.AudioFile {
	t.Helper()

	file, created, err := store.EnsureAudioFile(context.Background(), filename, "", "sha256-"+uuid.NewString())
	if err != nil {
		t.Fatalf("store.EnsureAudioFile: %v", err)
	}
	if !created {
		t.Fatalf("expected fresh audio row for %s", filename)
	}
	return file
}

// MustProcessingJob enqueues a queued processing job with the given
// signature and repository-default window parameters.
func MustProcessingJob(t testing.TB, store *queue.Store, audioFileID, signature string) *queue.ProcessingJob {
	t.Helper()

	job, err := store.EnqueueProcessingJob(context.Background(), &queue.ProcessingJob{
		AudioFileID:       audioFileID,
		EncodingSignature: signature,
		ModelName:         "test_model",
		WindowSeconds:     5.0,
		SampleRate:        32000,
	})
	if err != nil {
		t.Fatalf("store.EnqueueProcessingJob: %v", err)
	}
	return job
}

// ExecSQL runs a raw statement against the test database through a separate
// connection. Tests use it to rewrite timestamps the store API deliberately
// does not expose.
func ExecSQL(t testing.TB, cfg *config.Config, query string, args ...any) {
	t.Helper()

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

// QuerySQLInt runs a scalar query against the test database and returns the
// integer result.
func QuerySQLInt(t testing.TB, cfg *config.Config, query string, args ...any) int {
	t.Helper()

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	defer db.Close()
	var value int
	if err := db.QueryRow(query, args...).Scan(&value); err != nil {
		t.Fatalf("query %q: %v", query, err)
	}
	return value
}

// UniqueSignature returns a signature-shaped unique string for queue tests
// that do not care about real digests.
func UniqueSignature(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}
