package pipeline_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"finback/internal/artifact"
	"finback/internal/config"
	"finback/internal/inference"
	"finback/internal/logging"
	"finback/internal/pipeline"
	"finback/internal/queue"
	"finback/internal/signature"
	"finback/internal/storage"
	"finback/internal/testsupport"
)

type processingFixture struct {
	cfg    *config.Config
	store  *queue.Store
	layout *storage.Layout
	runner *pipeline.Processing
}

func newProcessingFixture(t *testing.T, opts ...testsupport.ConfigOption) *processingFixture {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	layout, err := storage.NewLayout(cfg.Paths.StorageDir)
	if err != nil {
		t.Fatalf("storage.NewLayout: %v", err)
	}
	models := inference.NewCache(store, cfg)
	return &processingFixture{
		cfg:    cfg,
		store:  store,
		layout: layout,
		runner: pipeline.NewProcessing(store, layout, models, logging.NewNop()),
	}
}

// ingestTone writes a sine WAV, registers it, and copies it into storage.
func (f *processingFixture) ingestTone(t *testing.T, durationSeconds float64, sampleRate int) *queue.AudioFile {
	t.Helper()

	source := testsupport.WriteWAV(t, filepath.Join(t.TempDir(), "tone.wav"), durationSeconds, sampleRate)
	checksum, err := storage.ChecksumFile(source)
	if err != nil {
		t.Fatalf("ChecksumFile: %v", err)
	}
	file, created, err := f.store.EnsureAudioFile(context.Background(), "tone.wav", "", checksum)
	if err != nil {
		t.Fatalf("EnsureAudioFile: %v", err)
	}
	if !created {
		t.Fatal("expected fresh audio row")
	}
	if _, err := f.layout.IngestAudio(source, file.ID, "tone.wav"); err != nil {
		t.Fatalf("IngestAudio: %v", err)
	}
	return file
}

func (f *processingFixture) enqueueJob(t *testing.T, audioFileID string) *queue.ProcessingJob {
	t.Helper()

	sig, err := signature.Compute(f.cfg.Model.DefaultName, f.cfg.Model.WindowSeconds, f.cfg.Model.SampleRate, nil)
	if err != nil {
		t.Fatalf("signature.Compute: %v", err)
	}
	job, err := f.store.EnqueueProcessingJob(context.Background(), &queue.ProcessingJob{
		AudioFileID:       audioFileID,
		EncodingSignature: sig,
		ModelName:         f.cfg.Model.DefaultName,
		WindowSeconds:     f.cfg.Model.WindowSeconds,
		SampleRate:        f.cfg.Model.SampleRate,
	})
	if err != nil {
		t.Fatalf("EnqueueProcessingJob: %v", err)
	}
	return job
}

func TestProcessingRunPublishesEmbeddingSet(t *testing.T) {
	fixture := newProcessingFixture(t,
		testsupport.WithModel("tiny_model", 8),
		testsupport.WithWindow(5.0, 16000),
	)
	fixture.cfg.Model.InputFormat = queue.InputWaveform
	ctx := context.Background()

	audioFile := fixture.ingestTone(t, 10.0, 16000)
	job := fixture.enqueueJob(t, audioFile.ID)

	claimed, err := fixture.store.ClaimProcessingJob(ctx)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed == nil || claimed.ID != job.ID {
		t.Fatalf("claimed %+v, want %s", claimed, job.ID)
	}

	outcome, err := fixture.runner.Run(ctx, claimed)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.Skipped {
		t.Fatal("first run must not skip")
	}
	set := outcome.EmbeddingSet
	if set.RowCount != 2 {
		t.Fatalf("row count = %d, want 2 windows", set.RowCount)
	}
	if set.VectorDim != 8 {
		t.Fatalf("vector dim = %d, want 8", set.VectorDim)
	}

	matrix, err := artifact.ReadEmbeddings(set.ArtifactPath)
	if err != nil {
		t.Fatalf("ReadEmbeddings: %v", err)
	}
	if len(matrix) != 2 || len(matrix[0]) != 8 {
		t.Fatalf("artifact shape %dx%d, want 2x8", len(matrix), len(matrix[0]))
	}

	refreshed, err := fixture.store.GetAudioFile(ctx, audioFile.ID)
	if err != nil {
		t.Fatalf("GetAudioFile: %v", err)
	}
	if refreshed.DurationSeconds == nil || math.Abs(*refreshed.DurationSeconds-10.0) > 0.05 {
		t.Fatalf("duration not backfilled: %v", refreshed.DurationSeconds)
	}
	if refreshed.SampleRate == nil || *refreshed.SampleRate != 16000 {
		t.Fatalf("sample rate not backfilled: %v", refreshed.SampleRate)
	}
}

func TestProcessingRunSkipsWhenSetExists(t *testing.T) {
	fixture := newProcessingFixture(t,
		testsupport.WithModel("tiny_model", 8),
		testsupport.WithWindow(5.0, 16000),
	)
	fixture.cfg.Model.InputFormat = queue.InputWaveform
	ctx := context.Background()

	audioFile := fixture.ingestTone(t, 10.0, 16000)
	first := fixture.enqueueJob(t, audioFile.ID)

	outcome, err := fixture.runner.Run(ctx, first)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if outcome.Skipped {
		t.Fatal("first run must not skip")
	}

	// The same parameters produce the same signature, so a re-submitted job
	// short-circuits against the published set.
	second := fixture.enqueueJob(t, audioFile.ID)
	again, err := fixture.runner.Run(ctx, second)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !again.Skipped {
		t.Fatal("second run must skip")
	}
	if again.EmbeddingSet.ID != outcome.EmbeddingSet.ID {
		t.Fatalf("skip returned set %s, want %s", again.EmbeddingSet.ID, outcome.EmbeddingSet.ID)
	}
}

func TestProcessingRunSpectrogramInput(t *testing.T) {
	fixture := newProcessingFixture(t,
		testsupport.WithModel("tiny_spec_model", 6),
		testsupport.WithWindow(1.0, 8000),
	)
	ctx := context.Background()

	audioFile := fixture.ingestTone(t, 2.0, 8000)
	job := fixture.enqueueJob(t, audioFile.ID)

	outcome, err := fixture.runner.Run(ctx, job)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	set := outcome.EmbeddingSet
	if set.RowCount != 2 || set.VectorDim != 6 {
		t.Fatalf("unexpected set shape: rows=%d dim=%d", set.RowCount, set.VectorDim)
	}

	matrix, err := artifact.ReadEmbeddings(set.ArtifactPath)
	if err != nil {
		t.Fatalf("ReadEmbeddings: %v", err)
	}
	// Both windows hold identical sine content, so the deterministic model
	// must emit identical vectors.
	for i := range matrix[0] {
		if matrix[0][i] != matrix[1][i] {
			t.Fatalf("windows with identical content produced different vectors at %d", i)
		}
	}
}

func TestProcessingRunFailsWhenAudioFileMissing(t *testing.T) {
	fixture := newProcessingFixture(t, testsupport.WithModel("tiny_model", 8))
	fixture.cfg.Model.InputFormat = queue.InputWaveform
	ctx := context.Background()

	// Registered in the database but never copied into storage.
	file, _, err := fixture.store.EnsureAudioFile(ctx, "ghost.wav", "", "sha256-ghost")
	if err != nil {
		t.Fatalf("EnsureAudioFile: %v", err)
	}
	job := fixture.enqueueJob(t, file.ID)

	if _, err := fixture.runner.Run(ctx, job); err == nil {
		t.Fatal("expected failure for missing audio payload")
	}

	// The artifact path must not exist after a failed run.
	dir := fixture.layout.AudioDir(file.ID)
	if _, statErr := os.Stat(dir); statErr == nil {
		entries, _ := os.ReadDir(dir)
		if len(entries) > 0 {
			t.Fatalf("unexpected files under %s", dir)
		}
	}
}

func TestProcessingRunRejectsUnknownInputFormat(t *testing.T) {
	fixture := newProcessingFixture(t,
		testsupport.WithModel("tiny_model", 8),
		testsupport.WithWindow(1.0, 8000),
	)
	fixture.cfg.Model.InputFormat = "pcm"
	ctx := context.Background()

	audioFile := fixture.ingestTone(t, 1.0, 8000)
	job := fixture.enqueueJob(t, audioFile.ID)

	if _, err := fixture.runner.Run(ctx, job); err == nil {
		t.Fatal("expected failure for unknown input format")
	}
}
