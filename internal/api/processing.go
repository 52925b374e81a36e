package api

import (
	"context"
	"fmt"
	"strings"

	"finback/internal/queue"
	"finback/internal/signature"
)

// CreateProcessingJobRequest describes a processing submission. Zero-valued
// fields fall back to the registry default model and the configured window
// and sample rate.
type CreateProcessingJobRequest struct {
	AudioFileID   string         `json:"audioFileId"`
	ModelName     string         `json:"modelName,omitempty"`
	WindowSeconds float64        `json:"windowSeconds,omitempty"`
	SampleRate    int            `json:"sampleRate,omitempty"`
	FeatureConfig map[string]any `json:"featureConfig,omitempty"`
}

// CreateProcessingJob submits one audio file for embedding extraction. When
// an embedding set already exists for the resulting encoding signature the
// job is recorded as complete immediately and skipped=true is returned, so
// identical work is never queued twice.
func (s *Service) CreateProcessingJob(ctx context.Context, req CreateProcessingJobRequest) (*ProcessingJobView, bool, error) {
	audioFileID := strings.TrimSpace(req.AudioFileID)
	if audioFileID == "" {
		return nil, false, fmt.Errorf("%w: audio file id is required", ErrInvalid)
	}
	audioFile, err := s.store.GetAudioFile(ctx, audioFileID)
	if err != nil {
		return nil, false, err
	}
	if audioFile == nil {
		return nil, false, fmt.Errorf("%w: audio file %s not found", ErrInvalid, audioFileID)
	}

	modelName := strings.TrimSpace(req.ModelName)
	if modelName == "" {
		modelName, err = s.DefaultModelName(ctx)
		if err != nil {
			return nil, false, err
		}
	}
	windowSeconds := req.WindowSeconds
	if windowSeconds <= 0 {
		windowSeconds = s.cfg.Model.WindowSeconds
	}
	sampleRate := req.SampleRate
	if sampleRate <= 0 {
		sampleRate = s.cfg.Model.SampleRate
	}

	sig, err := signature.Compute(modelName, windowSeconds, sampleRate, req.FeatureConfig)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	job := &queue.ProcessingJob{
		AudioFileID:       audioFileID,
		EncodingSignature: sig,
		ModelName:         modelName,
		WindowSeconds:     windowSeconds,
		SampleRate:        sampleRate,
		FeatureConfig:     req.FeatureConfig,
	}

	existing, err := s.store.FindEmbeddingSet(ctx, audioFileID, sig)
	if err != nil {
		return nil, false, err
	}
	skipped := existing != nil
	if skipped {
		job.Status = queue.StatusComplete
	}

	created, err := s.store.EnqueueProcessingJob(ctx, job)
	if err != nil {
		return nil, false, err
	}
	view := FromProcessingJob(created)
	return &view, skipped, nil
}

// ListProcessingJobs returns processing jobs newest first, optionally
// filtered by status.
func (s *Service) ListProcessingJobs(ctx context.Context, statuses ...queue.Status) ([]ProcessingJobView, error) {
	jobs, err := s.store.ListProcessingJobs(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromProcessingJobs(jobs), nil
}

// DescribeProcessingJob fetches one job, returning nil when absent.
func (s *Service) DescribeProcessingJob(ctx context.Context, id string) (*ProcessingJobView, error) {
	job, err := s.store.GetProcessingJob(ctx, id)
	if err != nil || job == nil {
		return nil, err
	}
	view := FromProcessingJob(job)
	return &view, nil
}

// CancelProcessingJob cancels a queued or running job. The boolean reports
// whether the row transitioned; terminal jobs come back unchanged and a
// missing job returns nil.
func (s *Service) CancelProcessingJob(ctx context.Context, id string) (*ProcessingJobView, bool, error) {
	job, changed, err := s.store.CancelProcessingJob(ctx, id)
	if err != nil || job == nil {
		return nil, false, err
	}
	view := FromProcessingJob(job)
	return &view, changed, nil
}
