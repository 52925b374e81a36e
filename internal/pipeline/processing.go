package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"finback/internal/artifact"
	"finback/internal/audio"
	"finback/internal/features"
	"finback/internal/inference"
	"finback/internal/logging"
	"finback/internal/queue"
	"finback/internal/storage"
)

// embedBatchSize is the number of windows sent to the model per Embed call.
const embedBatchSize = 32

// Processing runs one processing job: audio file in, embedding artifact out.
type Processing struct {
	store  *queue.Store
	layout *storage.Layout
	models *inference.Cache
	logger *slog.Logger
}

// NewProcessing constructs the processing runner.
func NewProcessing(store *queue.Store, layout *storage.Layout, models *inference.Cache, logger *slog.Logger) *Processing {
	p := &Processing{store: store, layout: layout, models: models}
	p.SetLogger(logger)
	return p
}

// SetLogger updates the runner's logging destination.
func (p *Processing) SetLogger(logger *slog.Logger) {
	p.logger = logging.NewComponentLogger(logger, "processing")
}

// ProcessingOutcome reports what one run produced. Skipped is true when an
// embedding set with the job's signature already existed and no work ran.
type ProcessingOutcome struct {
	EmbeddingSet *queue.EmbeddingSet
	Skipped      bool
}

// Run executes the job and returns its outcome. The caller marks the job
// complete or failed from the return value; Run itself only touches the job
// row to record non-fatal warnings.
func (p *Processing) Run(ctx context.Context, job *queue.ProcessingJob) (*ProcessingOutcome, error) {
	logger := p.logger.With(
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldAudioID, job.AudioFileID),
		logging.String(logging.FieldModel, job.ModelName),
	)

	existing, err := p.store.FindEmbeddingSet(ctx, job.AudioFileID, job.EncodingSignature)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Info("embedding set already published, skipping",
			logging.String(logging.FieldSignature, job.EncodingSignature))
		return &ProcessingOutcome{EmbeddingSet: existing, Skipped: true}, nil
	}

	audioFile, err := p.store.GetAudioFile(ctx, job.AudioFileID)
	if err != nil {
		return nil, err
	}
	if audioFile == nil {
		return nil, fmt.Errorf("audio file %s not found", job.AudioFileID)
	}

	sourcePath, err := p.layout.FindAudioOriginal(audioFile.ID)
	if err != nil {
		return nil, fmt.Errorf("locate audio for %s: %w", audioFile.ID, err)
	}

	samples, nativeRate, err := audio.Decode(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", sourcePath, err)
	}
	duration := float64(len(samples)) / float64(nativeRate)
	if err := p.store.BackfillAudioMedia(ctx, audioFile.ID, duration, nativeRate); err != nil {
		logger.Warn("audio metadata backfill failed", logging.Error(err))
		if warnErr := p.store.SetProcessingWarning(ctx, job.ID,
			fmt.Sprintf("metadata backfill failed: %v", err)); warnErr != nil {
			logger.Warn("could not record processing warning", logging.Error(warnErr))
		}
	}

	samples, err = audio.Resample(samples, nativeRate, job.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("resample %d Hz to %d Hz: %w", nativeRate, job.SampleRate, err)
	}
	windows, err := audio.Window(samples, job.SampleRate, job.WindowSeconds)
	if err != nil {
		return nil, err
	}

	model, inputFormat, err := p.models.Get(ctx, job.ModelName)
	if err != nil {
		return nil, err
	}

	artifactPath := p.layout.EmbeddingPath(job.ModelName, job.AudioFileID, job.EncodingSignature)
	writer, err := artifact.NewWriter(artifactPath, model.VectorDim(), artifact.DefaultBatchSize)
	if err != nil {
		return nil, err
	}
	if err := p.embedWindows(ctx, job, model, inputFormat, windows, writer); err != nil {
		writer.Discard()
		return nil, err
	}
	publishedPath, err := writer.Close()
	if err != nil {
		return nil, err
	}

	set, err := p.store.InsertEmbeddingSet(ctx, &queue.EmbeddingSet{
		AudioFileID:       job.AudioFileID,
		EncodingSignature: job.EncodingSignature,
		ModelName:         job.ModelName,
		WindowSeconds:     job.WindowSeconds,
		SampleRate:        job.SampleRate,
		VectorDim:         model.VectorDim(),
		ArtifactPath:      publishedPath,
		RowCount:          writer.TotalRows(),
	})
	if err != nil {
		return nil, err
	}

	logger.Info("embedding set published",
		logging.String(logging.FieldSignature, job.EncodingSignature),
		logging.String("artifact", publishedPath),
		logging.Int("rows", set.RowCount),
		logging.Int("vector_dim", set.VectorDim),
	)
	return &ProcessingOutcome{EmbeddingSet: set}, nil
}

// embedWindows transforms windows into model inputs per the model's input
// format and streams the resulting vectors into the artifact writer in
// fixed-size batches. Vector order follows window order.
func (p *Processing) embedWindows(ctx context.Context, job *queue.ProcessingJob, model inference.Model, inputFormat string, windows [][]float32, writer *artifact.Writer) error {
	var featureCfg features.Config
	if inputFormat == queue.InputSpectrogram {
		cfg, err := features.ConfigFromMap(job.FeatureConfig)
		if err != nil {
			return err
		}
		featureCfg = cfg
	}

	batch := make([][]float32, 0, embedBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		vectors, err := model.Embed(ctx, batch)
		if err != nil {
			return fmt.Errorf("embed batch: %w", err)
		}
		for _, vector := range vectors {
			if err := writer.Add(vector); err != nil {
				return err
			}
		}
		batch = batch[:0]
		return nil
	}

	for _, window := range windows {
		var input []float32
		switch inputFormat {
		case queue.InputWaveform:
			input = window
		case queue.InputSpectrogram:
			spec, err := features.LogMel(window, job.SampleRate, featureCfg)
			if err != nil {
				return fmt.Errorf("extract features: %w", err)
			}
			input = spec
		default:
			return fmt.Errorf("unknown model input format %q", inputFormat)
		}
		batch = append(batch, input)
		if len(batch) >= embedBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}
