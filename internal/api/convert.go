package api

import (
	"time"

	"finback/internal/queue"
)

// FromAudioFile converts an audio row to its API representation.
func FromAudioFile(file *queue.AudioFile) AudioFileView {
	if file == nil {
		return AudioFileView{}
	}
	return AudioFileView{
		ID:              file.ID,
		Filename:        file.Filename,
		FolderPath:      file.FolderPath,
		DurationSeconds: file.DurationSeconds,
		SampleRate:      file.SampleRate,
		ChecksumSHA256:  file.ChecksumSHA256,
		CreatedAt:       FormatTime(file.CreatedAt),
	}
}

// FromAudioFiles converts a slice of audio rows into API DTOs.
func FromAudioFiles(files []*queue.AudioFile) []AudioFileView {
	if len(files) == 0 {
		return nil
	}
	out := make([]AudioFileView, 0, len(files))
	for _, file := range files {
		out = append(out, FromAudioFile(file))
	}
	return out
}

// FromProcessingJob converts a processing job row to its API representation.
func FromProcessingJob(job *queue.ProcessingJob) ProcessingJobView {
	if job == nil {
		return ProcessingJobView{}
	}
	return ProcessingJobView{
		ID:                job.ID,
		AudioFileID:       job.AudioFileID,
		Status:            string(job.Status),
		EncodingSignature: job.EncodingSignature,
		ModelName:         job.ModelName,
		WindowSeconds:     job.WindowSeconds,
		SampleRate:        job.SampleRate,
		FeatureConfig:     job.FeatureConfig,
		ErrorMessage:      job.ErrorMessage,
		WarningMessage:    job.WarningMessage,
		CreatedAt:         FormatTime(job.CreatedAt),
		UpdatedAt:         FormatTime(job.UpdatedAt),
	}
}

// FromProcessingJobs converts a slice of processing job rows into API DTOs.
func FromProcessingJobs(jobs []*queue.ProcessingJob) []ProcessingJobView {
	if len(jobs) == 0 {
		return nil
	}
	out := make([]ProcessingJobView, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromProcessingJob(job))
	}
	return out
}

// FromEmbeddingSet converts an embedding set row to its API representation.
func FromEmbeddingSet(set *queue.EmbeddingSet) EmbeddingSetView {
	if set == nil {
		return EmbeddingSetView{}
	}
	return EmbeddingSetView{
		ID:                set.ID,
		AudioFileID:       set.AudioFileID,
		EncodingSignature: set.EncodingSignature,
		ModelName:         set.ModelName,
		WindowSeconds:     set.WindowSeconds,
		SampleRate:        set.SampleRate,
		VectorDim:         set.VectorDim,
		ArtifactPath:      set.ArtifactPath,
		RowCount:          set.RowCount,
		CreatedAt:         FormatTime(set.CreatedAt),
	}
}

// FromEmbeddingSets converts a slice of embedding set rows into API DTOs.
func FromEmbeddingSets(sets []*queue.EmbeddingSet) []EmbeddingSetView {
	if len(sets) == 0 {
		return nil
	}
	out := make([]EmbeddingSetView, 0, len(sets))
	for _, set := range sets {
		out = append(out, FromEmbeddingSet(set))
	}
	return out
}

// FromClusteringJob converts a clustering job row to its API representation.
func FromClusteringJob(job *queue.ClusteringJob) ClusteringJobView {
	if job == nil {
		return ClusteringJobView{}
	}
	return ClusteringJobView{
		ID:              job.ID,
		Status:          string(job.Status),
		EmbeddingSetIDs: job.EmbeddingSetIDs,
		Params:          job.Params,
		Metrics:         job.Metrics,
		ErrorMessage:    job.ErrorMessage,
		CreatedAt:       FormatTime(job.CreatedAt),
		UpdatedAt:       FormatTime(job.UpdatedAt),
	}
}

// FromClusteringJobs converts a slice of clustering job rows into API DTOs.
func FromClusteringJobs(jobs []*queue.ClusteringJob) []ClusteringJobView {
	if len(jobs) == 0 {
		return nil
	}
	out := make([]ClusteringJobView, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromClusteringJob(job))
	}
	return out
}

// FromCluster converts a cluster row to its API representation.
func FromCluster(cluster *queue.Cluster) ClusterView {
	if cluster == nil {
		return ClusterView{}
	}
	return ClusterView{
		ID:              cluster.ID,
		ClusteringJobID: cluster.ClusteringJobID,
		Label:           cluster.Label,
		Size:            cluster.Size,
		CreatedAt:       FormatTime(cluster.CreatedAt),
	}
}

// FromClusters converts a slice of cluster rows into API DTOs.
func FromClusters(clusters []*queue.Cluster) []ClusterView {
	if len(clusters) == 0 {
		return nil
	}
	out := make([]ClusterView, 0, len(clusters))
	for _, cluster := range clusters {
		out = append(out, FromCluster(cluster))
	}
	return out
}

// FromClusterAssignment converts an assignment row to its API representation.
func FromClusterAssignment(assignment *queue.ClusterAssignment) ClusterAssignmentView {
	if assignment == nil {
		return ClusterAssignmentView{}
	}
	return ClusterAssignmentView{
		ID:             assignment.ID,
		ClusterID:      assignment.ClusterID,
		EmbeddingSetID: assignment.EmbeddingSetID,
		RowIndex:       assignment.RowIndex,
		CreatedAt:      FormatTime(assignment.CreatedAt),
	}
}

// FromClusterAssignments converts a slice of assignment rows into API DTOs.
func FromClusterAssignments(assignments []*queue.ClusterAssignment) []ClusterAssignmentView {
	if len(assignments) == 0 {
		return nil
	}
	out := make([]ClusterAssignmentView, 0, len(assignments))
	for _, assignment := range assignments {
		out = append(out, FromClusterAssignment(assignment))
	}
	return out
}

// FromModelConfig converts a model row to its API representation.
func FromModelConfig(model *queue.ModelConfig) ModelConfigView {
	if model == nil {
		return ModelConfigView{}
	}
	return ModelConfigView{
		ID:          model.ID,
		Name:        model.Name,
		DisplayName: model.DisplayName,
		Runtime:     model.Runtime,
		Endpoint:    model.Endpoint,
		VectorDim:   model.VectorDim,
		InputFormat: model.InputFormat,
		Description: model.Description,
		IsDefault:   model.IsDefault,
		CreatedAt:   FormatTime(model.CreatedAt),
	}
}

// FromModelConfigs converts a slice of model rows into API DTOs.
func FromModelConfigs(models []*queue.ModelConfig) []ModelConfigView {
	if len(models) == 0 {
		return nil
	}
	out := make([]ModelConfigView, 0, len(models))
	for _, model := range models {
		out = append(out, FromModelConfig(model))
	}
	return out
}

// FromStats converts queue stats into the API shape, filling in zero counts
// for absent statuses.
func FromStats(stats *queue.Stats) QueueStatsView {
	view := QueueStatsView{
		Processing: make(map[string]int),
		Clustering: make(map[string]int),
	}
	if stats == nil {
		return view
	}
	for _, status := range queue.AllStatuses() {
		view.Processing[string(status)] = stats.Processing[status]
		view.Clustering[string(status)] = stats.Clustering[status]
	}
	view.AudioFiles = stats.AudioFiles
	view.EmbeddingSets = stats.EmbeddingSets
	return view
}

// FormatTime converts a time to the API timestamp format, or returns an
// empty string for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
