package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// AudioFileView describes an ingested recording in a transport-friendly
// format.
type AudioFileView struct {
	ID              string   `json:"id"`
	Filename        string   `json:"filename"`
	FolderPath      string   `json:"folderPath,omitempty"`
	DurationSeconds *float64 `json:"durationSeconds,omitempty"`
	SampleRate      *int     `json:"sampleRate,omitempty"`
	ChecksumSHA256  string   `json:"checksumSha256"`
	CreatedAt       string   `json:"createdAt,omitempty"`
}

// ProcessingJobView describes one embedding-extraction job.
type ProcessingJobView struct {
	ID                string         `json:"id"`
	AudioFileID       string         `json:"audioFileId"`
	Status            string         `json:"status"`
	EncodingSignature string         `json:"encodingSignature"`
	ModelName         string         `json:"modelName"`
	WindowSeconds     float64        `json:"windowSeconds"`
	SampleRate        int            `json:"sampleRate"`
	FeatureConfig     map[string]any `json:"featureConfig,omitempty"`
	ErrorMessage      string         `json:"errorMessage,omitempty"`
	WarningMessage    string         `json:"warningMessage,omitempty"`
	CreatedAt         string         `json:"createdAt,omitempty"`
	UpdatedAt         string         `json:"updatedAt,omitempty"`
}

// EmbeddingSetView describes one published embedding artifact.
type EmbeddingSetView struct {
	ID                string  `json:"id"`
	AudioFileID       string  `json:"audioFileId"`
	EncodingSignature string  `json:"encodingSignature"`
	ModelName         string  `json:"modelName"`
	WindowSeconds     float64 `json:"windowSeconds"`
	SampleRate        int     `json:"sampleRate"`
	VectorDim         int     `json:"vectorDim"`
	ArtifactPath      string  `json:"artifactPath"`
	RowCount          int     `json:"rowCount"`
	CreatedAt         string  `json:"createdAt,omitempty"`
}

// ClusteringJobView describes one clustering job.
type ClusteringJobView struct {
	ID              string         `json:"id"`
	Status          string         `json:"status"`
	EmbeddingSetIDs []string       `json:"embeddingSetIds"`
	Params          map[string]any `json:"params,omitempty"`
	Metrics         map[string]any `json:"metrics,omitempty"`
	ErrorMessage    string         `json:"errorMessage,omitempty"`
	CreatedAt       string         `json:"createdAt,omitempty"`
	UpdatedAt       string         `json:"updatedAt,omitempty"`
}

// ClusterView describes one cluster produced by a clustering job. Label -1
// is the noise bucket.
type ClusterView struct {
	ID              string `json:"id"`
	ClusteringJobID string `json:"clusteringJobId"`
	Label           int    `json:"label"`
	Size            int    `json:"size"`
	CreatedAt       string `json:"createdAt,omitempty"`
}

// ClusterAssignmentView maps one embedding row to a cluster.
type ClusterAssignmentView struct {
	ID             string `json:"id"`
	ClusterID      string `json:"clusterId"`
	EmbeddingSetID string `json:"embeddingSetId"`
	RowIndex       int    `json:"rowIndex"`
	CreatedAt      string `json:"createdAt,omitempty"`
}

// ModelConfigView describes one registered embedding model.
type ModelConfigView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Runtime     string `json:"runtime"`
	Endpoint    string `json:"endpoint,omitempty"`
	VectorDim   int    `json:"vectorDim"`
	InputFormat string `json:"inputFormat"`
	Description string `json:"description,omitempty"`
	IsDefault   bool   `json:"isDefault"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// QueueStatsView aggregates queue and inventory counts. Every known status
// is present in the maps so tables render with stable rows.
type QueueStatsView struct {
	Processing    map[string]int `json:"processing"`
	Clustering    map[string]int `json:"clustering"`
	AudioFiles    int            `json:"audioFiles"`
	EmbeddingSets int            `json:"embeddingSets"`
}

// StatusResponse aggregates daemon runtime information.
type StatusResponse struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	DatabasePath string         `json:"databasePath"`
	LockFilePath string         `json:"lockFilePath,omitempty"`
	DefaultModel string         `json:"defaultModel,omitempty"`
	Queue        QueueStatsView `json:"queue"`
}

// AudioIngestResponse reports the stored audio row and whether this upload
// created it.
type AudioIngestResponse struct {
	AudioFileView
	Created bool `json:"created"`
}

// AudioListResponse wraps a collection of audio files.
type AudioListResponse struct {
	Files []AudioFileView `json:"files"`
}

// AudioFileResponse wraps a single audio file.
type AudioFileResponse struct {
	File AudioFileView `json:"file"`
}

// ProcessingSubmitResponse reports a submitted processing job and whether it
// short-circuited against an existing embedding set.
type ProcessingSubmitResponse struct {
	Job     ProcessingJobView `json:"job"`
	Skipped bool              `json:"skipped"`
}

// ProcessingJobResponse wraps a single processing job.
type ProcessingJobResponse struct {
	Job ProcessingJobView `json:"job"`
}

// ProcessingJobListResponse wraps a collection of processing jobs.
type ProcessingJobListResponse struct {
	Jobs []ProcessingJobView `json:"jobs"`
}

// ProcessingCancelResponse reports a cancel request. Canceled is false when
// the job had already reached a terminal state.
type ProcessingCancelResponse struct {
	Job      ProcessingJobView `json:"job"`
	Canceled bool              `json:"canceled"`
}

// EmbeddingSetListResponse wraps a collection of embedding sets.
type EmbeddingSetListResponse struct {
	Sets []EmbeddingSetView `json:"embeddingSets"`
}

// EmbeddingSetResponse wraps a single embedding set.
type EmbeddingSetResponse struct {
	Set EmbeddingSetView `json:"embeddingSet"`
}

// ClusteringJobResponse wraps a single clustering job.
type ClusteringJobResponse struct {
	Job ClusteringJobView `json:"job"`
}

// ClusteringJobListResponse wraps a collection of clustering jobs.
type ClusteringJobListResponse struct {
	Jobs []ClusteringJobView `json:"jobs"`
}

// ClusteringCancelResponse reports a cancel request for a clustering job.
type ClusteringCancelResponse struct {
	Job      ClusteringJobView `json:"job"`
	Canceled bool              `json:"canceled"`
}

// ClusterListResponse wraps the clusters of one job.
type ClusterListResponse struct {
	Clusters []ClusterView `json:"clusters"`
}

// AssignmentListResponse wraps the row assignments of one cluster.
type AssignmentListResponse struct {
	Assignments []ClusterAssignmentView `json:"assignments"`
}

// ModelListResponse wraps the registered models.
type ModelListResponse struct {
	Models []ModelConfigView `json:"models"`
}

// ModelResponse wraps a single registered model.
type ModelResponse struct {
	Model ModelConfigView `json:"model"`
}
