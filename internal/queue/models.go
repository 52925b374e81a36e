package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a job row.
type Status string

const (
	StatusQueued   Status = "queued"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

var allStatuses = []Status{
	StatusQueued,
	StatusRunning,
	StatusComplete,
	StatusFailed,
	StatusCanceled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a job in this status can no longer transition.
// Terminal rows are immune to Complete, Fail, Cancel, and the stale sweep.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusComplete, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// JobKind distinguishes the two queue lanes.
type JobKind string

const (
	KindProcessing JobKind = "processing"
	KindClustering JobKind = "clustering"
)

// Runtime and input format values for ModelConfig.
const (
	RuntimeSynthetic = "synthetic"
	RuntimeHTTP      = "http"

	InputWaveform    = "waveform"
	InputSpectrogram = "spectrogram"
)

// AudioFile is one ingested recording. Duration and sample rate start out
// unset and are backfilled by the first processing job that decodes the
// file.
type AudioFile struct {
	ID              string
	Filename        string
	FolderPath      string
	DurationSeconds *float64
	SampleRate      *int
	ChecksumSHA256  string
	CreatedAt       time.Time
}

// ProcessingJob turns one audio file into an embedding artifact. The
// encoding signature captures the full processing configuration; at most
// one running job may hold a given signature.
type ProcessingJob struct {
	ID                string
	AudioFileID       string
	Status            Status
	EncodingSignature string
	ModelName         string
	WindowSeconds     float64
	SampleRate        int
	FeatureConfig     map[string]any
	ErrorMessage      string
	WarningMessage    string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// EmbeddingSet records one published embedding artifact. The pair
// (audio_file_id, encoding_signature) is unique, which is what makes
// re-submission and re-execution idempotent.
type EmbeddingSet struct {
	ID                string
	AudioFileID       string
	EncodingSignature string
	ModelName         string
	WindowSeconds     float64
	SampleRate        int
	VectorDim         int
	ArtifactPath      string
	RowCount          int
	CreatedAt         time.Time
}

// ClusteringJob groups rows from one or more embedding sets into clusters.
type ClusteringJob struct {
	ID              string
	Status          Status
	EmbeddingSetIDs []string
	Params          map[string]any
	Metrics         map[string]any
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Cluster is one label produced by a clustering job. Label -1 is reserved
// for noise rows.
type Cluster struct {
	ID              string
	ClusteringJobID string
	Label           int
	Size            int
	CreatedAt       time.Time
}

// ClusterAssignment maps one embedding row to a cluster.
type ClusterAssignment struct {
	ID             string
	ClusterID      string
	EmbeddingSetID string
	RowIndex       int
	CreatedAt      time.Time
}

// ModelConfig describes a registered embedding model.
type ModelConfig struct {
	ID          string
	Name        string
	DisplayName string
	Runtime     string
	Endpoint    string
	VectorDim   int
	InputFormat string
	Description string
	IsDefault   bool
	CreatedAt   time.Time
}

// RowRef identifies one row of one embedding set.
type RowRef struct {
	EmbeddingSetID string
	RowIndex       int
}

// ClusterWrite describes one cluster and its member rows for persistence.
type ClusterWrite struct {
	Label   int
	Members []RowRef
}

// Stats aggregates row counts for status displays.
type Stats struct {
	Processing    map[Status]int
	Clustering    map[Status]int
	AudioFiles    int
	EmbeddingSets int
}
