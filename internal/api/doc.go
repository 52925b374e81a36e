// Package api implements the submission and query operations shared by the
// CLI and the HTTP API, plus the wire-format types they return. It translates
// internal queue models into transport-friendly DTOs so consumers never
// couple to internal types.
//
// # Key Types
//
// Service: stateless operations over the queue store and storage layout.
// Uploads, job submissions, cancels, and listings all go through it; the HTTP
// server and the CLI are thin shells around the same calls.
//
// AudioFileView, ProcessingJobView, EmbeddingSetView, ClusteringJobView,
// ClusterView, ClusterAssignmentView, ModelConfigView: transport
// representations of the corresponding queue rows.
//
// StatusResponse/QueueStatsView: daemon running state plus queue and
// inventory counts.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Statuses are exposed as lowercase strings.
// Timestamps use RFC3339 with milliseconds. "Not found" is a nil result with
// a nil error; request validation failures wrap ErrInvalid so transports can
// answer with a client error instead of a server error.
//
// Submissions are idempotent where the data model allows it: audio uploads
// deduplicate by content hash, and a processing job whose encoding signature
// already has a published embedding set is recorded as complete immediately
// with skipped=true.
package api
