// Package storage defines the on-disk artifact layout and the file
// operations that feed it.
//
// All artifacts live under a single storage root: ingested originals under
// audio/raw/<audio_id>/, embedding Parquet datasets under
// embeddings/<model>/<audio_id>/, and clustering outputs under
// clusters/<job_id>/. Path construction is centralized here so the pipeline,
// API, and CLI never assemble artifact paths by hand.
package storage
