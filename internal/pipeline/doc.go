// Package pipeline executes claimed jobs end-to-end.
//
// Processing turns one audio file into a published embedding artifact:
// decode, resample, window, optional feature extraction, batched inference,
// atomic Parquet publish, and the embedding_sets row. Clustering loads the
// rows of one or more embedding sets, partitions them, persists clusters and
// assignments, and writes the summary and projection side artifacts.
//
// Runners report success or failure to the caller; the worker owns the job
// status transitions. A runner never completes or fails a job row itself,
// which keeps the terminal-state rules in one place.
package pipeline
