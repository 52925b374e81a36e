// Package worker drains the job queue. A single goroutine claims processing
// jobs first, then clustering jobs, runs them through the pipeline, and
// records the terminal status. Idle periods poll on a configurable interval
// and periodically requeue jobs abandoned by dead workers.
package worker
