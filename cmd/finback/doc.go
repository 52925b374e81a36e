// Package main hosts the finback CLI entrypoint and command graph.
//
// The Cobra-based command tree covers audio ingestion, job submission,
// queue inspection, model registration, and running the daemon in the
// foreground. Commands operate directly against the queue store through the
// shared service layer in internal/api, so the CLI works whether or not a
// daemon is running; only job execution requires one.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
