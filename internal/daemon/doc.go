// Package daemon coordinates the long-running finback process.
//
// It wires configuration, the queue store, and the background worker into a
// single lifecycle with flock-based locking to prevent multiple instances,
// and serves the HTTP submission and query API when a bind address is
// configured. Job execution lives in the worker and pipeline packages; the
// daemon focuses on startup, shutdown, and request plumbing.
package daemon
