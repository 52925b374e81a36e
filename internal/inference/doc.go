// Package inference provides the embedding model contract and its backends.
//
// Models embed batches of input windows into fixed-width vectors, preserving
// batch order. The synthetic backend computes deterministic vectors locally
// and doubles as the test model; the http backend forwards batches to a
// remote inference server. Loaded models are shared through a Cache keyed by
// registry name.
package inference
