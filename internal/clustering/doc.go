// Package clustering groups embedding rows into clusters.
//
// The engine contract is a single call: reduce the embedding matrix, assign
// a label per row with -1 marking noise, and optionally return a 2-D
// projection for visualization. The default engine centers the matrix,
// reduces it with PCA, partitions with k-means, and relabels undersized
// clusters as noise. The pipeline treats the engine as opaque, so a
// different algorithm can be swapped in without touching job handling.
package clustering
