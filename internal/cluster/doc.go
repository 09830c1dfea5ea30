// Package cluster implements the topic clustering engine.
//
// Articles are grouped by semantic embeddings when an embedding provider is
// available, using a density-based algorithm that labels outliers as noise
// instead of forcing them into a cluster. When the provider is unavailable,
// or the batch is too small for density estimation, a deterministic keyword
// classifier over article titles takes over. Oversized clusters are split
// one level deep into sub-clusters in a dedicated ID namespace.
package cluster
