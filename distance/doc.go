// Package distance provides vector distance calculations.
//
// Embedding vectors arrive from providers as float32. Similarity tables are
// accumulated in float64 so that rankings of near-duplicate texts stay stable.
//
// # Supported Metrics
//
//   - MetricL2: Squared Euclidean distance (default)
//   - MetricCosine: Cosine similarity (normalized dot product)
//   - MetricDot: Dot product (inner product)
//
// # Usage
//
//	dist := distance.SquaredL2(a, b)
//	sim, err := distance.Cosine(a, b)
//	table, err := distance.CosineMatrix(vectors)
package distance
