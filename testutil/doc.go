// Package testutil provides testing utilities for embedviz.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded generators for embedding-like vectors and helpers
// for exact neighbor rankings.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.UnitVectors(8, 128)         // float32, on the unit sphere
//	rows := rng.DuplicatePairs(4, 16, 1e-3) // float64, twins at 2k and 2k+1
//
// # Exact Neighbors
//
//	nn := testutil.NearestNeighbor(rows, 0)
package testutil
