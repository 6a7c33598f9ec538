package cache

import "context"

// Key identifies one embedding: the same text embedded by different models
// yields unrelated vectors.
type Key struct {
	Model string
	Text  string
}

// VectorCache is a cache for embedding vectors.
// Returned slices must be treated as read-only.
type VectorCache interface {
	// Get returns a cached vector. ok=false if missing.
	Get(ctx context.Context, key Key) (v []float32, ok bool)
	// Set caches a vector. The cache retains v; callers must not modify it.
	Set(ctx context.Context, key Key, v []float32)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key Key) bool)
	// Stats returns cache statistics.
	Stats() (hits, misses int64)
}
