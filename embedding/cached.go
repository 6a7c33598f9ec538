package embedding

import (
	"context"
	"slices"

	"github.com/hupe1980/embedviz/internal/cache"
	"github.com/hupe1980/embedviz/internal/resource"
)

// Cached wraps an Embedder and remembers vectors per (model, text).
type Cached struct {
	next  Embedder
	cache cache.VectorCache
}

var _ Embedder = (*Cached)(nil)

// NewCached caches up to capacityBytes of vectors produced by next.
// rc, if non-nil, accounts the cache memory.
func NewCached(next Embedder, capacityBytes int64, rc *resource.Controller) *Cached {
	return &Cached{
		next:  next,
		cache: cache.NewLRU(capacityBytes, rc),
	}
}

func (c *Cached) Model() string { return c.next.Model() }

// Embed serves cached texts locally and sends each distinct miss to the
// wrapped Embedder once. Every returned vector is a fresh copy, so callers may
// modify it without affecting the cache.
func (c *Cached) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	model := c.next.Model()
	out := make([][]float32, len(texts))

	var misses []string
	pending := make(map[string][]int)
	for i, text := range texts {
		if v, ok := c.cache.Get(ctx, cache.Key{Model: model, Text: text}); ok {
			out[i] = slices.Clone(v)
			continue
		}
		if _, seen := pending[text]; !seen {
			misses = append(misses, text)
		}
		pending[text] = append(pending[text], i)
	}
	if len(misses) == 0 {
		return out, nil
	}

	vectors, err := c.next.Embed(ctx, misses)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(misses) {
		return nil, ErrResponseMismatch
	}
	for j, text := range misses {
		c.cache.Set(ctx, cache.Key{Model: model, Text: text}, slices.Clone(vectors[j]))
		for _, i := range pending[text] {
			out[i] = slices.Clone(vectors[j])
		}
	}
	return out, nil
}

// Stats returns the cache hit and miss counters.
func (c *Cached) Stats() (hits, misses int64) {
	return c.cache.Stats()
}
