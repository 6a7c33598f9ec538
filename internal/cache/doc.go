// Package cache provides an LRU cache for embedding vectors.
//
// Entries are keyed by (model, text) and sized by their float32 payload.
// When a resource.Controller is attached, cached bytes are accounted against
// its memory limit and an entry is skipped rather than admitted over budget.
package cache
