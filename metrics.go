package embedviz

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus;
// see the promcollector package for a ready-made adapter.
type MetricsCollector interface {
	// RecordEmbed is called after each embedding call.
	// texts is the number of texts sent, err is nil if successful.
	RecordEmbed(model string, texts int, duration time.Duration, err error)

	// RecordTransform is called after each projection.
	RecordTransform(method string, points int, duration time.Duration, err error)

	// RecordEarlyStop is called when a projection ends on its cost threshold.
	RecordEarlyStop(method string)

	// RecordArchive is called after each archive write.
	RecordArchive(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordEmbed(string, int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordTransform(string, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordEarlyStop(string)                            {}
func (NoopMetricsCollector) RecordArchive(time.Duration, error)                {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	EmbedCount          atomic.Int64
	EmbedErrors         atomic.Int64
	EmbedTexts          atomic.Int64
	EmbedTotalNanos     atomic.Int64
	TransformCount      atomic.Int64
	TransformErrors     atomic.Int64
	TransformPoints     atomic.Int64
	TransformTotalNanos atomic.Int64
	EarlyStops          atomic.Int64
	ArchiveCount        atomic.Int64
	ArchiveErrors       atomic.Int64
}

// RecordEmbed implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEmbed(_ string, texts int, duration time.Duration, err error) {
	b.EmbedCount.Add(1)
	b.EmbedTexts.Add(int64(texts))
	b.EmbedTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.EmbedErrors.Add(1)
	}
}

// RecordTransform implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTransform(_ string, points int, duration time.Duration, err error) {
	b.TransformCount.Add(1)
	b.TransformPoints.Add(int64(points))
	b.TransformTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.TransformErrors.Add(1)
	}
}

// RecordEarlyStop implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEarlyStop(string) {
	b.EarlyStops.Add(1)
}

// RecordArchive implements MetricsCollector.
func (b *BasicMetricsCollector) RecordArchive(_ time.Duration, err error) {
	b.ArchiveCount.Add(1)
	if err != nil {
		b.ArchiveErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		EmbedCount:        b.EmbedCount.Load(),
		EmbedErrors:       b.EmbedErrors.Load(),
		EmbedTexts:        b.EmbedTexts.Load(),
		EmbedAvgNanos:     avg(b.EmbedTotalNanos.Load(), b.EmbedCount.Load()),
		TransformCount:    b.TransformCount.Load(),
		TransformErrors:   b.TransformErrors.Load(),
		TransformPoints:   b.TransformPoints.Load(),
		TransformAvgNanos: avg(b.TransformTotalNanos.Load(), b.TransformCount.Load()),
		EarlyStops:        b.EarlyStops.Load(),
		ArchiveCount:      b.ArchiveCount.Load(),
		ArchiveErrors:     b.ArchiveErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	EmbedCount        int64
	EmbedErrors       int64
	EmbedTexts        int64
	EmbedAvgNanos     int64
	TransformCount    int64
	TransformErrors   int64
	TransformPoints   int64
	TransformAvgNanos int64
	EarlyStops        int64
	ArchiveCount      int64
	ArchiveErrors     int64
}
