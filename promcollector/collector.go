// Package promcollector exports embedviz metrics to Prometheus.
package promcollector

import (
	"time"

	"github.com/hupe1980/embedviz"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "embedviz"

var _ embedviz.MetricsCollector = (*Collector)(nil)

// Collector implements embedviz.MetricsCollector on client_golang metrics.
type Collector struct {
	latency    *prometheus.HistogramVec
	items      *prometheus.HistogramVec
	operations *prometheus.CounterVec
	earlyStops *prometheus.CounterVec
}

// New creates a Collector and registers its metrics with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of embed, transform and archive operations",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"op", "status"}),
		items: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_items",
			Help:      "Texts embedded or points projected per operation",
			Buckets:   prometheus.ExponentialBuckets(2, 2, 10),
		}, []string{"op"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Operations by kind, label and outcome",
		}, []string{"op", "label", "status"}),
		earlyStops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "early_stops_total",
			Help:      "Projections that ended on their cost threshold",
		}, []string{"method"}),
	}
	for _, m := range []prometheus.Collector{c.latency, c.items, c.operations, c.earlyStops} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordEmbed implements embedviz.MetricsCollector.
func (c *Collector) RecordEmbed(model string, texts int, d time.Duration, err error) {
	c.latency.WithLabelValues("embed", status(err)).Observe(d.Seconds())
	c.items.WithLabelValues("embed").Observe(float64(texts))
	c.operations.WithLabelValues("embed", model, status(err)).Inc()
}

// RecordTransform implements embedviz.MetricsCollector.
func (c *Collector) RecordTransform(method string, points int, d time.Duration, err error) {
	c.latency.WithLabelValues("transform", status(err)).Observe(d.Seconds())
	c.items.WithLabelValues("transform").Observe(float64(points))
	c.operations.WithLabelValues("transform", method, status(err)).Inc()
}

// RecordEarlyStop implements embedviz.MetricsCollector.
func (c *Collector) RecordEarlyStop(method string) {
	c.earlyStops.WithLabelValues(method).Inc()
}

// RecordArchive implements embedviz.MetricsCollector.
func (c *Collector) RecordArchive(d time.Duration, err error) {
	c.latency.WithLabelValues("archive", status(err)).Observe(d.Seconds())
	c.operations.WithLabelValues("archive", "", status(err)).Inc()
}
