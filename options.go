package embedviz

import (
	"log/slog"
	"os"

	"github.com/hupe1980/embedviz/archive"
	"github.com/hupe1980/embedviz/codec"
	"github.com/hupe1980/embedviz/tsne"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	archive          *archive.Archive
	provider         string
	tsneOptions      []tsne.Option
	projectors       map[string]Projector
	limits           Limits
}

// Option configures an Explorer.
type Option func(*options)

// WithCodec configures the codec used by Report.Encode.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithLogger sets a custom logger for structured logging.
//
// Example:
//
//	logger := embedviz.NewJSONLogger(slog.LevelDebug)
//	ex := embedviz.New(embedder, embedviz.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel sets the log level for the default text logger.
// Ignored when WithLogger is also supplied.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		if o.logger == nil {
			o.logger = NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		}
	}
}

// WithMetricsCollector sets a custom metrics collector.
//
// Example:
//
//	collector := &embedviz.BasicMetricsCollector{}
//	ex := embedviz.New(embedder, embedviz.WithMetricsCollector(collector))
//	...
//	stats := collector.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithArchive enables saving every Compare run that asks for it.
func WithArchive(a *archive.Archive) Option {
	return func(o *options) {
		o.archive = a
	}
}

// WithProvider records the embedding provider name on archived runs.
func WithProvider(name string) Option {
	return func(o *options) {
		o.provider = name
	}
}

// WithTSNEOptions sets base options for the built-in t-SNE projector.
// Per-request Params are applied on top of them.
func WithTSNEOptions(opts ...tsne.Option) Option {
	return func(o *options) {
		o.tsneOptions = append(o.tsneOptions, opts...)
	}
}

// WithProjector registers p under name. Registering "tsne" replaces the
// built-in projector.
func WithProjector(name string, p Projector) Option {
	return func(o *options) {
		if o.projectors == nil {
			o.projectors = map[string]Projector{}
		}
		o.projectors[name] = p
	}
}

// WithLimits replaces DefaultLimits.
func WithLimits(l Limits) Option {
	return func(o *options) {
		o.limits = l
	}
}
