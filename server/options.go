package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hupe1980/embedviz/codec"
)

// DefaultOrigins are the origins allowed by default.
var DefaultOrigins = []string{"https://embeddings.svana.name", "http://127.0.0.1:5173"}

const (
	// DefaultRateEvents and DefaultRateInterval allow 30 requests per minute
	// per client address.
	DefaultRateEvents   = 30
	DefaultRateInterval = time.Minute

	// DefaultMaxBodyBytes bounds request bodies.
	DefaultMaxBodyBytes = 1 << 20
)

type options struct {
	rateEvents   int
	rateInterval time.Duration
	origins      []string
	codec        codec.Codec
	logger       *slog.Logger
	maxBodyBytes int64
	extra        map[string]http.Handler
}

// Option configures a Server.
type Option func(*options)

// WithRateLimit allows events requests per interval per client address.
// events <= 0 disables rate limiting.
func WithRateLimit(events int, interval time.Duration) Option {
	return func(o *options) {
		o.rateEvents = events
		o.rateInterval = interval
	}
}

// WithAllowedOrigins replaces the CORS allow-list.
func WithAllowedOrigins(origins ...string) Option {
	return func(o *options) {
		o.origins = origins
	}
}

// WithCodec sets the codec for request and response bodies.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) {
		o.maxBodyBytes = n
	}
}

// WithHandler mounts h at pattern, e.g. "GET /metrics". Extra handlers are
// not rate limited.
func WithHandler(pattern string, h http.Handler) Option {
	return func(o *options) {
		if o.extra == nil {
			o.extra = map[string]http.Handler{}
		}
		o.extra[pattern] = h
	}
}
