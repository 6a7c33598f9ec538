package tsne

import (
	"log/slog"
	"math"
	"math/rand"
	"runtime"
	"time"
)

const (
	// DefaultPerplexity is the effective neighbor count used when none is configured.
	DefaultPerplexity = 4.0
	// DefaultIterations is the optimizer iteration budget.
	DefaultIterations = 500
	// DefaultCalibrationIterations bounds the per-point bandwidth search.
	DefaultCalibrationIterations = 50
	// DefaultInitScale bounds the uniform noise of the initial embedding.
	DefaultInitScale = 1e-2
	// DefaultCostInterval is how often (in iterations) the KL cost is sampled
	// when a progress callback or an early-stop threshold is configured.
	DefaultCostInterval = 50

	// MaxEmbeddingValues bounds points×dims of the embedding. Run rejects
	// larger requests.
	MaxEmbeddingValues = 1 << 24
)

// ProgressFunc receives the number of completed iterations and the current KL cost.
type ProgressFunc func(iteration int, cost float64)

type config struct {
	perplexity            float64
	iterations            int
	calibrationIterations int
	learningRate          float64 // 0 selects max(n/4, 1)
	momentum              bool
	initScale             float64
	rng                   *rand.Rand
	workers               int
	logger                *slog.Logger
	progress              ProgressFunc
	costInterval          int
	costThreshold         float64
}

// Option configures Transform and Run.
type Option func(*config)

// WithPerplexity sets the target perplexity (effective neighbor count).
func WithPerplexity(perplexity float64) Option {
	return func(c *config) {
		c.perplexity = perplexity
	}
}

// WithIterations sets the optimizer iteration budget.
func WithIterations(iterations int) Option {
	return func(c *config) {
		c.iterations = iterations
	}
}

// WithCalibrationIterations sets the maximum number of binary-search steps per point.
func WithCalibrationIterations(iterations int) Option {
	return func(c *config) {
		c.calibrationIterations = iterations
	}
}

// WithLearningRate sets the gradient step size η.
//
// Zero restores the default, which scales with the number of points as
// max(n/4, 1). Joint affinities shrink as 1/n, so the scaled rate keeps the
// per-pair step bounded for both tiny and large inputs.
func WithLearningRate(eta float64) Option {
	return func(c *config) {
		c.learningRate = eta
	}
}

// WithoutMomentum disables the momentum term and runs plain gradient descent.
func WithoutMomentum() Option {
	return func(c *config) {
		c.momentum = false
	}
}

// WithInitScale sets the bound of the uniform noise used for the initial embedding.
func WithInitScale(scale float64) Option {
	return func(c *config) {
		c.initScale = scale
	}
}

// WithSeed makes the initial embedding reproducible.
func WithSeed(seed int64) Option {
	return func(c *config) {
		c.rng = rand.New(rand.NewSource(seed)) //nolint:gosec
	}
}

// WithRand injects the random source used for the initial embedding.
// The source is not safe for concurrent use; do not share it between runs.
func WithRand(rng *rand.Rand) Option {
	return func(c *config) {
		c.rng = rng
	}
}

// WithWorkers bounds the goroutines used by calibration and the gradient sweep.
// Values below 1 run everything on the calling goroutine.
func WithWorkers(workers int) Option {
	return func(c *config) {
		c.workers = workers
	}
}

// WithLogger sets the logger used for debug diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithProgress registers a callback invoked every cost interval.
func WithProgress(fn ProgressFunc) Option {
	return func(c *config) {
		c.progress = fn
	}
}

// WithCostInterval sets how often the KL cost is sampled.
func WithCostInterval(every int) Option {
	return func(c *config) {
		c.costInterval = every
	}
}

// WithEarlyStop stops the optimization once a sampled KL cost drops below threshold.
func WithEarlyStop(threshold float64) Option {
	return func(c *config) {
		c.costThreshold = threshold
	}
}

func applyOptions(opts []Option) config {
	c := config{
		perplexity:            DefaultPerplexity,
		iterations:            DefaultIterations,
		calibrationIterations: DefaultCalibrationIterations,
		momentum:              true,
		initScale:             DefaultInitScale,
		workers:               runtime.GOMAXPROCS(0),
		costInterval:          DefaultCostInterval,
	}
	for _, fn := range opts {
		if fn != nil {
			fn(&c)
		}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec
	}
	return c
}

func (c *config) validate(n, dims int) error {
	switch {
	case dims < 1:
		return invalid("target dimensionality must be at least 1, got %d", dims)
	case n > 0 && dims > MaxEmbeddingValues/n:
		return invalid("embedding of %d points in %d dimensions exceeds %d values", n, dims, MaxEmbeddingValues)
	case !(c.perplexity > 0) || math.IsInf(c.perplexity, 0):
		return invalid("perplexity must be positive and finite, got %v", c.perplexity)
	case c.iterations < 1:
		return invalid("iterations must be at least 1, got %d", c.iterations)
	case c.calibrationIterations < 1:
		return invalid("calibration iterations must be at least 1, got %d", c.calibrationIterations)
	case c.learningRate < 0 || math.IsNaN(c.learningRate) || math.IsInf(c.learningRate, 0):
		return invalid("learning rate must be non-negative and finite, got %v", c.learningRate)
	case !(c.initScale > 0) || math.IsInf(c.initScale, 0):
		return invalid("init scale must be positive and finite, got %v", c.initScale)
	}
	return nil
}

func (c *config) eta(n int) float64 {
	if c.learningRate > 0 {
		return c.learningRate
	}
	return max(float64(n)/4, 1)
}

func (c *config) sampling() bool {
	return c.costInterval > 0 && (c.progress != nil || c.costThreshold > 0)
}
