package embedviz

import (
	"context"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/embedviz/tsne"
)

// MethodTSNE is the key of the built-in t-SNE projector.
const MethodTSNE = "tsne"

// Params tune a single projection. Zero values select the projector defaults.
type Params struct {
	Dimensions    int     `json:"dimensions"`
	Perplexity    float64 `json:"perplexity,omitempty"`
	Iterations    int     `json:"iterations,omitempty"`
	LearningRate  float64 `json:"learning_rate,omitempty"`
	Seed          *int64  `json:"seed,omitempty"`
	CostThreshold float64 `json:"cost_threshold,omitempty"`
}

// Projection is the low-dimensional layout of a point set.
type Projection struct {
	Coordinates  [][]float64
	Cost         float64
	Iterations   int
	EarlyStopped bool
	// Unconverged holds the points whose calibration did not converge. May be nil.
	Unconverged *roaring.Bitmap
}

// Projector maps high-dimensional points to Params.Dimensions dimensions.
// Implementations must be safe for concurrent use.
type Projector interface {
	Project(ctx context.Context, points [][]float64, params Params) (*Projection, error)
}

// ProjectorFunc adapts a function to the Projector interface.
type ProjectorFunc func(ctx context.Context, points [][]float64, params Params) (*Projection, error)

// Project implements Projector.
func (f ProjectorFunc) Project(ctx context.Context, points [][]float64, params Params) (*Projection, error) {
	return f(ctx, points, params)
}

// TSNEProjector projects with exact t-SNE. Options are applied before the
// per-request Params.
type TSNEProjector struct {
	Options []tsne.Option
}

// Project implements Projector.
func (p TSNEProjector) Project(ctx context.Context, points [][]float64, params Params) (*Projection, error) {
	opts := append([]tsne.Option(nil), p.Options...)
	if params.Perplexity != 0 {
		opts = append(opts, tsne.WithPerplexity(params.Perplexity))
	}
	if params.Iterations != 0 {
		opts = append(opts, tsne.WithIterations(params.Iterations))
	}
	if params.LearningRate != 0 {
		opts = append(opts, tsne.WithLearningRate(params.LearningRate))
	}
	if params.Seed != nil {
		opts = append(opts, tsne.WithSeed(*params.Seed))
	}
	if params.CostThreshold != 0 {
		opts = append(opts, tsne.WithEarlyStop(params.CostThreshold))
	}

	res, err := tsne.Run(ctx, points, params.Dimensions, opts...)
	if err != nil {
		return nil, err
	}
	return &Projection{
		Coordinates:  res.Embedding,
		Cost:         res.Cost,
		Iterations:   res.Iterations,
		EarlyStopped: res.EarlyStopped,
		Unconverged:  res.Unconverged,
	}, nil
}

// registry maps method keys to projectors.
type registry struct {
	mu         sync.RWMutex
	projectors map[string]Projector
}

func newRegistry() *registry {
	return &registry{projectors: map[string]Projector{}}
}

func (r *registry) register(name string, p Projector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projectors[name] = p
}

func (r *registry) lookup(name string) (Projector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projectors[name]
	return p, ok
}

func (r *registry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.projectors))
	for name := range r.projectors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
