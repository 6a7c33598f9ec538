package tsne

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/mat"
)

// Result is the outcome of Run.
type Result struct {
	// Embedding has one row of target dimensionality per input point, in input order.
	Embedding [][]float64
	// Sigmas is the calibrated bandwidth of every point.
	Sigmas []float64
	// Perplexities is the perplexity each point actually reached.
	Perplexities []float64
	// Unconverged holds the indices of points whose bandwidth search ran out
	// of iterations.
	Unconverged *roaring.Bitmap
	// Costs is the sampled KL trace. Empty unless a progress callback or an
	// early-stop threshold is configured.
	Costs []CostSample
	// Cost is the KL divergence of the final embedding.
	Cost float64
	// Iterations is the number of optimizer steps that were performed.
	Iterations int
	// EarlyStopped reports whether the cost threshold ended the run.
	EarlyStopped bool
}

// CostSample is one entry of the KL trace.
type CostSample struct {
	Iteration int
	Cost      float64
}

// Transform projects points into dims dimensions and returns the coordinates
// in input order.
func Transform(ctx context.Context, points [][]float64, dims int, opts ...Option) ([][]float64, error) {
	res, err := Run(ctx, points, dims, opts...)
	if err != nil {
		return nil, err
	}
	return res.Embedding, nil
}

// Run projects points into dims dimensions and returns the embedding along
// with calibration and optimization diagnostics.
func Run(ctx context.Context, points [][]float64, dims int, opts ...Option) (*Result, error) {
	cfg := applyOptions(opts)
	if err := cfg.validate(len(points), dims); err != nil {
		return nil, err
	}

	x, err := toDense(points)
	if err != nil {
		return nil, err
	}
	n, _ := x.Dims()

	d := SquaredDistances(x)
	if hi := upperBound(d); math.IsInf(hi, 0) || math.IsNaN(hi) {
		return nil, invalid("pairwise distances overflow")
	}

	cal, err := calibrate(ctx, d, cfg.perplexity, cfg.calibrationIterations, cfg.workers)
	if err != nil {
		return nil, fmt.Errorf("calibrate: %w", err)
	}
	if !cal.Unconverged.IsEmpty() {
		cfg.logger.Debug("bandwidth search did not converge",
			slog.Uint64("points", cal.Unconverged.GetCardinality()),
			slog.Float64("perplexity", cfg.perplexity),
		)
	}

	p := Symmetrize(ConditionalAffinities(d, cal.Sigmas))
	y0 := RandomProjection(n, dims, cfg.initScale, cfg.rng)
	opt := newOptimizer(p, y0, cfg.eta(n), cfg.momentum, cfg.iterations, cfg.workers)

	res := &Result{
		Sigmas:       cal.Sigmas,
		Perplexities: cal.Perplexities,
		Unconverged:  cal.Unconverged,
	}

	sampling := cfg.sampling()
	for t := 0; t < cfg.iterations; t++ {
		// Cancellation is observed at every iteration boundary. Large sweeps
		// also check inside parallelFor.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := opt.step(ctx, t); err != nil {
			return nil, err
		}
		res.Iterations = t + 1

		if !sampling || res.Iterations%cfg.costInterval != 0 {
			continue
		}
		cost := opt.cost()
		res.Costs = append(res.Costs, CostSample{Iteration: res.Iterations, Cost: cost})
		if cfg.progress != nil {
			cfg.progress(res.Iterations, cost)
		}
		if cfg.costThreshold > 0 && cost < cfg.costThreshold {
			res.EarlyStopped = true
			break
		}
	}

	if !allFinite(opt.cur) {
		return nil, ErrDiverged
	}

	res.Cost = opt.cost()
	res.Embedding = toRows(opt.cur)

	cfg.logger.Debug("projection finished",
		slog.Int("points", n),
		slog.Int("dims", dims),
		slog.Int("iterations", res.Iterations),
		slog.Float64("cost", res.Cost),
		slog.Bool("early_stopped", res.EarlyStopped),
	)
	return res, nil
}

func allFinite(m *mat.Dense) bool {
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		for _, v := range m.RawRowView(i) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
