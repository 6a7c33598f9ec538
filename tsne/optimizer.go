package tsne

import (
	"context"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Momentum returns the momentum coefficient for iteration t of a run with
// maxIter iterations. It ramps linearly from 0.5 to 0.8.
func Momentum(t, maxIter int) float64 {
	if maxIter <= 0 {
		return 0.5
	}
	return 0.5 + 0.3*float64(t)/float64(maxIter)
}

// RandomProjection returns an n×k embedding with every coordinate drawn
// uniformly from [-scale, scale).
func RandomProjection(n, k int, scale float64, rng *rand.Rand) *mat.Dense {
	data := make([]float64, n*k)
	for i := range data {
		data[i] = (rng.Float64()*2 - 1) * scale
	}
	return mat.NewDense(n, k, data)
}

// optimizer owns the embedding state of one run. cur and prev are swapped at
// every iteration boundary; q, w and grad are scratch buffers reused across
// iterations.
type optimizer struct {
	p         *mat.Dense
	cur, prev *mat.Dense
	q, w      *mat.Dense
	grad      *mat.Dense

	eta      float64
	momentum bool
	maxIter  int
	workers  int
}

func newOptimizer(p, y0 *mat.Dense, eta float64, momentum bool, maxIter, workers int) *optimizer {
	n, k := y0.Dims()
	return &optimizer{
		p:        p,
		cur:      y0,
		prev:     mat.DenseCopyOf(y0),
		q:        mat.NewDense(n, n, nil),
		w:        mat.NewDense(n, n, nil),
		grad:     mat.NewDense(n, k, nil),
		eta:      eta,
		momentum: momentum,
		maxIter:  maxIter,
		workers:  workers,
	}
}

// step performs iteration t:
//
//	Y_new = Y - η·g + m(t)·(Y - Y_prev)
//
// Y_new is written into the prev buffer, which then becomes current.
func (o *optimizer) step(ctx context.Context, t int) error {
	kernel(o.q, o.w, o.cur)

	n, _ := o.cur.Dims()
	err := parallelFor(ctx, n, o.workers, func(i int) error {
		gradientRow(o.grad.RawRowView(i), i, o.p, o.q, o.w, o.cur)
		return nil
	})
	if err != nil {
		return err
	}

	var m float64
	if o.momentum {
		m = Momentum(t, o.maxIter)
	}
	for i := 0; i < n; i++ {
		y, yp, g := o.cur.RawRowView(i), o.prev.RawRowView(i), o.grad.RawRowView(i)
		for c := range y {
			yp[c] = y[c] - o.eta*g[c] + m*(y[c]-yp[c])
		}
	}
	o.cur, o.prev = o.prev, o.cur
	return nil
}

// cost returns KL(P||Q) for the current embedding.
func (o *optimizer) cost() float64 {
	kernel(o.q, o.w, o.cur)
	return KLDivergence(o.p, o.q)
}
