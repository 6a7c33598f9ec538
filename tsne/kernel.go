package tsne

import (
	"math"

	"github.com/hupe1980/embedviz/distance"
	"gonum.org/v1/gonum/mat"
)

const klEpsilon = 1e-12

// LowDimAffinities returns the joint affinity matrix Q of an embedding using
// the Student-t kernel with one degree of freedom, (1+‖yᵢ-yⱼ‖²)⁻¹, normalized
// by the grand sum over all pairs.
func LowDimAffinities(y mat.Matrix) *mat.Dense {
	n, _ := y.Dims()
	q := mat.NewDense(n, n, nil)
	w := mat.NewDense(n, n, nil)
	kernel(q, w, y)
	return q
}

// kernel writes the unnormalized Student-t values into w and their grand-sum
// normalization into q. Both buffers are n×n and fully overwritten.
func kernel(q, w *mat.Dense, y mat.Matrix) {
	n, _ := y.Dims()
	var sum float64
	for i := 0; i < n; i++ {
		yi := rowView(y, i)
		w.Set(i, i, 0)
		for j := i + 1; j < n; j++ {
			v := 1 / (1 + distance.SquaredL2Float64(yi, rowView(y, j)))
			w.Set(i, j, v)
			w.Set(j, i, v)
			sum += 2 * v
		}
	}
	q.Scale(1/(sum+sumEpsilon), w)
}

// Gradient returns ∂KL(P||Q)/∂Y for the grand-sum normalized Student-t kernel:
//
//	gᵢ = 4·Σⱼ (Pᵢⱼ - Qᵢⱼ)·(1+‖yᵢ-yⱼ‖²)⁻¹·(yᵢ - yⱼ)
func Gradient(p, y mat.Matrix) *mat.Dense {
	n, k := y.Dims()
	yd := mat.DenseCopyOf(y)
	pd := mat.DenseCopyOf(p)
	q := mat.NewDense(n, n, nil)
	w := mat.NewDense(n, n, nil)
	kernel(q, w, yd)

	grad := mat.NewDense(n, k, nil)
	for i := 0; i < n; i++ {
		gradientRow(grad.RawRowView(i), i, pd, q, w, yd)
	}
	return grad
}

func gradientRow(dst []float64, i int, p, q, w, y *mat.Dense) {
	for c := range dst {
		dst[c] = 0
	}
	yi := y.RawRowView(i)
	pi, qi, wi := p.RawRowView(i), q.RawRowView(i), w.RawRowView(i)
	for j := range pi {
		if j == i {
			continue
		}
		mult := (pi[j] - qi[j]) * wi[j]
		yj := y.RawRowView(j)
		for c := range dst {
			dst[c] += mult * (yi[c] - yj[c])
		}
	}
	for c := range dst {
		dst[c] *= 4
	}
}

// KLDivergence returns Σ_{i≠j} P·log(P/Q). Pairs with zero P contribute nothing.
func KLDivergence(p, q mat.Matrix) float64 {
	n, _ := p.Dims()
	var kl float64
	for i := 0; i < n; i++ {
		pi, qi := rowView(p, i), rowView(q, i)
		for j := 0; j < n; j++ {
			if j == i || pi[j] <= 0 {
				continue
			}
			kl += pi[j] * math.Log(pi[j]/math.Max(qi[j], klEpsilon))
		}
	}
	return kl
}
