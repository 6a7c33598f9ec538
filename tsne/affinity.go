package tsne

import (
	"fmt"
	"math"

	"github.com/hupe1980/embedviz/distance"
	"gonum.org/v1/gonum/mat"
)

// sumEpsilon keeps normalizations finite when every kernel value underflows.
const sumEpsilon = 1e-12

// SquaredDistances returns the n×n matrix of pairwise squared Euclidean
// distances between the rows of x. Each pair is computed once, so the result
// is exactly symmetric with a zero diagonal.
func SquaredDistances(x mat.Matrix) *mat.Dense {
	n, _ := x.Dims()
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		xi := rowView(x, i)
		for j := i + 1; j < n; j++ {
			v := distance.SquaredL2Float64(xi, rowView(x, j))
			d.Set(i, j, v)
			d.Set(j, i, v)
		}
	}
	return d
}

// ConditionalAffinities converts squared distances into the conditional
// neighbor distribution of every point. Row i is exp(-D[i][j]/(2σᵢ²))
// normalized to sum to one, with a zero diagonal.
func ConditionalAffinities(d *mat.Dense, sigmas []float64) *mat.Dense {
	n, c := d.Dims()
	if n != c || len(sigmas) != n {
		panic(fmt.Sprintf("tsne: %dx%d distance matrix with %d sigmas", n, c, len(sigmas)))
	}
	p := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		conditionalRow(p.RawRowView(i), d.RawRowView(i), i, sigmas[i])
	}
	return p
}

// conditionalRow fills dst with the normalized Gaussian affinities of point
// self. The smallest off-diagonal distance is subtracted inside the exponent;
// it cancels in the normalization and keeps the nearest neighbor at exp(0).
func conditionalRow(dst, dist []float64, self int, sigma float64) {
	nearest := math.Inf(1)
	for j, d := range dist {
		if j != self && d < nearest {
			nearest = d
		}
	}

	beta := 1 / (2 * sigma * sigma)
	var sum float64
	for j, d := range dist {
		if j == self {
			dst[j] = 0
			continue
		}
		v := math.Exp(-(d - nearest) * beta)
		dst[j] = v
		sum += v
	}

	inv := 1 / (sum + sumEpsilon)
	for j := range dst {
		dst[j] *= inv
	}
}

// Symmetrize turns a conditional affinity matrix into the joint matrix
// P[i][j] = (Pc[i][j] + Pc[j][i]) / 2n.
func Symmetrize(pc *mat.Dense) *mat.Dense {
	n, _ := pc.Dims()
	p := mat.NewDense(n, n, nil)
	scale := 1 / (2 * float64(n))
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := (pc.At(i, j) + pc.At(j, i)) * scale
			p.Set(i, j, v)
			p.Set(j, i, v)
		}
	}
	return p
}

// JointAffinities returns the symmetric joint affinity matrix of x for the
// given bandwidths.
func JointAffinities(x mat.Matrix, sigmas []float64) *mat.Dense {
	return Symmetrize(ConditionalAffinities(SquaredDistances(x), sigmas))
}

func rowView(m mat.Matrix, i int) []float64 {
	if rv, ok := m.(mat.RawRowViewer); ok {
		return rv.RawRowView(i)
	}
	return mat.Row(nil, i, m)
}

// toDense validates points and copies them into a dense matrix.
func toDense(points [][]float64) (*mat.Dense, error) {
	if len(points) < 2 {
		return nil, invalid("at least 2 points are required, got %d", len(points))
	}
	dim := len(points[0])
	if dim == 0 {
		return nil, &InputError{Reason: "empty vector", Row: 0, Col: -1}
	}

	x := mat.NewDense(len(points), dim, nil)
	for i, p := range points {
		if len(p) != dim {
			return nil, &InputError{
				Reason: fmt.Sprintf("dimension mismatch: expected %d, got %d", dim, len(p)),
				Row:    i,
				Col:    -1,
			}
		}
		for j, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &InputError{Reason: "non-finite value", Row: i, Col: j}
			}
		}
		x.SetRow(i, p)
	}
	return x, nil
}

func toRows(m *mat.Dense) [][]float64 {
	n, k := m.Dims()
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, k)
		copy(out[i], m.RawRowView(i))
	}
	return out
}
