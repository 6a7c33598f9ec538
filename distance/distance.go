package distance

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrLengthMismatch is returned when two vectors differ in length.
	ErrLengthMismatch = errors.New("distance: vector length mismatch")

	// ErrZeroMagnitude is returned when a cosine is requested for a zero vector.
	ErrZeroMagnitude = errors.New("distance: zero magnitude vector")
)

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// SquaredL2Float64 is SquaredL2 for float64 vectors.
func SquaredL2Float64(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm.
func NormalizeL2InPlace(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	norm2 := Dot(v, v)
	if norm2 == 0 {
		return false
	}
	inv := 1 / float32(math.Sqrt(float64(norm2)))
	for i := range v {
		v[i] *= inv
	}
	return true
}

// NormalizeL2Copy returns a normalized copy of src.
// Returns false if src has zero L2 norm.
func NormalizeL2Copy(src []float32) ([]float32, bool) {
	dst := slices.Clone(src)
	if !NormalizeL2InPlace(dst) {
		return nil, false
	}
	return dst, true
}

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Accumulation happens in float64.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrLengthMismatch, len(a), len(b))
	}
	return cosine(Float64s(a), Float64s(b))
}

func cosine(a, b []float64) (float64, error) {
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0, ErrZeroMagnitude
	}
	c := floats.Dot(a, b) / (na * nb)
	return math.Max(-1, math.Min(1, c)), nil
}

// CosineMatrix returns the symmetric table of pairwise cosine similarities.
// The diagonal is 1.
func CosineMatrix(vectors [][]float32) ([][]float64, error) {
	n := len(vectors)
	vs := make([][]float64, n)
	for i, v := range vectors {
		if len(v) != len(vectors[0]) {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, want %d", ErrLengthMismatch, i, len(v), len(vectors[0]))
		}
		vs[i] = Float64s(v)
	}

	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		out[i][i] = 1
		for j := i + 1; j < n; j++ {
			c, err := cosine(vs[i], vs[j])
			if err != nil {
				return nil, fmt.Errorf("pair (%d, %d): %w", i, j, err)
			}
			out[i][j], out[j][i] = c, c
		}
	}
	return out, nil
}

// Float64s widens a float32 vector.
func Float64s(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// Metric represents the distance metric used for vector comparison.
type Metric int

const (
	MetricL2 Metric = iota
	MetricCosine
	MetricDot
)

func (m Metric) String() string {
	switch m {
	case MetricL2:
		return "L2"
	case MetricCosine:
		return "Cosine"
	case MetricDot:
		return "Dot"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// ParseMetric maps a name as printed by String, or its lower-case form, to a Metric.
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "L2", "l2":
		return MetricL2, nil
	case "Cosine", "cosine":
		return MetricCosine, nil
	case "Dot", "dot":
		return MetricDot, nil
	default:
		return 0, fmt.Errorf("unknown metric %q", s)
	}
}

// Func is a function type for distance calculation.
type Func func(a, b []float32) float32

// Provider returns the distance function for the given metric.
// MetricCosine maps to Dot and expects L2-normalized inputs.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricL2:
		return SquaredL2, nil
	case MetricCosine, MetricDot:
		return Dot, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}
