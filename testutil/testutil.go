package testutil

import (
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/hupe1980/embedviz/distance"
)

// Neighbor is one entry of an exact neighbor ranking.
type Neighbor struct {
	Index    int
	Distance float64
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float32 in a loop).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// UniformVectors generates random float32 vectors with values in range [0, 1).
// Uses a single backing array.
func (r *RNG) UniformVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.Float32()
		}
		vectors[i] = vec
	}

	return vectors
}

// UnitVectors generates L2-normalized random float32 vectors (on the hypersphere).
func (r *RNG) UnitVectors(num int, dimensions int) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	vectors := make([][]float32, num)
	for i := range num {
		vec := make([]float32, dimensions)
		for j := range vec {
			vec[j] = float32(r.rand.NormFloat64())
		}
		if !distance.NormalizeL2InPlace(vec) {
			vec[0] = 1
		}
		vectors[i] = vec
	}

	return vectors
}

// UniformRows generates float64 rows with values in range [-1, 1).
func (r *RNG) UniformRows(num, dimensions int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([][]float64, num)
	for i := range rows {
		rows[i] = make([]float64, dimensions)
		for j := range rows[i] {
			rows[i][j] = r.rand.Float64()*2 - 1
		}
	}
	return rows
}

// ClusteredRows generates float64 rows around clusters random unit
// centroids. Row i belongs to cluster i % clusters.
func (r *RNG) ClusteredRows(num, dim, clusters int, spread float64) [][]float64 {
	centroids := r.UnitVectors(clusters, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([][]float64, num)
	for i := range rows {
		centroid := centroids[i%clusters]
		rows[i] = make([]float64, dim)
		for j := range dim {
			rows[i][j] = float64(centroid[j]) + r.rand.NormFloat64()*spread
		}
	}
	return rows
}

// DuplicatePairs generates 2*pairs rows where rows 2k and 2k+1 are the same
// random unit vector perturbed by independent Gaussian noise.
func (r *RNG) DuplicatePairs(pairs, dim int, noise float64) [][]float64 {
	base := r.UnitVectors(pairs, dim)

	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([][]float64, 0, 2*pairs)
	for _, b := range base {
		for range 2 {
			row := make([]float64, dim)
			for j := range row {
				row[j] = float64(b[j]) + r.rand.NormFloat64()*noise
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// ExactNeighbors returns every other row ordered by squared Euclidean
// distance to rows[query], nearest first.
func ExactNeighbors(rows [][]float64, query int) []Neighbor {
	out := make([]Neighbor, 0, len(rows)-1)
	for i, row := range rows {
		if i == query {
			continue
		}
		out = append(out, Neighbor{Index: i, Distance: distance.SquaredL2Float64(rows[query], row)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Distance < out[j].Distance
	})
	return out
}

// NearestNeighbor returns the index of the row closest to rows[query].
func NearestNeighbor(rows [][]float64, query int) int {
	best, bestDist := -1, math.Inf(1)
	for i, row := range rows {
		if i == query {
			continue
		}
		if d := distance.SquaredL2Float64(rows[query], row); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
