package tsne

import (
	"context"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/mat"
)

const (
	entropyEpsilon      = 1e-10
	perplexityTolerance = 1e-6
	sigmaLowerBound     = 1e-6
	upperBoundPadding   = 10
	distanceEpsilon     = 1e-6
)

// Calibration holds the per-point bandwidths found by the perplexity search.
type Calibration struct {
	// Sigmas is the Gaussian bandwidth of every point.
	Sigmas []float64
	// Perplexities is the perplexity actually reached with Sigmas.
	Perplexities []float64
	// Unconverged contains the indices of points whose search exhausted the
	// iteration budget. Their sigma is the last midpoint.
	Unconverged *roaring.Bitmap
}

// Perplexity returns 2^H of a probability row, where
// H = -Σ p·log2(p + 1e-10).
func Perplexity(row []float64) float64 {
	var h float64
	for _, p := range row {
		h += p * math.Log2(p+entropyEpsilon)
	}
	return math.Pow(2, -h)
}

// InitialUpperBound returns the starting upper bound of the bandwidth search:
// ln(max pairwise squared distance + 1e-6) + 10, but never less than twice
// the lower bound so the search interval stays in positive bandwidths.
func InitialUpperBound(x mat.Matrix) float64 {
	return upperBound(SquaredDistances(x))
}

func upperBound(d *mat.Dense) float64 {
	n, _ := d.Dims()
	var maxDist float64
	for i := 0; i < n; i++ {
		row := d.RawRowView(i)
		for j := i + 1; j < n; j++ {
			if row[j] > maxDist {
				maxDist = row[j]
			}
		}
	}
	return max(math.Log(maxDist+distanceEpsilon)+upperBoundPadding, 2*sigmaLowerBound)
}

// FindBestSigmas calibrates one bandwidth per row of x so that every
// conditional affinity row reaches the target perplexity.
// maxIter <= 0 selects DefaultCalibrationIterations.
func FindBestSigmas(x mat.Matrix, perplexity float64, maxIter int) []float64 {
	if maxIter <= 0 {
		maxIter = DefaultCalibrationIterations
	}
	cal, _ := calibrate(context.Background(), SquaredDistances(x), perplexity, maxIter, 1)
	return cal.Sigmas
}

// calibrate runs the bandwidth search for every point. The searches are
// independent, so they are spread over workers.
func calibrate(ctx context.Context, d *mat.Dense, perplexity float64, maxIter, workers int) (*Calibration, error) {
	n, _ := d.Dims()
	hi := upperBound(d)

	cal := &Calibration{
		Sigmas:       make([]float64, n),
		Perplexities: make([]float64, n),
		Unconverged:  roaring.New(),
	}
	converged := make([]bool, n)

	err := parallelFor(ctx, n, workers, func(i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		cal.Sigmas[i], cal.Perplexities[i], converged[i] = searchSigma(d.RawRowView(i), i, perplexity, sigmaLowerBound, hi, maxIter)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, ok := range converged {
		if !ok {
			cal.Unconverged.Add(uint32(i))
		}
	}
	return cal, nil
}

// searchSigma bisects [lo, hi] for the bandwidth of point self. Perplexity is
// monotonic in sigma: below target the lower bound moves up, otherwise the
// upper bound moves down.
func searchSigma(dist []float64, self int, target, lo, hi float64, maxIter int) (sigma, perp float64, converged bool) {
	row := make([]float64, len(dist))
	sigma = (lo + hi) / 2

	for range maxIter {
		conditionalRow(row, dist, self, sigma)
		perp = Perplexity(row)
		if math.Abs(target-perp) <= perplexityTolerance {
			return sigma, perp, true
		}
		if perp < target {
			lo = sigma
		} else {
			hi = sigma
		}
		sigma = (lo + hi) / 2
	}

	conditionalRow(row, dist, self, sigma)
	return sigma, Perplexity(row), false
}
