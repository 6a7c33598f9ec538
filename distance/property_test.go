package distance_test

import (
	"testing"

	"github.com/hupe1980/embedviz/distance"
	"github.com/hupe1980/embedviz/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineMatrixUnitVectors(t *testing.T) {
	vectors := testutil.NewRNG(5).UnitVectors(12, 32)

	table, err := distance.CosineMatrix(vectors)
	require.NoError(t, err)
	for i := range vectors {
		assert.Equal(t, 1.0, table[i][i])
		for j := range vectors {
			assert.Equal(t, table[i][j], table[j][i])
			// Unit vectors: cosine is the dot product.
			assert.InDelta(t, float64(distance.Dot(vectors[i], vectors[j])), table[i][j], 1e-5)
		}
	}
}

func TestCosineScaleInvariant(t *testing.T) {
	rng := testutil.NewRNG(9)
	for _, v := range rng.UniformVectors(10, 8) {
		scaled := make([]float32, len(v))
		for i, x := range v {
			scaled[i] = 3 * x
		}
		c, err := distance.Cosine(v, scaled)
		if err != nil {
			require.ErrorIs(t, err, distance.ErrZeroMagnitude)
			continue
		}
		assert.InDelta(t, 1.0, c, 1e-6)
	}
}
