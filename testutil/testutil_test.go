package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.UniformVectors(8, 32)

	assert.Equal(t, 8, len(v))
	assert.Equal(t, 32, len(v[0]))
	assert.LessOrEqual(t, v[0][0], float32(1.0))
	assert.GreaterOrEqual(t, v[1][0], float32(0.0))
}

func TestUnitVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.UnitVectors(8, 32)

	assert.Equal(t, 8, len(v))
	assert.Equal(t, 32, len(v[0]))

	for _, vec := range v {
		var sum float32
		for _, val := range vec {
			sum += val * val
		}
		assert.InDelta(t, float32(1.0), sum, 1e-5)
	}
}

func TestUniformRows(t *testing.T) {
	rows := NewRNG(1).UniformRows(10, 3)
	require.Len(t, rows, 10)
	for _, row := range rows {
		require.Len(t, row, 3)
		for _, v := range row {
			assert.GreaterOrEqual(t, v, -1.0)
			assert.Less(t, v, 1.0)
		}
	}
}

func TestClusteredRows(t *testing.T) {
	rows := NewRNG(4711).ClusteredRows(30, 16, 3, 0.01)
	require.Len(t, rows, 30)
	assert.Equal(t, 0, NearestNeighbor(rows, 0)%3)
}

func TestDuplicatePairs(t *testing.T) {
	rows := NewRNG(42).DuplicatePairs(4, 16, 1e-3)
	require.Len(t, rows, 8)

	for i := range rows {
		assert.Equal(t, i^1, NearestNeighbor(rows, i), "row %d", i)
	}
}

func TestExactNeighbors(t *testing.T) {
	rows := [][]float64{{0}, {3}, {1}, {-2}}

	got := ExactNeighbors(rows, 0)
	require.Len(t, got, 3)
	assert.Equal(t, []int{2, 3, 1}, []int{got[0].Index, got[1].Index, got[2].Index})
	assert.Equal(t, 1.0, got[0].Distance)
	assert.Equal(t, 2, NearestNeighbor(rows, 0))
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	v1 := rng.UniformVectors(1, 10)

	rng.Reset()
	v2 := rng.UniformVectors(1, 10)

	assert.Equal(t, v1, v2)
	assert.Equal(t, int64(4711), rng.Seed())
}
