package tsne

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSquaredDistances(t *testing.T) {
	d := SquaredDistances(sixPoints)

	assert.Equal(t, 0.0, d.At(0, 0))
	assert.Equal(t, 6.0, d.At(0, 1))
	assert.Equal(t, 14.0, d.At(1, 5))
	assert.True(t, mat.Equal(d, d.T()))
}

func TestConditionalAffinities(t *testing.T) {
	sigmas := []float64{1, 1, 1, 1, 1, 1}
	p := ConditionalAffinities(SquaredDistances(sixPoints), sigmas)

	for i := 0; i < 6; i++ {
		assert.Equal(t, 0.0, p.At(i, i))
		assert.InDelta(t, 1.0, mat.Sum(p.RowView(i)), 1e-6, "row %d", i)
	}

	// Nearer neighbors get more mass.
	assert.Greater(t, p.At(0, 2), p.At(0, 3))
	assert.Greater(t, p.At(0, 3), p.At(0, 5))
}

func TestConditionalAffinitiesFarApart(t *testing.T) {
	// Without shifting by the nearest distance every kernel value would
	// underflow to zero.
	x := mat.NewDense(3, 1, []float64{0, 1e4, 2e4})
	p := ConditionalAffinities(SquaredDistances(x), []float64{1, 1, 1})

	for i := 0; i < 3; i++ {
		assert.InDelta(t, 1.0, mat.Sum(p.RowView(i)), 1e-9)
	}
	assert.InDelta(t, 1.0, p.At(0, 1), 1e-9)
}

func TestConditionalAffinitiesPanicsOnShape(t *testing.T) {
	assert.Panics(t, func() {
		ConditionalAffinities(SquaredDistances(sixPoints), []float64{1, 2})
	})
}

func TestJointAffinities(t *testing.T) {
	p := JointAffinities(sixPoints, []float64{0.5, 1.0, 1.5, 2.0, 2.5, 3.0})

	for i := 0; i < 6; i++ {
		assert.Equal(t, 0.0, p.At(i, i))
		for j := i; j < 6; j++ {
			assert.Equal(t, p.At(i, j), p.At(j, i))
			assert.GreaterOrEqual(t, p.At(i, j), 0.0)
		}
	}
	assert.InDelta(t, 1.0, mat.Sum(p), 1e-9)
}

func TestSymmetrize(t *testing.T) {
	pc := mat.NewDense(2, 2, []float64{
		0, 1,
		1, 0,
	})
	p := Symmetrize(pc)
	assert.Equal(t, 0.5, p.At(0, 1))
	assert.Equal(t, 0.5, p.At(1, 0))
}

func TestToDense(t *testing.T) {
	tests := []struct {
		name   string
		points [][]float64
		row    int
		col    int
	}{
		{"Empty", nil, -1, -1},
		{"Single", [][]float64{{1, 2}}, -1, -1},
		{"ZeroLength", [][]float64{{}, {}}, 0, -1},
		{"Ragged", [][]float64{{1, 2}, {1}}, 1, -1},
		{"NaN", [][]float64{{1, 2}, {3, math.NaN()}}, 1, 1},
		{"Inf", [][]float64{{math.Inf(-1), 2}, {3, 4}}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := toDense(tt.points)
			require.ErrorIs(t, err, ErrInvalidInput)

			var inputErr *InputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, tt.row, inputErr.Row)
			assert.Equal(t, tt.col, inputErr.Col)
		})
	}

	x, err := toDense([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, toRows(x))
}

func TestInputErrorMessage(t *testing.T) {
	assert.Equal(t, "invalid input at [1][2]: non-finite value",
		(&InputError{Reason: "non-finite value", Row: 1, Col: 2}).Error())
	assert.Equal(t, "invalid input at row 3: empty vector",
		(&InputError{Reason: "empty vector", Row: 3, Col: -1}).Error())
	assert.Equal(t, "invalid input: bad", invalid("bad").Error())
}
