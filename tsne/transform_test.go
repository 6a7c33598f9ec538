package tsne

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/embedviz/testutil"
)

func TestRandomProjection(t *testing.T) {
	y := RandomProjection(10, 2, DefaultInitScale, rand.New(rand.NewSource(1)))

	n, k := y.Dims()
	require.Equal(t, 10, n)
	require.Equal(t, 2, k)
	for i := 0; i < n; i++ {
		for _, v := range y.RawRowView(i) {
			assert.LessOrEqual(t, math.Abs(v), 1e-2)
		}
	}
}

func TestMomentum(t *testing.T) {
	assert.Equal(t, 0.5, Momentum(0, 100))
	assert.InDelta(t, 0.65, Momentum(50, 100), 1e-12)
	assert.InDelta(t, 0.8, Momentum(100, 100), 1e-12)
	assert.Equal(t, 0.5, Momentum(3, 0))
}

func TestTransformSixPoints(t *testing.T) {
	y, err := Transform(context.Background(), nil, 2)
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Nil(t, y)

	y, err = Transform(context.Background(), toRows(sixPoints), 2, WithPerplexity(4), WithSeed(1))
	require.NoError(t, err)
	require.Len(t, y, 6)
	for _, row := range y {
		require.Len(t, row, 2)
		for _, v := range row {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
	}
}

func TestTransformSeparatesDuplicates(t *testing.T) {
	points := testutil.NewRNG(42).DuplicatePairs(4, 16, 1e-3)

	y, err := Transform(context.Background(), points, 2, WithPerplexity(3), WithSeed(42))
	require.NoError(t, err)
	require.Len(t, y, 8)

	for i := range points {
		require.Equal(t, i^1, testutil.NearestNeighbor(points, i))
		assert.Equal(t, i^1, testutil.NearestNeighbor(y, i), "point %d", i)
	}
}

func TestRunDecreasesCost(t *testing.T) {
	points := testutil.NewRNG(7).ClusteredRows(20, 8, 4, 0.05)

	var calls int
	res, err := Run(context.Background(), points, 2,
		WithSeed(7),
		WithIterations(200),
		WithCostInterval(20),
		WithProgress(func(int, float64) { calls++ }),
	)
	require.NoError(t, err)

	assert.Equal(t, 200, res.Iterations)
	assert.False(t, res.EarlyStopped)
	assert.Equal(t, 10, calls)
	require.Len(t, res.Costs, 10)
	assert.Equal(t, 20, res.Costs[0].Iteration)

	x, err := toDense(points)
	require.NoError(t, err)
	p := JointAffinities(x, res.Sigmas)
	initial := KLDivergence(p, LowDimAffinities(RandomProjection(20, 2, DefaultInitScale, rand.New(rand.NewSource(7)))))

	assert.Less(t, res.Cost, initial)
	assert.InDelta(t, res.Costs[len(res.Costs)-1].Cost, res.Cost, 1e-12)
}

func TestRunEarlyStop(t *testing.T) {
	var seen []int
	res, err := Run(context.Background(), toRows(sixPoints), 2,
		WithSeed(1),
		WithCostInterval(5),
		WithEarlyStop(math.MaxFloat64),
		WithProgress(func(it int, _ float64) { seen = append(seen, it) }),
	)
	require.NoError(t, err)

	assert.True(t, res.EarlyStopped)
	assert.Equal(t, 5, res.Iterations)
	assert.Equal(t, []int{5}, seen)
}

func TestRunIsDeterministic(t *testing.T) {
	points := testutil.NewRNG(11).ClusteredRows(80, 6, 5, 0.1)

	run := func(workers int) [][]float64 {
		y, err := Transform(context.Background(), points, 2,
			WithSeed(99),
			WithIterations(50),
			WithWorkers(workers),
		)
		require.NoError(t, err)
		return y
	}

	serial := run(1)
	assert.Equal(t, serial, run(1))
	assert.Equal(t, serial, run(4))
}

func TestRunReportsUnconvergedPoints(t *testing.T) {
	res, err := Run(context.Background(), toRows(sixPoints), 2,
		WithSeed(1),
		WithIterations(10),
		WithCalibrationIterations(1),
	)
	require.NoError(t, err)
	assert.False(t, res.Unconverged.IsEmpty())
	assert.Len(t, res.Embedding, 6)
}

func TestRunWithoutMomentum(t *testing.T) {
	res, err := Run(context.Background(), toRows(sixPoints), 3,
		WithSeed(5),
		WithIterations(100),
		WithoutMomentum(),
		WithLearningRate(10),
	)
	require.NoError(t, err)
	require.Len(t, res.Embedding, 6)
	assert.Len(t, res.Embedding[0], 3)
}

func TestRunWithRand(t *testing.T) {
	a, err := Transform(context.Background(), toRows(sixPoints), 2, WithRand(rand.New(rand.NewSource(3))), WithIterations(20))
	require.NoError(t, err)
	b, err := Transform(context.Background(), toRows(sixPoints), 2, WithSeed(3), WithIterations(20))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRunInvalidParameters(t *testing.T) {
	points := toRows(sixPoints)

	tests := []struct {
		name string
		dims int
		opts []Option
	}{
		{"ZeroDims", 0, nil},
		{"HugeDims", 1 << 62, []Option{WithIterations(1)}},
		{"TooManyValues", MaxEmbeddingValues/6 + 1, []Option{WithIterations(1)}},
		{"ZeroPerplexity", 2, []Option{WithPerplexity(0)}},
		{"NaNPerplexity", 2, []Option{WithPerplexity(math.NaN())}},
		{"InfPerplexity", 2, []Option{WithPerplexity(math.Inf(1))}},
		{"ZeroIterations", 2, []Option{WithIterations(0)}},
		{"ZeroCalibrationIterations", 2, []Option{WithCalibrationIterations(0)}},
		{"NegativeLearningRate", 2, []Option{WithLearningRate(-1)}},
		{"ZeroInitScale", 2, []Option{WithInitScale(0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), points, tt.dims, tt.opts...)
			require.ErrorIs(t, err, ErrInvalidInput)

			var inputErr *InputError
			assert.True(t, errors.As(err, &inputErr))
		})
	}
}

func TestRunRejectsOverflowingDistances(t *testing.T) {
	_, err := Run(context.Background(), [][]float64{{-1e200}, {1e200}}, 2)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, toRows(sixPoints), 2, WithSeed(1))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunCanceledDuringOptimization(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := Run(ctx, toRows(sixPoints), 2,
		WithSeed(1),
		WithCostInterval(1),
		WithProgress(func(it int, _ float64) {
			if it == 3 {
				cancel()
			}
		}),
	)
	require.ErrorIs(t, err, context.Canceled)
}
