package embedviz

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/embedviz/archive"
	"github.com/hupe1980/embedviz/blobstore"
	"github.com/hupe1980/embedviz/chart"
	"github.com/hupe1980/embedviz/embedding"
	"github.com/hupe1980/embedviz/tsne"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder returns fixed vectors per text.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   atomic.Int64
}

func (f *fakeEmbedder) Model() string { return "fake-model" }

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, ok := f.vectors[t]
		if !ok {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vectors: map[string][]float32{
		"king":   {1, 0, 0},
		"queen":  {0.9, 0.1, 0},
		"apple":  {0, 1, 0},
		"banana": {0, 0.2, 1},
	}}
}

var words = []string{"king", "queen", "apple", "banana"}

func seed(v int64) *int64 { return &v }

func newTestExplorer(e embedding.Embedder, opts ...Option) *Explorer {
	base := []Option{WithTSNEOptions(tsne.WithIterations(50), tsne.WithWorkers(1))}
	return New(e, append(base, opts...)...)
}

func TestExplorer_Compare(t *testing.T) {
	mc := &BasicMetricsCollector{}
	ex := newTestExplorer(newFakeEmbedder(), WithMetricsCollector(mc))

	report, err := ex.Compare(context.Background(), Request{Texts: words, Reference: 0})
	require.NoError(t, err)

	assert.Equal(t, "fake-model", report.Model)
	assert.Equal(t, MethodTSNE, report.Method)
	assert.Empty(t, report.ID)
	require.Len(t, report.Embeddings, 4)

	require.Len(t, report.Similarities, 4)
	assert.InDelta(t, 1.0, report.Similarities[0], 1e-9)
	require.Len(t, report.Ranking, 3)
	assert.Equal(t, "queen", report.Ranking[0].Text)
	assert.Equal(t, 1, report.Ranking[0].Index)
	for i := 1; i < len(report.Ranking); i++ {
		assert.GreaterOrEqual(t, report.Ranking[i-1].Similarity, report.Ranking[i].Similarity)
	}

	require.Len(t, report.Table, 4)
	for i := range report.Table {
		for j := range report.Table {
			assert.Equal(t, report.Table[i][j], report.Table[j][i])
		}
	}

	assert.Equal(t, DefaultDimensions, report.Params.Dimensions)
	require.NotNil(t, report.Params.Seed)
	require.Len(t, report.Coordinates, 4)
	for _, c := range report.Coordinates {
		assert.Len(t, c, 2)
	}
	assert.Equal(t, 50, report.Iterations)

	require.NotNil(t, report.Chart)
	assert.Equal(t, chart.ReferenceColor, report.Chart.Colors[0])
	assert.Equal(t, chart.DefaultColor, report.Chart.Colors[1])

	stats := mc.GetStats()
	assert.Equal(t, int64(1), stats.EmbedCount)
	assert.Equal(t, int64(4), stats.EmbedTexts)
	assert.Equal(t, int64(1), stats.TransformCount)
	assert.Equal(t, int64(0), stats.TransformErrors)
}

func TestExplorer_CompareIsReproducible(t *testing.T) {
	ex := newTestExplorer(newFakeEmbedder())
	req := Request{Texts: words, Params: Params{Seed: seed(7)}}

	a, err := ex.Compare(context.Background(), req)
	require.NoError(t, err)
	b, err := ex.Compare(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, a.Coordinates, b.Coordinates)

	// The seed drawn for an unseeded run reproduces it.
	c, err := ex.Compare(context.Background(), Request{Texts: words})
	require.NoError(t, err)
	d, err := ex.Compare(context.Background(), Request{Texts: words, Params: c.Params})
	require.NoError(t, err)
	assert.Equal(t, c.Coordinates, d.Coordinates)
}

func TestExplorer_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   Request
		field string
	}{
		{"NoTexts", Request{}, "texts"},
		{"OneText", Request{Texts: []string{"king"}}, "texts"},
		{"BlankText", Request{Texts: []string{"king", "  "}}, "texts"},
		{"NegativeReference", Request{Texts: words, Reference: -1}, "reference"},
		{"ReferenceOutOfRange", Request{Texts: words, Reference: 4}, "reference"},
		{"NegativeDimensions", Request{Texts: words, Params: Params{Dimensions: -1}}, "dimensions"},
		{"NegativeIterations", Request{Texts: words, Params: Params{Iterations: -1}}, "iterations"},
		{"HugeDimensions", Request{Texts: words, Params: Params{Dimensions: 100000000}}, "dimensions"},
		{"TooManyIterations", Request{Texts: words, Params: Params{Iterations: DefaultLimits.MaxIterations + 1}}, "iterations"},
		{"UnknownMethod", Request{Texts: words, Method: "umap"}, "method"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := newFakeEmbedder()
			ex := newTestExplorer(fe)

			_, err := ex.Compare(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRequest))

			var re *RequestError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.field, re.Field)
			assert.Equal(t, int64(0), fe.calls.Load(), "embedder must not be called")
		})
	}
}

func TestExplorer_Limits(t *testing.T) {
	fe := newFakeEmbedder()
	ex := newTestExplorer(fe, WithLimits(Limits{MaxTexts: 3, MaxDimensions: 2}))

	_, err := ex.Compare(context.Background(), Request{Texts: words})
	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "texts", re.Field)

	_, err = ex.Similarity(context.Background(), Request{Texts: words})
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = ex.Compare(context.Background(), Request{Texts: words[:3], Params: Params{Dimensions: 3}})
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "dimensions", re.Field)
	assert.Equal(t, int64(0), fe.calls.Load())

	// Unset caps do not limit.
	_, err = ex.Compare(context.Background(), Request{Texts: words[:3], Params: Params{Iterations: 20}})
	require.NoError(t, err)
}

func TestExplorer_UnknownMethod(t *testing.T) {
	ex := newTestExplorer(newFakeEmbedder())
	_, err := ex.Compare(context.Background(), Request{Texts: words, Method: "umap"})
	assert.True(t, errors.Is(err, ErrUnknownMethod))
	assert.Contains(t, err.Error(), "tsne")
}

func TestExplorer_InvalidProjectionOptions(t *testing.T) {
	mc := &BasicMetricsCollector{}
	ex := newTestExplorer(newFakeEmbedder(), WithMetricsCollector(mc))

	_, err := ex.Compare(context.Background(), Request{Texts: words, Params: Params{Perplexity: -1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.True(t, errors.Is(err, tsne.ErrInvalidInput))

	var re *RequestError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "options", re.Field)
	assert.Equal(t, int64(1), mc.GetStats().TransformErrors)
}

func TestExplorer_CustomProjector(t *testing.T) {
	mc := &BasicMetricsCollector{}
	identity := ProjectorFunc(func(_ context.Context, points [][]float64, p Params) (*Projection, error) {
		out := make([][]float64, len(points))
		for i, pt := range points {
			out[i] = pt[:p.Dimensions]
		}
		return &Projection{Coordinates: out, EarlyStopped: true}, nil
	})
	ex := newTestExplorer(newFakeEmbedder(), WithProjector("identity", identity), WithMetricsCollector(mc))

	assert.Equal(t, []string{"identity", "tsne"}, ex.Methods())

	report, err := ex.Compare(context.Background(), Request{
		Texts:  words,
		Method: "identity",
		Params: Params{Dimensions: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1}, {float64(float32(0.9))}, {0}, {0}}, report.Coordinates)
	assert.Nil(t, report.Chart, "one-dimensional projections have no chart")
	assert.True(t, report.EarlyStopped)
	assert.Equal(t, int64(1), mc.GetStats().EarlyStops)
}

func TestExplorer_EmbedErrors(t *testing.T) {
	t.Run("Provider", func(t *testing.T) {
		mc := &BasicMetricsCollector{}
		fe := &fakeEmbedder{err: embedding.ErrAuthentication}
		ex := newTestExplorer(fe, WithMetricsCollector(mc))

		_, err := ex.Compare(context.Background(), Request{Texts: words})
		assert.True(t, errors.Is(err, embedding.ErrAuthentication))
		assert.False(t, errors.Is(err, ErrInvalidRequest))
		assert.Equal(t, int64(1), mc.GetStats().EmbedErrors)
		assert.Equal(t, int64(0), mc.GetStats().TransformCount)
	})

	t.Run("ShortResponse", func(t *testing.T) {
		ex := newTestExplorer(newFakeEmbedder())
		_, err := ex.Compare(context.Background(), Request{Texts: []string{"king", "unknown"}})
		assert.True(t, errors.Is(err, embedding.ErrResponseMismatch))
	})
}

func TestExplorer_Similarity(t *testing.T) {
	ex := newTestExplorer(newFakeEmbedder())

	report, err := ex.Similarity(context.Background(), Request{Texts: words, Reference: 2})
	require.NoError(t, err)
	assert.Nil(t, report.Coordinates)
	assert.Nil(t, report.Chart)
	assert.Equal(t, "banana", report.Ranking[0].Text)
	assert.InDelta(t, 1.0, report.Similarities[2], 1e-9)

	_, err = ex.Similarity(context.Background(), Request{Texts: words, Reference: 9})
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestExplorer_Archive(t *testing.T) {
	ctx := context.Background()
	mc := &BasicMetricsCollector{}
	arch := archive.New(blobstore.NewMemoryStore())
	ex := newTestExplorer(newFakeEmbedder(), WithArchive(arch), WithProvider("Fake"), WithMetricsCollector(mc))

	report, err := ex.Compare(ctx, Request{Texts: words, Reference: 1, Archive: true, Params: Params{Seed: seed(3)}})
	require.NoError(t, err)
	require.NotEmpty(t, report.ID)

	rec, err := ex.LoadRun(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fake", rec.Provider)
	assert.Equal(t, "fake-model", rec.Model)
	assert.Equal(t, words, rec.Texts)
	assert.Equal(t, 1, rec.Reference)
	assert.Equal(t, MethodTSNE, rec.Params.Method)
	assert.Equal(t, int64(3), rec.Params.Seed)
	assert.Equal(t, report.Coordinates, rec.Coordinates)

	latest, err := ex.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.ID, latest.ID)

	ids, err := ex.Runs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{report.ID}, ids)

	require.NoError(t, ex.DeleteRun(ctx, report.ID))
	_, err = ex.LoadRun(ctx, report.ID)
	assert.True(t, errors.Is(err, archive.ErrNotFound))

	assert.Equal(t, int64(1), mc.GetStats().ArchiveCount)
}

func TestExplorer_NoArchive(t *testing.T) {
	ctx := context.Background()
	fe := newFakeEmbedder()
	ex := newTestExplorer(fe)

	_, err := ex.Compare(ctx, Request{Texts: words, Archive: true})
	assert.ErrorIs(t, err, ErrNoArchive)
	assert.Equal(t, int64(0), fe.calls.Load())

	_, err = ex.Runs(ctx)
	assert.ErrorIs(t, err, ErrNoArchive)
	_, err = ex.LoadRun(ctx, "x")
	assert.ErrorIs(t, err, ErrNoArchive)
	_, err = ex.LatestRun(ctx)
	assert.ErrorIs(t, err, ErrNoArchive)
	assert.ErrorIs(t, ex.DeleteRun(ctx, "x"), ErrNoArchive)
}

func TestExplorer_Encode(t *testing.T) {
	ex := newTestExplorer(newFakeEmbedder())
	report, err := ex.Similarity(context.Background(), Request{Texts: words})
	require.NoError(t, err)

	data, err := ex.Encode(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ranking"`)
	assert.Contains(t, string(data), `"model":"fake-model"`)
	assert.NotContains(t, string(data), `"chart"`)
}

func TestExplorer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ex := newTestExplorer(newFakeEmbedder())
	_, err := ex.Compare(ctx, Request{Texts: words})
	assert.ErrorIs(t, err, context.Canceled)
}
