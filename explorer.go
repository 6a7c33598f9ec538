package embedviz

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/embedviz/archive"
	"github.com/hupe1980/embedviz/chart"
	"github.com/hupe1980/embedviz/codec"
	"github.com/hupe1980/embedviz/distance"
	"github.com/hupe1980/embedviz/embedding"
)

// DefaultDimensions is used when a Request leaves Dimensions at zero.
const DefaultDimensions = 2

// Limits caps the size of a Request. A zero field disables that cap.
type Limits struct {
	MaxTexts      int
	MaxDimensions int
	MaxIterations int
}

// DefaultLimits keeps exact t-SNE, which is quadratic in the number of
// texts, within interactive latency.
var DefaultLimits = Limits{
	MaxTexts:      500,
	MaxDimensions: 50,
	MaxIterations: 5000,
}

func (l Limits) check(req *Request) error {
	switch {
	case l.MaxTexts > 0 && len(req.Texts) > l.MaxTexts:
		return invalidField("texts", "at most %d texts are allowed, got %d", l.MaxTexts, len(req.Texts))
	case l.MaxDimensions > 0 && req.Dimensions > l.MaxDimensions:
		return invalidField("dimensions", "at most %d dimensions are allowed, got %d", l.MaxDimensions, req.Dimensions)
	case l.MaxIterations > 0 && req.Iterations > l.MaxIterations:
		return invalidField("iterations", "at most %d iterations are allowed, got %d", l.MaxIterations, req.Iterations)
	}
	return nil
}

// Request describes one comparison.
type Request struct {
	Texts []string `json:"texts"`
	// Reference is the index of the text every other text is compared with.
	Reference int `json:"reference"`
	// Method selects the projector. Empty means MethodTSNE.
	Method string `json:"method,omitempty"`
	Params
	// Archive saves the run. Requires WithArchive.
	Archive bool `json:"archive,omitempty"`
}

// Ranked is one entry of the similarity ranking.
type Ranked struct {
	Index      int     `json:"index"`
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

// Report is the result of Compare or Similarity.
type Report struct {
	// ID is the archive run ID. Empty unless the run was archived.
	ID        string   `json:"id,omitempty"`
	Model     string   `json:"model"`
	Method    string   `json:"method,omitempty"`
	Texts     []string `json:"texts"`
	Reference int      `json:"reference"`

	Embeddings [][]float32 `json:"embeddings"`
	// Similarities holds the cosine similarity of every text to the reference.
	Similarities []float64 `json:"similarities"`
	// Ranking lists the non-reference texts by descending similarity.
	Ranking []Ranked `json:"ranking"`
	// Table is the full pairwise cosine similarity table.
	Table [][]float64 `json:"table"`

	Params       Params         `json:"params"`
	Coordinates  [][]float64    `json:"coordinates,omitempty"`
	Cost         float64        `json:"cost,omitempty"`
	Iterations   int            `json:"iterations,omitempty"`
	EarlyStopped bool           `json:"early_stopped,omitempty"`
	Unconverged  []uint32       `json:"unconverged,omitempty"`
	Chart        *chart.Scatter `json:"chart,omitempty"`
}

// Explorer embeds texts, compares them and projects them for plotting.
// It is safe for concurrent use.
type Explorer struct {
	embedder   embedding.Embedder
	projectors *registry
	opts       options
}

// New returns an Explorer backed by embedder. The t-SNE projector is
// registered as MethodTSNE.
func New(embedder embedding.Embedder, optFns ...Option) *Explorer {
	opts := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		limits:           DefaultLimits,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.logger == nil {
		opts.logger = NoopLogger()
	}
	if opts.metricsCollector == nil {
		opts.metricsCollector = NoopMetricsCollector{}
	}

	reg := newRegistry()
	reg.register(MethodTSNE, TSNEProjector{Options: opts.tsneOptions})
	for name, p := range opts.projectors {
		reg.register(name, p)
	}

	return &Explorer{
		embedder:   embedder,
		projectors: reg,
		opts:       opts,
	}
}

// Methods returns the registered projection methods in sorted order.
func (e *Explorer) Methods() []string {
	return e.projectors.names()
}

// Model returns the embedding model name.
func (e *Explorer) Model() string {
	return e.embedder.Model()
}

// Similarity embeds the texts and ranks them against the reference without
// projecting them.
func (e *Explorer) Similarity(ctx context.Context, req Request) (*Report, error) {
	if err := e.validate(&req); err != nil {
		return nil, err
	}
	return e.compare(ctx, req)
}

// Compare embeds the texts, ranks them against the reference and projects
// them into req.Dimensions dimensions. A chart is attached when the
// projection has at least two dimensions.
func (e *Explorer) Compare(ctx context.Context, req Request) (*Report, error) {
	if err := e.validate(&req); err != nil {
		return nil, err
	}
	if req.Method == "" {
		req.Method = MethodTSNE
	}
	projector, ok := e.projectors.lookup(req.Method)
	if !ok {
		return nil, &RequestError{
			Field:  "method",
			Reason: fmt.Sprintf("%q is not one of %s", req.Method, strings.Join(e.Methods(), ", ")),
			cause:  ErrUnknownMethod,
		}
	}
	if req.Archive && e.opts.archive == nil {
		return nil, ErrNoArchive
	}
	if req.Dimensions == 0 {
		req.Dimensions = DefaultDimensions
	}
	if req.Seed == nil {
		seed := rand.Int63()
		req.Seed = &seed
	}

	report, err := e.compare(ctx, req)
	if err != nil {
		return nil, err
	}
	report.Method = req.Method
	report.Params = req.Params

	logger := e.opts.logger.WithMethod(req.Method)
	points := make([][]float64, len(report.Embeddings))
	for i, v := range report.Embeddings {
		points[i] = distance.Float64s(v)
	}

	start := time.Now()
	proj, err := projector.Project(ctx, points, req.Params)
	elapsed := time.Since(start)
	e.opts.metricsCollector.RecordTransform(req.Method, len(points), elapsed, err)
	logger.LogProjection(ctx, req.Method, len(points), req.Dimensions, proj, elapsed, err)
	if err != nil {
		return nil, translateError(fmt.Errorf("project: %w", err))
	}
	if proj.EarlyStopped {
		e.opts.metricsCollector.RecordEarlyStop(req.Method)
	}

	report.Coordinates = proj.Coordinates
	report.Cost = proj.Cost
	report.Iterations = proj.Iterations
	report.EarlyStopped = proj.EarlyStopped
	if proj.Unconverged != nil && !proj.Unconverged.IsEmpty() {
		report.Unconverged = proj.Unconverged.ToArray()
	}

	if req.Dimensions >= 2 {
		report.Chart, err = chart.Build(report.Texts, report.Coordinates, report.Reference)
		if err != nil {
			return nil, translateError(err)
		}
	}

	if req.Archive {
		if err := e.save(ctx, report); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func (e *Explorer) compare(ctx context.Context, req Request) (*Report, error) {
	model := e.embedder.Model()

	start := time.Now()
	vectors, err := e.embedder.Embed(ctx, req.Texts)
	if err == nil && len(vectors) != len(req.Texts) {
		err = fmt.Errorf("%w: %d vectors for %d texts", embedding.ErrResponseMismatch, len(vectors), len(req.Texts))
	}
	elapsed := time.Since(start)
	e.opts.metricsCollector.RecordEmbed(model, len(req.Texts), elapsed, err)
	e.opts.logger.LogEmbed(ctx, model, len(req.Texts), elapsed, err)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	table, err := distance.CosineMatrix(vectors)
	if err != nil {
		return nil, fmt.Errorf("similarity: %w", err)
	}

	return &Report{
		Model:        model,
		Texts:        req.Texts,
		Reference:    req.Reference,
		Embeddings:   vectors,
		Similarities: table[req.Reference],
		Ranking:      rank(req.Texts, table[req.Reference], req.Reference),
		Table:        table,
	}, nil
}

func (e *Explorer) save(ctx context.Context, r *Report) error {
	rec := &archive.Record{
		Provider:    e.opts.provider,
		Model:       r.Model,
		Texts:       r.Texts,
		Reference:   r.Reference,
		Embeddings:  r.Embeddings,
		Coordinates: r.Coordinates,
		Params: archive.Params{
			Method:        r.Method,
			Dimensions:    r.Params.Dimensions,
			Perplexity:    r.Params.Perplexity,
			Iterations:    r.Params.Iterations,
			LearningRate:  r.Params.LearningRate,
			CostThreshold: r.Params.CostThreshold,
		},
		Cost:        r.Cost,
		Iterations:  r.Iterations,
		Unconverged: r.Unconverged,
	}
	if r.Params.Seed != nil {
		rec.Params.Seed = *r.Params.Seed
	}

	start := time.Now()
	err := e.opts.archive.Save(ctx, rec)
	e.opts.metricsCollector.RecordArchive(time.Since(start), err)
	e.opts.logger.LogArchive(ctx, rec.ID, err)
	if err != nil {
		return err
	}
	r.ID = rec.ID
	return nil
}

// Runs lists archived run IDs, oldest first.
func (e *Explorer) Runs(ctx context.Context) ([]string, error) {
	if e.opts.archive == nil {
		return nil, ErrNoArchive
	}
	return e.opts.archive.List(ctx)
}

// LoadRun returns the archived run with the given ID.
func (e *Explorer) LoadRun(ctx context.Context, id string) (*archive.Record, error) {
	if e.opts.archive == nil {
		return nil, ErrNoArchive
	}
	return e.opts.archive.Load(ctx, id)
}

// LatestRun returns the most recently archived run.
func (e *Explorer) LatestRun(ctx context.Context) (*archive.Record, error) {
	if e.opts.archive == nil {
		return nil, ErrNoArchive
	}
	return e.opts.archive.Latest(ctx)
}

// DeleteRun removes an archived run.
func (e *Explorer) DeleteRun(ctx context.Context, id string) error {
	if e.opts.archive == nil {
		return ErrNoArchive
	}
	return e.opts.archive.Delete(ctx, id)
}

// Encode serializes r with the configured codec.
func (e *Explorer) Encode(r *Report) ([]byte, error) {
	return e.opts.codec.Marshal(r)
}

func (e *Explorer) validate(req *Request) error {
	if len(req.Texts) < 2 {
		return invalidField("texts", "at least 2 texts are required, got %d", len(req.Texts))
	}
	for i, t := range req.Texts {
		if strings.TrimSpace(t) == "" {
			return invalidField("texts", "text %d is empty", i)
		}
	}
	if req.Reference < 0 || req.Reference >= len(req.Texts) {
		return invalidField("reference", "%d is out of range [0, %d)", req.Reference, len(req.Texts))
	}
	if req.Dimensions < 0 {
		return invalidField("dimensions", "must be at least 1, got %d", req.Dimensions)
	}
	if req.Iterations < 0 {
		return invalidField("iterations", "must be at least 1, got %d", req.Iterations)
	}
	return e.opts.limits.check(req)
}

// rank orders every text except the reference by descending similarity.
// Ties keep input order.
func rank(texts []string, sims []float64, reference int) []Ranked {
	out := make([]Ranked, 0, len(texts)-1)
	for i, t := range texts {
		if i == reference {
			continue
		}
		out = append(out, Ranked{Index: i, Text: t, Similarity: sims[i]})
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Similarity > out[b].Similarity
	})
	return out
}
