// Package embedviz compares texts by their embeddings and lays them out for
// plotting.
//
// An Explorer embeds a set of texts with an embedding.Embedder, ranks them by
// cosine similarity against a reference text and projects the vectors into a
// low-dimensional space with exact t-SNE (package tsne). Two-dimensional
// projections carry a ready-to-render scatter chart.
//
// # Quick Start
//
//	embedder, _ := embedding.NewOpenAI(os.Getenv("OPENAI_API_KEY"), "text-embedding-3-small")
//	ex := embedviz.New(embedder)
//
//	report, err := ex.Compare(ctx, embedviz.Request{
//	    Texts:     []string{"king", "queen", "apple"},
//	    Reference: 0,
//	})
//	for _, r := range report.Ranking {
//	    fmt.Printf("%.3f %s\n", r.Similarity, r.Text)
//	}
//
// # Projection Methods
//
// Methods are dispatched by name. MethodTSNE is always registered; further
// projectors are added with WithProjector:
//
//	ex := embedviz.New(embedder, embedviz.WithProjector("identity", embedviz.ProjectorFunc(
//	    func(ctx context.Context, points [][]float64, p embedviz.Params) (*embedviz.Projection, error) {
//	        return &embedviz.Projection{Coordinates: points}, nil
//	    })))
//
// Per-request Params override the base t-SNE options set with
// WithTSNEOptions. A nil Seed draws a random one, which is reported back in
// Report.Params so the run can be reproduced.
//
// # Archive
//
// With WithArchive, requests that set Archive are saved through package
// archive to any blobstore.BlobStore (local files, S3, MinIO):
//
//	store := blobstore.NewLocalStore("./runs")
//	ex := embedviz.New(embedder, embedviz.WithArchive(archive.New(store)))
//
// # Errors
//
// Invalid requests return a *RequestError matching ErrInvalidRequest.
// Unknown methods additionally match ErrUnknownMethod.
//
// # Observability
//
// Logging goes through Logger (log/slog). Metrics go through a
// MetricsCollector; see BasicMetricsCollector and package promcollector.
package embedviz
