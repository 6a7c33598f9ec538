package embedding

import (
	"context"
	"fmt"
)

const (
	defaultLocalURL   = "http://127.0.0.1:5000"
	defaultLocalModel = "all-MiniLM-L6-v2"
)

// Request is the body of the local embeddings endpoint. The server package
// serves the same contract.
type Request struct {
	Inputs []string `json:"inputs"`
}

// Response is the answer of the local embeddings endpoint.
type Response struct {
	Embeddings [][]float32 `json:"embeddings,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Local embeds texts through a sentence-transformers sidecar or another
// embedviz server.
type Local struct {
	client
}

var _ Embedder = (*Local)(nil)

// NewLocal creates a client for the local embeddings endpoint.
func NewLocal(opts ...Option) *Local {
	return &Local{client: newClient(ProviderLocal, "", defaultLocalURL, opts)}
}

func (e *Local) Model() string { return defaultLocalModel }

// Embed calls POST /embeddings.
func (e *Local) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	var resp Response
	if err := e.post(ctx, "/embeddings", Request{Inputs: texts}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors, want %d", ErrResponseMismatch, len(resp.Embeddings), len(texts))
	}
	return resp.Embeddings, nil
}
