package embedding

import (
	"context"
	"fmt"
)

const (
	defaultOpenAIURL  = "https://api.openai.com"
	defaultMistralURL = "https://api.mistral.ai"
)

type embeddingRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     *int      `json:"index,omitempty"`
	} `json:"data"`
}

// vectors orders the response by its index field, falling back to response
// order when indices are absent.
func (r *embeddingResponse) vectors(want int) ([][]float32, error) {
	if len(r.Data) != want {
		return nil, fmt.Errorf("%w: got %d vectors, want %d", ErrResponseMismatch, len(r.Data), want)
	}
	out := make([][]float32, want)
	for i, d := range r.Data {
		pos := i
		if d.Index != nil {
			pos = *d.Index
		}
		if pos < 0 || pos >= want || out[pos] != nil {
			return nil, fmt.Errorf("%w: invalid index %d", ErrResponseMismatch, pos)
		}
		out[pos] = d.Embedding
	}
	return out, nil
}

// OpenAI embeds texts with the OpenAI embeddings API.
type OpenAI struct {
	client
	model string
}

var _ Embedder = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI client for one of the catalog models. An empty
// model selects text-embedding-3-small.
func NewOpenAI(apiKey, model string, opts ...Option) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	m, err := Lookup(ProviderOpenAI, model)
	if err != nil {
		return nil, err
	}
	return &OpenAI{
		client: newClient(ProviderOpenAI, apiKey, defaultOpenAIURL, opts),
		model:  m,
	}, nil
}

func (e *OpenAI) Model() string { return e.model }

// Embed calls POST /v1/embeddings.
func (e *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	var resp embeddingResponse
	if err := e.post(ctx, "/v1/embeddings", embeddingRequest{Input: texts, Model: e.model}, &resp); err != nil {
		return nil, err
	}
	return resp.vectors(len(texts))
}

// Mistral embeds texts with mistral-embed.
type Mistral struct {
	client
}

var _ Embedder = (*Mistral)(nil)

// NewMistral creates a Mistral client.
func NewMistral(apiKey string, opts ...Option) (*Mistral, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &Mistral{client: newClient(ProviderMistral, apiKey, defaultMistralURL, opts)}, nil
}

func (e *Mistral) Model() string { return "mistral-embed" }

// Embed calls POST /v1/embeddings with float encoding.
func (e *Mistral) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	req := embeddingRequest{Input: texts, Model: e.Model(), EncodingFormat: "float"}
	var resp embeddingResponse
	if err := e.post(ctx, "/v1/embeddings", req, &resp); err != nil {
		return nil, err
	}
	return resp.vectors(len(texts))
}
