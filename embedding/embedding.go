package embedding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrAuthentication is returned when the provider rejects the API key.
	ErrAuthentication = errors.New("embedding: invalid API key")

	// ErrMissingAPIKey is returned when a hosted provider is configured without a key.
	ErrMissingAPIKey = errors.New("embedding: API key is required")

	// ErrResponseMismatch is returned when the provider answers with a
	// different number of vectors than texts were sent.
	ErrResponseMismatch = errors.New("embedding: response does not match request")

	// ErrUnknownModel is returned for provider/model pairs outside the Catalog.
	ErrUnknownModel = errors.New("embedding: unknown provider or model")
)

// StatusError reports a non-2xx provider response other than 401.
type StatusError struct {
	Provider   Provider
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("embedding: %s returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("embedding: %s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Embedder generates vector embeddings from text.
type Embedder interface {
	// Embed returns one vector per text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// Model returns the model name used to produce the vectors.
	Model() string
}

// Provider names an embedding service.
type Provider string

const (
	ProviderMistral Provider = "Mistral"
	ProviderOpenAI  Provider = "OpenAI"
	ProviderLocal   Provider = "Local"
)

// Catalog lists the models available per provider.
var Catalog = map[Provider][]string{
	ProviderMistral: {"mistral-embed"},
	ProviderOpenAI:  {"text-embedding-3-small", "text-embedding-3-large"},
	ProviderLocal:   {"all-MiniLM-L6-v2"},
}

// Providers returns the catalog providers in sorted order.
func Providers() []Provider {
	out := make([]Provider, 0, len(Catalog))
	for p := range Catalog {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseProvider resolves a provider name case-insensitively.
func ParseProvider(name string) (Provider, error) {
	for p := range Catalog {
		if strings.EqualFold(string(p), name) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: provider %q", ErrUnknownModel, name)
}

// Lookup checks that model belongs to provider. An empty model selects the
// provider's first model.
func Lookup(provider Provider, model string) (string, error) {
	models, ok := Catalog[provider]
	if !ok {
		return "", fmt.Errorf("%w: provider %q", ErrUnknownModel, provider)
	}
	if model == "" {
		return models[0], nil
	}
	for _, m := range models {
		if m == model {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %s has no model %q", ErrUnknownModel, provider, model)
}

// New creates the client for provider. apiKey is ignored for ProviderLocal.
func New(provider Provider, model, apiKey string, opts ...Option) (Embedder, error) {
	switch provider {
	case ProviderMistral:
		if _, err := Lookup(provider, model); err != nil {
			return nil, err
		}
		return NewMistral(apiKey, opts...)
	case ProviderOpenAI:
		return NewOpenAI(apiKey, model, opts...)
	case ProviderLocal:
		if _, err := Lookup(provider, model); err != nil {
			return nil, err
		}
		return NewLocal(opts...), nil
	default:
		return nil, fmt.Errorf("%w: provider %q", ErrUnknownModel, provider)
	}
}
