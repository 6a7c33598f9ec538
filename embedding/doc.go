// Package embedding turns texts into vectors through hosted or local
// embedding providers.
//
// Three providers are built in:
//
//   - Mistral (mistral-embed)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Local, a sentence-transformers sidecar serving all-MiniLM-L6-v2
//
// All clients route requests through an optional resource.Controller that
// bounds concurrency and request rate. Wrap any Embedder with NewCached to
// avoid re-sending texts that were embedded before.
//
//	e, err := embedding.New(embedding.ProviderOpenAI, "text-embedding-3-small", apiKey)
//	if err != nil {
//	    return err
//	}
//	vectors, err := e.Embed(ctx, []string{"cat", "dog"})
package embedding
