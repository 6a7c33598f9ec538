package embedding

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hupe1980/embedviz/codec"
	"github.com/hupe1980/embedviz/internal/resource"
)

// maxErrorBody bounds how much of an error response is kept in StatusError.
const maxErrorBody = 512

// HTTPClient abstracts HTTP calls for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type options struct {
	baseURL    string
	httpClient HTTPClient
	controller *resource.Controller
	codec      codec.Codec
	logger     *slog.Logger
}

// Option configures a provider client.
type Option func(*options)

// WithBaseURL overrides the provider endpoint, e.g. for a proxy or a test server.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c HTTPClient) Option {
	return func(o *options) { o.httpClient = c }
}

// WithController routes every request through rc.
func WithController(rc *resource.Controller) Option {
	return func(o *options) { o.controller = rc }
}

// WithCodec sets the codec for request and response bodies.
func WithCodec(c codec.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// client is the JSON-over-HTTP transport shared by all providers.
type client struct {
	provider Provider
	apiKey   string
	options
}

func newClient(provider Provider, apiKey, baseURL string, opts []Option) client {
	o := options{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		codec:      codec.Default,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return client{provider: provider, apiKey: apiKey, options: o}
}

// post sends req as the body of POST {baseURL}{path} and decodes the answer into resp.
func (c *client) post(ctx context.Context, path string, req, resp any) error {
	body, err := c.codec.Marshal(req)
	if err != nil {
		return fmt.Errorf("embedding: marshal request: %w", err)
	}

	release, err := c.controller.AcquireRequest(ctx)
	if err != nil {
		return err
	}
	defer release()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("embedding: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("embedding: %s request: %w", c.provider, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	c.logger.Debug("embedding request",
		slog.String("provider", string(c.provider)),
		slog.Int("status", httpResp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if httpResp.StatusCode == http.StatusUnauthorized {
		return ErrAuthentication
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return &StatusError{
			Provider:   c.provider,
			StatusCode: httpResp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("embedding: read response: %w", err)
	}
	if err := c.codec.Unmarshal(data, resp); err != nil {
		return fmt.Errorf("embedding: decode response: %w", err)
	}
	return nil
}
