package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/embedviz/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		model    string
		want     string
		wantErr  bool
	}{
		{"default mistral", ProviderMistral, "", "mistral-embed", false},
		{"openai large", ProviderOpenAI, "text-embedding-3-large", "text-embedding-3-large", false},
		{"default openai", ProviderOpenAI, "", "text-embedding-3-small", false},
		{"local", ProviderLocal, "all-MiniLM-L6-v2", "all-MiniLM-L6-v2", false},
		{"wrong model", ProviderMistral, "text-embedding-3-small", "", true},
		{"unknown provider", Provider("Cohere"), "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lookup(tt.provider, tt.model)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownModel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider("openai")
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, p)

	_, err = ParseProvider("nope")
	assert.ErrorIs(t, err, ErrUnknownModel)

	assert.Equal(t, []Provider{ProviderLocal, ProviderMistral, ProviderOpenAI}, Providers())
}

func TestNew(t *testing.T) {
	e, err := New(ProviderOpenAI, "text-embedding-3-large", "key")
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-large", e.Model())

	e, err = New(ProviderLocal, "", "")
	require.NoError(t, err)
	assert.Equal(t, "all-MiniLM-L6-v2", e.Model())

	_, err = New(ProviderMistral, "", "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = New(ProviderMistral, "other", "key")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestOpenAI_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req["model"])
		assert.Equal(t, []any{"cat", "dog"}, req["input"])
		assert.NotContains(t, req, "encoding_format")

		// Out of order on purpose; index decides the position.
		_, _ = w.Write([]byte(`{"data":[{"index":1,"embedding":[0,1]},{"index":0,"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	e, err := NewOpenAI("secret", "", WithBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	got, err := e.Embed(context.Background(), []string{"cat", "dog"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, got)
}

func TestMistral_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "mistral-embed", req["model"])
		assert.Equal(t, "float", req["encoding_format"])

		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.5,0.25]}]}`))
	}))
	defer srv.Close()

	e, err := NewMistral("secret", WithBaseURL(srv.URL))
	require.NoError(t, err)

	got, err := e.Embed(context.Background(), []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{0.5, 0.25}}, got)
}

func TestLocal_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b"}, req.Inputs)

		_, _ = w.Write([]byte(`{"embeddings":[[1,2],[3,4]]}`))
	}))
	defer srv.Close()

	got, err := NewLocal(WithBaseURL(srv.URL)).Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2}, {3, 4}}, got)
}

func TestEmbed_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"message":"Unauthorized"}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrAuthentication)
			},
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   "boom\n",
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
				assert.Equal(t, "boom", se.Body)
				assert.Equal(t, ProviderOpenAI, se.Provider)
				assert.Contains(t, se.Error(), "status 500")
			},
		},
		{
			name:   "count mismatch",
			status: http.StatusOK,
			body:   `{"data":[{"embedding":[1]}]}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrResponseMismatch)
			},
		},
		{
			name:   "duplicate index",
			status: http.StatusOK,
			body:   `{"data":[{"index":0,"embedding":[1]},{"index":0,"embedding":[2]}]}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrResponseMismatch)
			},
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `{"data":`,
			check: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "decode response")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			e, err := NewOpenAI("key", "", WithBaseURL(srv.URL))
			require.NoError(t, err)
			_, err = e.Embed(context.Background(), []string{"x", "y"})
			tt.check(t, err)
		})
	}
}

func TestEmbed_EmptyInputSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	got, err := NewLocal(WithBaseURL(srv.URL)).Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, calls.Load())
}

func TestEmbed_ControllerCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[[1]]}`))
	}))
	defer srv.Close()

	rc := resource.NewController(resource.Config{MaxConcurrentRequests: 1})
	release, err := rc.AcquireRequest(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewLocal(WithBaseURL(srv.URL), WithController(rc)).Embed(ctx, []string{"x"})
	assert.True(t, errors.Is(err, context.Canceled))
}
