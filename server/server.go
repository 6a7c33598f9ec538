package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/hupe1980/embedviz"
	"github.com/hupe1980/embedviz/archive"
	"github.com/hupe1980/embedviz/codec"
	"github.com/hupe1980/embedviz/embedding"
	"github.com/hupe1980/embedviz/internal/resource"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Server serves an Explorer over HTTP.
type Server struct {
	explorer *embedviz.Explorer
	embedder embedding.Embedder
	limiter  *resource.KeyedLimiter
	origins  map[string]struct{}
	opts     options
	handler  http.Handler
}

// New returns a Server. embedder answers POST /embeddings; it is usually the
// embedder the Explorer was built with.
func New(explorer *embedviz.Explorer, embedder embedding.Embedder, optFns ...Option) *Server {
	opts := options{
		rateEvents:   DefaultRateEvents,
		rateInterval: DefaultRateInterval,
		origins:      DefaultOrigins,
		codec:        codec.Default,
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.logger == nil {
		opts.logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		explorer: explorer,
		embedder: embedder,
		origins:  make(map[string]struct{}, len(opts.origins)),
		opts:     opts,
	}
	for _, o := range opts.origins {
		s.origins[o] = struct{}{}
	}
	if opts.rateEvents > 0 && opts.rateInterval > 0 {
		s.limiter = resource.NewKeyedLimiter(opts.rateEvents, opts.rateInterval)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /embeddings", s.limit(http.HandlerFunc(s.handleEmbeddings)))
	mux.Handle("POST /projections", s.limit(http.HandlerFunc(s.handleProjections)))
	mux.HandleFunc("GET /runs", s.handleRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleRun)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	for pattern, h := range opts.extra {
		mux.Handle(pattern, h)
	}
	s.handler = s.logRequests(s.cors(mux))
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. Idle rate-limit buckets are swept once per rate interval.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.opts.logger.Info("listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if s.limiter != nil {
		g.Go(func() error {
			ticker := time.NewTicker(s.opts.rateInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if n := s.limiter.Sweep(); n > 0 {
						s.opts.logger.Debug("rate limiter swept", slog.Int("removed", n))
					}
				}
			}
		})
	}
	return g.Wait()
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status  string   `json:"status"`
	Model   string   `json:"model"`
	Methods []string `json:"methods"`
}

func (s *Server) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req embedding.Request
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Inputs) == 0 {
		s.writeError(w, http.StatusBadRequest, "No inputs provided")
		return
	}

	vectors, err := s.embedder.Embed(r.Context(), req.Inputs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, http.StatusOK, embedding.Response{Embeddings: vectors})
}

func (s *Server) handleProjections(w http.ResponseWriter, r *http.Request) {
	var req embedviz.Request
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.explorer.Compare(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, http.StatusOK, report)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.explorer.Runs(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.write(w, http.StatusOK, ids)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	rec, err := s.explorer.LoadRun(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, http.StatusOK, rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.write(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Model:   s.explorer.Model(),
		Methods: s.explorer.Methods(),
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := s.opts.codec.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.opts.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
	s.writeError(w, status, err.Error())
}

// statusOf maps domain errors onto HTTP status codes.
func statusOf(err error) int {
	var se *embedding.StatusError
	switch {
	case errors.Is(err, embedviz.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, archive.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, embedviz.ErrNoArchive):
		return http.StatusNotImplemented
	case errors.Is(err, embedding.ErrAuthentication),
		errors.Is(err, embedding.ErrResponseMismatch),
		errors.As(err, &se):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.write(w, status, errorResponse{Error: msg})
}

func (s *Server) write(w http.ResponseWriter, status int, v any) {
	data, err := s.opts.codec.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
