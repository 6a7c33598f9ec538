package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hupe1980/embedviz"
	"github.com/hupe1980/embedviz/archive"
	"github.com/hupe1980/embedviz/blobstore"
	"github.com/hupe1980/embedviz/blobstore/minio"
	"github.com/hupe1980/embedviz/blobstore/s3"
	"github.com/hupe1980/embedviz/embedding"
	"github.com/hupe1980/embedviz/internal/config"
	"github.com/hupe1980/embedviz/internal/resource"
	"github.com/hupe1980/embedviz/tsne"
)

type globalFlags struct {
	config   string
	provider string
	model    string
	apiKey   string
	baseURL  string
	logLevel string
}

// app carries what every subcommand needs: the merged configuration and
// the constructors built from it.
type app struct {
	getenv func(string) string
	flags  globalFlags
}

// load merges the config file, the environment and the global flags.
func (a *app) load() (*config.Config, error) {
	cfg, err := config.Load(a.flags.config)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(a.getenv); err != nil {
		return nil, err
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Provider, a.flags.provider)
	set(&cfg.Model, a.flags.model)
	set(&cfg.APIKey, a.flags.apiKey)
	set(&cfg.BaseURL, a.flags.baseURL)
	set(&cfg.Log.Level, a.flags.logLevel)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig) (*embedviz.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return embedviz.NewTextLogger(level), nil
	case "json":
		return embedviz.NewJSONLoggerTo(os.Stderr, level), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}

func newEmbedder(cfg *config.Config, logger *embedviz.Logger) (embedding.Embedder, error) {
	provider, err := embedding.ParseProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:      cfg.Cache.CapacityBytes,
		MaxConcurrentRequests: cfg.Limits.MaxConcurrent,
		RequestsPerSecond:     cfg.Limits.RequestsPerSecond,
		Burst:                 cfg.Limits.Burst,
	})
	opts := []embedding.Option{
		embedding.WithController(rc),
		embedding.WithLogger(logger.Logger),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, embedding.WithBaseURL(cfg.BaseURL))
	}

	e, err := embedding.New(provider, cfg.Model, cfg.APIKey, opts...)
	if err != nil {
		return nil, err
	}
	if cfg.Cache.CapacityBytes > 0 {
		e = embedding.NewCached(e, cfg.Cache.CapacityBytes, rc)
	}
	return e, nil
}

func newStore(ctx context.Context, cfg config.ArchiveConfig) (blobstore.BlobStore, error) {
	switch cfg.Backend {
	case config.BackendLocal:
		return blobstore.NewLocalStore(cfg.Path), nil
	case config.BackendS3:
		opts := []s3.Option{
			s3.WithPrefix(cfg.S3.Prefix),
			s3.WithRegion(cfg.S3.Region),
			s3.WithEndpoint(cfg.S3.Endpoint),
			s3.WithPathStyle(cfg.S3.PathStyle),
		}
		if cfg.S3.CommitTable != "" {
			store, err := s3.OpenCommitStore(ctx, cfg.S3.Bucket, cfg.S3.CommitTable, opts...)
			if err != nil {
				return nil, err
			}
			return store, nil
		}
		store, err := s3.New(ctx, cfg.S3.Bucket, opts...)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendMinIO:
		store, err := minio.New(ctx, cfg.MinIO)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, nil
	}
}

func newArchive(ctx context.Context, cfg config.ArchiveConfig, logger *embedviz.Logger) (*archive.Archive, error) {
	store, err := newStore(ctx, cfg)
	if err != nil || store == nil {
		return nil, err
	}
	comp, err := archive.ParseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}
	return archive.New(store,
		archive.WithCompression(comp),
		archive.WithLogger(logger.Logger),
	), nil
}

// explorer builds the Explorer described by cfg. mc may be nil.
func (a *app) explorer(ctx context.Context, cfg *config.Config, mc embedviz.MetricsCollector) (*embedviz.Explorer, embedding.Embedder, error) {
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	e, err := newEmbedder(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	arch, err := newArchive(ctx, cfg.Archive, logger)
	if err != nil {
		return nil, nil, err
	}

	tsneOpts := []tsne.Option{tsne.WithLogger(logger.Logger)}
	if cfg.Projection.Workers > 0 {
		tsneOpts = append(tsneOpts, tsne.WithWorkers(cfg.Projection.Workers))
	}
	opts := []embedviz.Option{
		embedviz.WithLogger(logger),
		embedviz.WithProvider(cfg.Provider),
		embedviz.WithTSNEOptions(tsneOpts...),
	}
	if arch != nil {
		opts = append(opts, embedviz.WithArchive(arch))
	}
	if mc != nil {
		opts = append(opts, embedviz.WithMetricsCollector(mc))
	}
	return embedviz.New(e, opts...), e, nil
}

// params returns the configured projection defaults.
func params(cfg config.ProjectionConfig) embedviz.Params {
	return embedviz.Params{
		Dimensions:    cfg.Dimensions,
		Perplexity:    cfg.Perplexity,
		Iterations:    cfg.Iterations,
		LearningRate:  cfg.LearningRate,
		CostThreshold: cfg.CostThreshold,
	}
}
