// Package config loads the embedviz command configuration.
//
// Settings are read from a YAML file, then overlaid by environment variables.
// Command-line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/embedviz/blobstore/minio"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "EMBEDVIZ_"

// Archive backends.
const (
	BackendNone  = ""
	BackendLocal = "local"
	BackendS3    = "s3"
	BackendMinIO = "minio"
)

// Config is the top-level configuration.
type Config struct {
	Provider   string           `yaml:"provider"`
	Model      string           `yaml:"model,omitempty"`
	APIKey     string           `yaml:"api_key,omitempty"`
	BaseURL    string           `yaml:"base_url,omitempty"`
	Cache      CacheConfig      `yaml:"cache"`
	Limits     LimitsConfig     `yaml:"limits"`
	Projection ProjectionConfig `yaml:"projection"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

// CacheConfig bounds the per-text embedding cache. Zero disables it.
type CacheConfig struct {
	CapacityBytes int64 `yaml:"capacity_bytes"`
}

// LimitsConfig governs outbound provider requests.
type LimitsConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
	Burst             int     `yaml:"burst,omitempty"`
	MaxConcurrent     int64   `yaml:"max_concurrent,omitempty"`
}

// ProjectionConfig holds the default projection parameters.
type ProjectionConfig struct {
	Method        string  `yaml:"method"`
	Dimensions    int     `yaml:"dimensions"`
	Perplexity    float64 `yaml:"perplexity,omitempty"`
	Iterations    int     `yaml:"iterations,omitempty"`
	LearningRate  float64 `yaml:"learning_rate,omitempty"`
	CostThreshold float64 `yaml:"cost_threshold,omitempty"`
	Workers       int     `yaml:"workers,omitempty"`
}

// ArchiveConfig selects where runs are saved.
type ArchiveConfig struct {
	Backend     string       `yaml:"backend"`
	Path        string       `yaml:"path,omitempty"`
	Compression string       `yaml:"compression,omitempty"`
	S3          S3Config     `yaml:"s3"`
	MinIO       minio.Config `yaml:"minio"`
}

// S3Config configures the S3 archive backend. A non-empty CommitTable keeps
// the CURRENT pointer in DynamoDB.
type S3Config struct {
	Bucket      string `yaml:"bucket"`
	Prefix      string `yaml:"prefix,omitempty"`
	Region      string `yaml:"region,omitempty"`
	Endpoint    string `yaml:"endpoint,omitempty"`
	PathStyle   bool   `yaml:"path_style,omitempty"`
	CommitTable string `yaml:"commit_table,omitempty"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	Origins      []string      `yaml:"origins,omitempty"`
	RateEvents   int           `yaml:"rate_events"`
	RateInterval time.Duration `yaml:"rate_interval"`
	MetricsPath  string        `yaml:"metrics_path,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Provider: "Local",
		Projection: ProjectionConfig{
			Method:     "tsne",
			Dimensions: 2,
		},
		Archive: ArchiveConfig{
			Compression: "zstd",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			RateEvents:   30,
			RateInterval: time.Minute,
			MetricsPath:  "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables read through getenv.
//
// EMBEDVIZ_API_KEY wins over the provider specific OPENAI_API_KEY and
// MISTRAL_API_KEY, which are only consulted when no key is configured.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	str("PROVIDER", &c.Provider)
	str("MODEL", &c.Model)
	str("API_KEY", &c.APIKey)
	str("BASE_URL", &c.BaseURL)
	str("ARCHIVE_BACKEND", &c.Archive.Backend)
	str("ARCHIVE_PATH", &c.Archive.Path)
	str("S3_BUCKET", &c.Archive.S3.Bucket)
	str("S3_PREFIX", &c.Archive.S3.Prefix)
	str("S3_COMMIT_TABLE", &c.Archive.S3.CommitTable)
	str("MINIO_ENDPOINT", &c.Archive.MinIO.Endpoint)
	str("MINIO_ACCESS_KEY", &c.Archive.MinIO.AccessKey)
	str("MINIO_SECRET_KEY", &c.Archive.MinIO.SecretKey)
	str("MINIO_BUCKET", &c.Archive.MinIO.Bucket)
	str("ADDR", &c.Server.Addr)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)

	if v := getenv(EnvPrefix + "RATE_EVENTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sRATE_EVENTS: %w", EnvPrefix, err)
		}
		c.Server.RateEvents = n
	}
	if v := getenv(EnvPrefix + "ORIGINS"); v != "" {
		c.Server.Origins = splitList(v)
	}

	if c.APIKey == "" {
		switch strings.ToLower(c.Provider) {
		case "openai":
			c.APIKey = getenv("OPENAI_API_KEY")
		case "mistral":
			c.APIKey = getenv("MISTRAL_API_KEY")
		}
	}
	return nil
}

// Validate checks settings that are not validated by the packages they feed.
func (c *Config) Validate() error {
	var errs []error
	switch c.Archive.Backend {
	case BackendNone:
	case BackendLocal:
		if c.Archive.Path == "" {
			errs = append(errs, errors.New("archive.path is required for the local backend"))
		}
	case BackendS3:
		if c.Archive.S3.Bucket == "" {
			errs = append(errs, errors.New("archive.s3.bucket is required for the s3 backend"))
		}
	case BackendMinIO:
		if c.Archive.MinIO.Endpoint == "" || c.Archive.MinIO.Bucket == "" {
			errs = append(errs, errors.New("archive.minio.endpoint and archive.minio.bucket are required for the minio backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown archive backend %q", c.Archive.Backend))
	}
	if c.Projection.Dimensions < 1 {
		errs = append(errs, fmt.Errorf("projection.dimensions must be at least 1, got %d", c.Projection.Dimensions))
	}
	if c.Server.RateEvents > 0 && c.Server.RateInterval <= 0 {
		errs = append(errs, errors.New("server.rate_interval must be positive when rate limiting is enabled"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
