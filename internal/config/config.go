// Package config maps the rankgo configuration surface (config file,
// RANKGO_* environment variables and CLI flags) onto library options.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hupe1980/rankgo"
	"github.com/hupe1980/rankgo/codec"
	"github.com/hupe1980/rankgo/resource"
	"github.com/hupe1980/rankgo/source"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "RANKGO"

// S3Config selects an S3 sink.
type S3Config struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
	Region string `mapstructure:"region"`
}

// MinioConfig selects a MinIO sink.
type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Secure    bool   `mapstructure:"secure"`
}

// LedgerConfig selects the DynamoDB ledger.
type LedgerConfig struct {
	Table  string `mapstructure:"table"`
	Region string `mapstructure:"region"`
}

// Config holds all runtime configuration.
type Config struct {
	Alpha              float64 `mapstructure:"alpha"`
	DanglingNodes      bool    `mapstructure:"dangling_nodes"`
	NodeBias           bool    `mapstructure:"node_bias"`
	EdgeDiskCache      bool    `mapstructure:"edge_disk_cache"`
	EdgeCacheThreshold int64   `mapstructure:"edge_cache_threshold"`
	SpillDir           string  `mapstructure:"spill_dir"`
	SpillCompression   string  `mapstructure:"spill_compression"`
	MaxIterations      int     `mapstructure:"max_iterations"`
	Tolerance          float64 `mapstructure:"tolerance"`
	MaxNodesAndEdges   int64   `mapstructure:"max_nodes_and_edges"`
	Workers            int64   `mapstructure:"workers"`
	MemoryLimit        int64   `mapstructure:"memory_limit"`
	IOLimit            int64   `mapstructure:"io_limit"`
	Codec              string  `mapstructure:"codec"`
	Out                string  `mapstructure:"out"`
	OutputPrefix       string  `mapstructure:"output_prefix"`
	MetricsAddr        string  `mapstructure:"metrics_addr"`
	LogLevel           string  `mapstructure:"log_level"`
	LogFormat          string  `mapstructure:"log_format"`

	S3     S3Config     `mapstructure:"s3"`
	Minio  MinioConfig  `mapstructure:"minio"`
	Ledger LedgerConfig `mapstructure:"ledger"`
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("alpha", float64(rankgo.DefaultAlpha))
	v.SetDefault("dangling_nodes", true)
	v.SetDefault("node_bias", false)
	v.SetDefault("edge_disk_cache", false)
	v.SetDefault("edge_cache_threshold", rankgo.DefaultEdgeCachingThreshold)
	v.SetDefault("spill_dir", "")
	v.SetDefault("spill_compression", "none")
	v.SetDefault("max_iterations", rankgo.DefaultMaxIterations)
	v.SetDefault("tolerance", rankgo.DefaultTolerance)
	v.SetDefault("max_nodes_and_edges", source.DefaultMaxNodesAndEdges)
	v.SetDefault("workers", 1)
	v.SetDefault("memory_limit", 0)
	v.SetDefault("io_limit", 0)
	v.SetDefault("codec", "go-json")
	v.SetDefault("out", "ranks")
	v.SetDefault("output_prefix", "")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.prefix", "")
	v.SetDefault("s3.region", "")
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", "")
	v.SetDefault("minio.prefix", "")
	v.SetDefault("minio.secure", false)
	v.SetDefault("ledger.table", "")
	v.SetDefault("ledger.region", "")
}

// BindEnv makes v read RANKGO_* variables; nested keys use underscores
// (RANKGO_S3_BUCKET).
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration from v, applying built-in defaults for any
// values not set by config file, environment or flags.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that the library options would otherwise reject
// late.
func (c Config) Validate() error {
	var errs []error
	if !(c.Alpha > 0 && c.Alpha < 1) {
		errs = append(errs, fmt.Errorf("alpha must be in (0, 1), got %v", c.Alpha))
	}
	if c.EdgeCacheThreshold <= 0 {
		errs = append(errs, fmt.Errorf("edge_cache_threshold must be positive, got %d", c.EdgeCacheThreshold))
	}
	if _, err := rankgo.ParseCompression(c.SpillCompression); err != nil {
		errs = append(errs, err)
	}
	if _, ok := codec.ByName(c.Codec); !ok {
		errs = append(errs, fmt.Errorf("unknown codec %q", c.Codec))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	switch c.LogFormat {
	case "console", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}
	if c.S3.Bucket != "" && c.Minio.Endpoint != "" {
		errs = append(errs, errors.New("s3.bucket and minio.endpoint are mutually exclusive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// GraphOptions returns the per-topic graph options.
func (c Config) GraphOptions() ([]rankgo.Option, error) {
	comp, err := rankgo.ParseCompression(c.SpillCompression)
	if err != nil {
		return nil, err
	}
	return []rankgo.Option{
		rankgo.WithAlpha(float32(c.Alpha)),
		rankgo.WithDanglingNodeHandling(c.DanglingNodes),
		rankgo.WithNodeBiasing(c.NodeBias),
		rankgo.WithEdgeDiskCaching(c.EdgeDiskCache),
		rankgo.WithEdgeCachingThreshold(c.EdgeCacheThreshold),
		rankgo.WithSpillDir(c.SpillDir),
		rankgo.WithSpillCompression(comp),
	}, nil
}

// DriverOptions returns the iteration limits.
func (c Config) DriverOptions() rankgo.DriverOptions {
	return rankgo.DriverOptions{
		MaxIterations: c.MaxIterations,
		Tolerance:     c.Tolerance,
	}
}

// Limits returns the ingestion limits.
func (c Config) Limits() source.Limits {
	cd, _ := codec.ByName(c.Codec)
	return source.Limits{
		MaxNodesAndEdges: c.MaxNodesAndEdges,
		Codec:            cd,
	}
}

// Resources returns the resource controller configuration.
func (c Config) Resources() resource.Config {
	return resource.Config{
		MaxWorkers:         c.Workers,
		MemoryLimitBytes:   c.MemoryLimit,
		IOLimitBytesPerSec: c.IOLimit,
	}
}
