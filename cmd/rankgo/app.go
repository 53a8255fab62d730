package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
	"github.com/hupe1980/rankgo"
	"github.com/hupe1980/rankgo/blobstore"
	"github.com/hupe1980/rankgo/blobstore/minio"
	"github.com/hupe1980/rankgo/blobstore/s3"
	"github.com/hupe1980/rankgo/internal/config"
	"github.com/hupe1980/rankgo/internal/server"
	"github.com/hupe1980/rankgo/ledger"
	"github.com/hupe1980/rankgo/prommetrics"
	"github.com/hupe1980/rankgo/resource"
	"github.com/hupe1980/rankgo/runner"
	"github.com/prometheus/client_golang/prometheus"
)

// app holds the components shared by the run and watch commands.
type app struct {
	cfg      config.Config
	logger   *rankgo.Logger
	registry *prometheus.Registry
	sink     blobstore.BlobStore
	ledger   ledger.Ledger
	runner   *runner.Runner
}

func newApp(ctx context.Context, cfg config.Config, logOut io.Writer) (*app, error) {
	logger, err := newLogger(cfg, logOut)
	if err != nil {
		return nil, err
	}

	sink, err := newSink(ctx, cfg)
	if err != nil {
		return nil, err
	}

	l, err := newLedger(ctx, cfg)
	if err != nil {
		return nil, err
	}

	graphOpts, err := cfg.GraphOptions()
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	limits := cfg.Limits()

	r, err := runner.New(sink,
		runner.WithGraphOptions(graphOpts...),
		runner.WithDriverOptions(cfg.DriverOptions()),
		runner.WithLimits(limits),
		runner.WithController(resource.NewController(cfg.Resources())),
		runner.WithOutputPrefix(cfg.OutputPrefix),
		runner.WithCodec(limits.Codec),
		runner.WithLedger(l),
		runner.WithLogger(logger),
		runner.WithMetricsCollector(prommetrics.New(reg)),
	)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		sink:     sink,
		ledger:   l,
		runner:   r,
	}, nil
}

// serve runs the status server until ctx is done. It is a no-op without a
// metrics address.
func (a *app) serve(ctx context.Context) error {
	if a.cfg.MetricsAddr == "" {
		return nil
	}
	srv := server.New(server.Config{
		Gatherer:   a.registry,
		Sink:       a.sink,
		Ledger:     a.ledger,
		OutputName: a.runner.OutputName,
		Logger:     a.logger,
	})
	return srv.Run(ctx, a.cfg.MetricsAddr)
}

func newLogger(cfg config.Config, w io.Writer) (*rankgo.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	switch cfg.LogFormat {
	case "json":
		return rankgo.NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})), nil
	case "text":
		return rankgo.NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
	default:
		return rankgo.NewLogger(log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			Level:           log.Level(level),
		})), nil
	}
}

func newSink(ctx context.Context, cfg config.Config) (blobstore.BlobStore, error) {
	switch {
	case cfg.S3.Bucket != "":
		return s3.New(ctx, cfg.S3.Bucket,
			s3.WithPrefix(cfg.S3.Prefix),
			s3.WithRegion(cfg.S3.Region),
		)
	case cfg.Minio.Endpoint != "":
		store, err := minio.New(minio.Config{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Secure:    cfg.Minio.Secure,
		}, cfg.Minio.Bucket, cfg.Minio.Prefix)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("minio: ensure bucket %q: %w", cfg.Minio.Bucket, err)
		}
		return store, nil
	default:
		return blobstore.NewLocalStore(cfg.Out), nil
	}
}

// newLedger returns the DynamoDB ledger when a table is configured and a
// process-local ledger otherwise.
func newLedger(ctx context.Context, cfg config.Config) (ledger.Ledger, error) {
	if cfg.Ledger.Table == "" {
		return ledger.NewMemoryLedger(), nil
	}
	return ledger.NewDynamoLedgerFromEnv(ctx, cfg.Ledger.Table, cfg.Ledger.Region)
}
