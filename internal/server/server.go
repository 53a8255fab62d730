// Package server exposes rank outputs, ledger entries and Prometheus metrics
// over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/hupe1980/rankgo"
	"github.com/hupe1980/rankgo/blobstore"
	"github.com/hupe1980/rankgo/ledger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config wires the server to the rest of the process.
type Config struct {
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	// Sink holds rank outputs. Nil disables /topics/:topic/ranks.
	Sink blobstore.BlobStore
	// Ledger backs /topics/:topic. Nil disables the endpoint.
	Ledger ledger.Ledger
	// OutputName maps a topic to its blob name.
	OutputName func(topic string) string
	Logger     *rankgo.Logger
}

// Server is the status HTTP server.
type Server struct {
	echo   *echo.Echo
	cfg    Config
	logger *rankgo.Logger
}

// New creates a Server and registers its routes.
func New(cfg Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	logger := cfg.Logger
	if logger == nil {
		logger = rankgo.NoopLogger()
	}
	if cfg.OutputName == nil {
		cfg.OutputName = func(topic string) string { return topic + ".jsonl" }
	}

	s := &Server{echo: e, cfg: cfg, logger: logger}

	e.GET("/healthz", s.health)
	if cfg.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	if cfg.Ledger != nil {
		e.GET("/topics/:topic", s.latest)
	}
	if cfg.Sink != nil {
		e.GET("/topics/:topic/ranks", s.ranks)
	}
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "starting status server", "addr", addr)
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type entryResponse struct {
	Topic           string    `json:"topic"`
	Version         uint64    `json:"version"`
	RunID           string    `json:"run_id"`
	Output          string    `json:"output"`
	Nodes           int       `json:"nodes"`
	Iterations      int       `json:"iterations"`
	TotalRankChange float64   `json:"total_rank_change"`
	Converged       bool      `json:"converged"`
	CreatedAt       time.Time `json:"created_at"`
}

func (s *Server) latest(c echo.Context) error {
	topic := c.Param("topic")
	e, err := s.cfg.Ledger.Latest(c.Request().Context(), topic)
	if errors.Is(err, ledger.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown topic"})
	}
	if err != nil {
		s.logger.ErrorContext(c.Request().Context(), "ledger lookup failed", "topic", topic, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "ledger unavailable"})
	}
	return c.JSON(http.StatusOK, entryResponse(e))
}

func (s *Server) ranks(c echo.Context) error {
	topic := c.Param("topic")
	r, err := s.cfg.Sink.Open(c.Request().Context(), s.cfg.OutputName(topic))
	if errors.Is(err, blobstore.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no ranks for topic"})
	}
	if err != nil {
		s.logger.ErrorContext(c.Request().Context(), "open ranks failed", "topic", topic, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "sink unavailable"})
	}
	defer r.Close()

	c.Response().Header().Set(echo.HeaderContentType, "application/x-ndjson")
	c.Response().WriteHeader(http.StatusOK)
	_, err = io.Copy(c.Response(), r)
	return err
}
