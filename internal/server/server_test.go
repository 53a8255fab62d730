package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/hupe1980/rankgo/blobstore"
	"github.com/hupe1980/rankgo/ledger"
	"github.com/hupe1980/rankgo/prommetrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics := prommetrics.New(reg)
	metrics.RecordTopic(3, time.Second, nil)

	sink := blobstore.NewMemoryStore()
	require.NoError(t, sink.Put(ctx, "ranks/web.jsonl", []byte("{\"node\":1,\"rank\":1}\n")))

	l := ledger.NewMemoryLedger()
	_, err := l.Publish(ctx, ledger.Entry{Topic: "web", RunID: "r1", Output: "ranks/web.jsonl", Nodes: 1, Converged: true})
	require.NoError(t, err)

	s := New(Config{
		Gatherer:   reg,
		Sink:       sink,
		Ledger:     l,
		OutputName: func(topic string) string { return "ranks/" + topic + ".jsonl" },
	})
	h := s.Handler()

	t.Run("Health", func(t *testing.T) {
		rec := get(t, h, "/healthz")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("Metrics", func(t *testing.T) {
		rec := get(t, h, "/metrics")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `rankgo_topics_total{status="ok"} 1`)
	})

	t.Run("Latest", func(t *testing.T) {
		rec := get(t, h, "/topics/web")
		require.Equal(t, http.StatusOK, rec.Code)

		var got entryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, uint64(1), got.Version)
		assert.Equal(t, "r1", got.RunID)
		assert.True(t, got.Converged)

		assert.Equal(t, http.StatusNotFound, get(t, h, "/topics/none").Code)
	})

	t.Run("Ranks", func(t *testing.T) {
		rec := get(t, h, "/topics/web/ranks")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))
		assert.Equal(t, "{\"node\":1,\"rank\":1}\n", rec.Body.String())

		assert.Equal(t, http.StatusNotFound, get(t, h, "/topics/none/ranks").Code)
	})
}

func TestServer_Disabled(t *testing.T) {
	h := New(Config{}).Handler()
	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/metrics").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/topics/web").Code)
}

func TestServer_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(Config{})

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			assert.False(t, strings.Contains(err.Error(), "address already in use"), err.Error())
		}
	case <-time.After(15 * time.Second):
		t.Fatal("server did not shut down")
	}
}
