package runner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hupe1980/rankgo"
	"github.com/hupe1980/rankgo/blobstore"
	"github.com/hupe1980/rankgo/codec"
	"github.com/hupe1980/rankgo/ledger"
	"github.com/hupe1980/rankgo/resource"
	"github.com/hupe1980/rankgo/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ringInput = `{"source":1,"edges":[{"dest":2}]}
{"source":2,"edges":[{"dest":3}]}
{"source":3,"edges":[{"dest":1}]}
`

const starInput = `{"source":1,"edges":[{"dest":0}]}
{"source":2,"edges":[{"dest":0}]}
{"source":3,"edges":[{"dest":0,"weight":2},{"dest":1}]}
`

func stringJob(topic, input string) Job {
	return Job{
		Topic: topic,
		Open: func(context.Context) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(input)), nil
		},
	}
}

func newTestRunner(t *testing.T, sink blobstore.BlobStore, optFns ...Option) *Runner {
	t.Helper()
	r, err := New(sink, append([]Option{WithLogger(rankgo.NoopLogger())}, optFns...)...)
	require.NoError(t, err)
	return r
}

func readRanks(t *testing.T, store blobstore.BlobStore, name string) map[int32]float32 {
	t.Helper()
	data, err := blobstore.ReadAll(context.Background(), store, name)
	require.NoError(t, err)

	ranks := make(map[int32]float32)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var line rankLine
		require.NoError(t, codec.Default.Unmarshal(sc.Bytes(), &line))
		ranks[line.Node] = line.Rank
	}
	require.NoError(t, sc.Err())
	return ranks
}

func sum(ranks map[int32]float32) float64 {
	var s float64
	for _, r := range ranks {
		s += float64(r)
	}
	return s
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoSink)

	_, err = New(blobstore.NewMemoryStore(), WithGraphOptions(rankgo.WithAlpha(2)))
	assert.ErrorIs(t, err, rankgo.ErrInvalidAlpha)
}

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()
	sink := blobstore.NewMemoryStore()
	metrics := &rankgo.BasicMetricsCollector{}
	r := newTestRunner(t, sink,
		WithOutputPrefix("ranks/"),
		WithGraphOptions(rankgo.WithDanglingNodeHandling(true)),
		WithMetricsCollector(metrics),
	)

	reports := r.Run(ctx, []Job{
		stringJob("ring", ringInput),
		stringJob("broken", "{\"source\":1}\n{oops}\n"),
		stringJob("star", starInput),
	})
	require.Len(t, reports, 3)

	ring := reports[0]
	require.NoError(t, ring.Err)
	assert.Equal(t, "ring", ring.Topic)
	assert.Equal(t, "ranks/ring.jsonl", ring.Output)
	assert.NotEmpty(t, ring.RunID)
	assert.Equal(t, 3, ring.Nodes)
	assert.Equal(t, int64(3), ring.Edges)
	assert.Equal(t, int64(3), ring.Load.Records)
	assert.Positive(t, ring.Result.Iterations)

	ranks := readRanks(t, sink, "ranks/ring.jsonl")
	require.Len(t, ranks, 3)
	for id, rank := range ranks {
		assert.InDelta(t, 1.0/3, rank, 1e-5, "node %d", id)
	}

	broken := reports[1]
	var de *source.DecodeError
	require.ErrorAs(t, broken.Err, &de)
	assert.Equal(t, 2, de.Line)
	_, err := sink.Open(ctx, "ranks/broken.jsonl")
	assert.ErrorIs(t, err, blobstore.ErrNotFound, "failed topic must not write output")

	star := reports[2]
	require.NoError(t, star.Err)
	starRanks := readRanks(t, sink, "ranks/star.jsonl")
	assert.Len(t, starRanks, 4)
	assert.InDelta(t, 1.0, sum(starRanks), 1e-4)
	assert.Greater(t, starRanks[0], starRanks[2])

	names, err := sink.List(ctx, "ranks/")
	require.NoError(t, err)
	assert.Equal(t, []string{"ranks/ring.jsonl", "ranks/star.jsonl"}, names)

	stats := metrics.GetStats()
	assert.Equal(t, int64(3), stats.TopicCount)
	assert.Equal(t, int64(1), stats.TopicErrors)
}

func TestRunner_DiskCacheMatchesMemory(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	disk := blobstore.NewMemoryStore()

	rm := newTestRunner(t, mem, WithGraphOptions(rankgo.WithDanglingNodeHandling(true)))
	rd := newTestRunner(t, disk, WithGraphOptions(
		rankgo.WithDanglingNodeHandling(true),
		rankgo.WithEdgeDiskCaching(true),
		rankgo.WithEdgeCachingThreshold(2),
		rankgo.WithSpillDir(t.TempDir()),
	))

	a := rm.RunOne(ctx, stringJob("star", starInput))
	b := rd.RunOne(ctx, stringJob("star", starInput))
	require.NoError(t, a.Err)
	require.NoError(t, b.Err)
	assert.False(t, a.UsedDiskCache)
	assert.True(t, b.UsedDiskCache)

	assert.Equal(t, readRanks(t, mem, "star.jsonl"), readRanks(t, disk, "star.jsonl"))
}

func TestRunner_Ledger(t *testing.T) {
	ctx := context.Background()
	l := ledger.NewMemoryLedger()
	r := newTestRunner(t, blobstore.NewMemoryStore(), WithLedger(l))

	first := r.RunOne(ctx, stringJob("ring", ringInput))
	require.NoError(t, first.Err)
	second := r.RunOne(ctx, stringJob("ring", ringInput))
	require.NoError(t, second.Err)
	assert.Equal(t, uint64(1), first.Version)
	assert.Equal(t, uint64(2), second.Version)

	latest, err := l.Latest(ctx, "ring")
	require.NoError(t, err)
	assert.Equal(t, second.RunID, latest.RunID)
	assert.Equal(t, "ring.jsonl", latest.Output)
	assert.Equal(t, 3, latest.Nodes)

	failed := r.RunOne(ctx, stringJob("bad", "{oops}"))
	require.Error(t, failed.Err)
	_, err = l.Latest(ctx, "bad")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestRunner_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestRunner(t, blobstore.NewMemoryStore(),
		WithController(resource.NewController(resource.Config{MaxWorkers: 1})))
	reports := r.Run(ctx, []Job{stringJob("a", ringInput), stringJob("b", ringInput)})
	for _, rep := range reports {
		assert.ErrorIs(t, rep.Err, context.Canceled, rep.Topic)
	}
}

func TestRunner_MemoryAdmission(t *testing.T) {
	ctx := context.Background()
	rc := resource.NewController(resource.Config{MaxWorkers: 2, MemoryLimitBytes: 100})
	r := newTestRunner(t, blobstore.NewMemoryStore(), WithController(rc))

	big := stringJob("big", ringInput)
	big.SizeHint = 1 << 20
	small := stringJob("small", ringInput)
	small.SizeHint = 10

	for _, rep := range r.Run(ctx, []Job{big, small}) {
		require.NoError(t, rep.Err, rep.Topic)
	}
	assert.Zero(t, rc.MemoryReserved())
}

func TestRunner_MissingInput(t *testing.T) {
	r := newTestRunner(t, blobstore.NewMemoryStore())

	rep := r.RunOne(context.Background(), Job{Topic: "nothing"})
	assert.Error(t, rep.Err)

	rep = r.RunOne(context.Background(), Job{
		Topic: "gone",
		Open: func(context.Context) (io.ReadCloser, error) {
			return nil, os.ErrNotExist
		},
	})
	assert.ErrorIs(t, rep.Err, os.ErrNotExist)
}

func TestRunner_GraphTooLarge(t *testing.T) {
	r := newTestRunner(t, blobstore.NewMemoryStore(), WithLimits(source.Limits{MaxNodesAndEdges: 3}))
	rep := r.RunOne(context.Background(), stringJob("ring", ringInput))
	assert.ErrorIs(t, rep.Err, source.ErrGraphTooLarge)
}

// failingSink accepts writes but fails on commit.
type failingSink struct {
	*blobstore.MemoryStore
	aborted int
}

type failingBlob struct {
	sink *failingSink
}

func (b *failingBlob) Write(p []byte) (int, error) { return len(p), nil }
func (b *failingBlob) Close() error                { return errors.New("commit failed") }
func (b *failingBlob) Abort() error {
	b.sink.aborted++
	return nil
}

func (s *failingSink) Create(context.Context, string) (blobstore.WritableBlob, error) {
	return &failingBlob{sink: s}, nil
}

func TestRunner_WriteFailure(t *testing.T) {
	sink := &failingSink{MemoryStore: blobstore.NewMemoryStore()}
	r := newTestRunner(t, sink)

	rep := r.RunOne(context.Background(), stringJob("ring", ringInput))
	require.Error(t, rep.Err)
	assert.Equal(t, 1, sink.aborted)
}

func TestJobsFromStore(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "in/web.jsonl", []byte(ringInput)))
	require.NoError(t, store.Put(ctx, "in/news.jsonl", []byte(starInput)))
	require.NoError(t, store.Put(ctx, "in/README.md", []byte("skip")))
	require.NoError(t, store.Put(ctx, "other/x.jsonl", []byte("skip")))

	jobs, err := JobsFromStore(ctx, store, "in/", ".jsonl")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "news", jobs[0].Topic)
	assert.Equal(t, "web", jobs[1].Topic)

	sink := blobstore.NewMemoryStore()
	reports := newTestRunner(t, sink).Run(ctx, jobs)
	for _, rep := range reports {
		require.NoError(t, rep.Err, rep.Topic)
	}
	assert.Equal(t, 2, sink.Len())
}

func TestFileJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "web.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(ringInput), 0o600))

	job, err := FileJob("web", path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(ringInput)), job.SizeHint)

	rep := newTestRunner(t, blobstore.NewMemoryStore()).RunOne(context.Background(), job)
	require.NoError(t, rep.Err)

	_, err = FileJob("missing", filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
