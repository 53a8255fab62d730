package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/rankgo"
	"github.com/hupe1980/rankgo/blobstore"
	"github.com/hupe1980/rankgo/codec"
	"github.com/hupe1980/rankgo/ledger"
	"github.com/hupe1980/rankgo/resource"
	"github.com/hupe1980/rankgo/source"
	"golang.org/x/sync/errgroup"
)

// ErrNoSink is returned by New without a blob store.
var ErrNoSink = errors.New("runner: sink is required")

// Job is one topic to rank.
type Job struct {
	Topic string
	Open  func(ctx context.Context) (io.ReadCloser, error)
	// SizeHint is the input size in bytes, used as the topic's memory
	// estimate. Zero skips memory admission.
	SizeHint int64
}

// Report is the outcome of one topic.
type Report struct {
	Topic         string
	RunID         string
	Output        string
	Load          source.Stats
	Nodes         int
	Edges         int64
	Result        rankgo.Result
	UsedDiskCache bool
	Version       uint64
	Duration      time.Duration
	Err           error
}

// Runner ranks topics. It is safe for concurrent use.
type Runner struct {
	sink blobstore.BlobStore
	opts options
}

// New creates a Runner that writes rank outputs to sink.
func New(sink blobstore.BlobStore, optFns ...Option) (*Runner, error) {
	if sink == nil {
		return nil, ErrNoSink
	}

	o := options{
		codec:   codec.Default,
		logger:  rankgo.NoopLogger(),
		metrics: rankgo.NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&o)
	}

	// Validate graph options once instead of failing every topic.
	g, err := rankgo.New(o.graphOpts...)
	if err != nil {
		return nil, err
	}
	_ = g.Close()

	return &Runner{sink: sink, opts: o}, nil
}

// OutputName returns the blob name a topic's ranks are written to.
func (r *Runner) OutputName(topic string) string {
	return r.opts.outputPrefix + topic + DefaultOutputSuffix
}

// Run ranks every job and returns one report per job, in job order.
func (r *Runner) Run(ctx context.Context, jobs []Job) []Report {
	reports := make([]Report, len(jobs))

	var eg errgroup.Group
	for i, job := range jobs {
		eg.Go(func() error {
			reports[i] = r.RunOne(ctx, job)
			return nil
		})
	}
	_ = eg.Wait()

	return reports
}

// RunOne ranks a single topic.
func (r *Runner) RunOne(ctx context.Context, job Job) (rep Report) {
	start := time.Now()
	rep = Report{
		Topic:  job.Topic,
		RunID:  uuid.NewString(),
		Output: r.OutputName(job.Topic),
	}
	logger := r.opts.logger.WithTopic(job.Topic).WithRunID(rep.RunID)

	defer func() {
		rep.Duration = time.Since(start)
		r.opts.metrics.RecordTopic(rep.Result.Iterations, rep.Duration, rep.Err)
		logger.LogTopic(ctx, job.Topic, rep.Nodes, rep.Result.Iterations, rep.Err)
	}()

	if job.Open == nil {
		rep.Err = fmt.Errorf("runner: topic %q has no input", job.Topic)
		return rep
	}

	ticket, err := r.opts.controller.Admit(ctx, job.SizeHint)
	if err != nil {
		rep.Err = err
		return rep
	}
	defer ticket.Release()

	rep.Err = r.rank(ctx, job, logger, &rep)
	return rep
}

func (r *Runner) rank(ctx context.Context, job Job, logger *rankgo.Logger, rep *Report) error {
	graphOpts := append([]rankgo.Option{}, r.opts.graphOpts...)
	graphOpts = append(graphOpts,
		rankgo.WithLogger(logger),
		rankgo.WithMetricsCollector(r.opts.metrics),
	)
	if r.opts.controller != nil {
		graphOpts = append(graphOpts, rankgo.WithIOThrottle(r.opts.controller))
	}

	g, err := rankgo.New(graphOpts...)
	if err != nil {
		return err
	}
	defer g.Close()

	if err := r.load(ctx, job, g, rep); err != nil {
		return err
	}
	rep.Nodes = g.NodeCount()
	rep.Edges = g.EdgeCount()
	rep.UsedDiskCache = g.IsUsingDiskCache()

	if err := g.Init(ctx); err != nil {
		return err
	}
	res, err := rankgo.Iterate(ctx, g, r.opts.driver)
	rep.Result = res
	if err != nil {
		return err
	}

	if err := r.write(ctx, g, rep.Output); err != nil {
		return err
	}

	if r.opts.ledger != nil {
		entry, err := r.opts.ledger.Publish(ctx, ledger.Entry{
			Topic:           job.Topic,
			RunID:           rep.RunID,
			Output:          rep.Output,
			Nodes:           rep.Nodes,
			Iterations:      res.Iterations,
			TotalRankChange: res.TotalRankChange,
			Converged:       res.Converged,
		})
		if err != nil {
			return fmt.Errorf("runner: publish: %w", err)
		}
		rep.Version = entry.Version
	}
	return nil
}

func (r *Runner) load(ctx context.Context, job Job, g *rankgo.Graph, rep *Report) error {
	in, err := job.Open(ctx)
	if err != nil {
		return fmt.Errorf("runner: open input: %w", err)
	}
	defer in.Close()

	limits := r.opts.limits
	if limits.Codec == nil {
		limits.Codec = r.opts.codec
	}

	rep.Load, err = source.Load(ctx, g, resource.ThrottleReader(ctx, in, r.opts.controller), limits)
	return err
}

// rankLine is one line of a rank output.
type rankLine struct {
	Node int32   `json:"node"`
	Rank float32 `json:"rank"`
}

// write streams the ranks to the sink. Any failure aborts the blob.
func (r *Runner) write(ctx context.Context, g *rankgo.Graph, name string) (err error) {
	blob, err := r.sink.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("runner: create output: %w", err)
	}
	defer func() {
		if err != nil {
			_ = blob.Abort()
		}
	}()

	bw := bufio.NewWriterSize(resource.ThrottleWriter(ctx, blob, r.opts.controller), 64*1024)
	var line []byte
	for id, rank := range g.Ranks() {
		line, err = r.opts.codec.AppendLine(line[:0], rankLine{Node: id, Rank: rank})
		if err != nil {
			return err
		}
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return blob.Close()
}

// JobsFromStore returns one job per blob under prefix ending in suffix.
// The topic is the blob name without prefix and suffix.
func JobsFromStore(ctx context.Context, store blobstore.BlobStore, prefix, suffix string) ([]Job, error) {
	names, err := store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var jobs []Job
	for _, name := range names {
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		jobs = append(jobs, Job{
			Topic: strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix),
			Open: func(ctx context.Context) (io.ReadCloser, error) {
				return store.Open(ctx, name)
			},
		})
	}
	return jobs, nil
}

// FileJob returns a job reading a local file. The file size is the memory
// estimate.
func FileJob(topic, path string) (Job, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Job{}, err
	}
	return Job{
		Topic:    topic,
		SizeHint: info.Size(),
		Open: func(context.Context) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}
