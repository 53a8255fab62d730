package rankgo

import (
	"fmt"
	"log/slog"

	"github.com/hupe1980/rankgo/internal/blockcodec"
	"github.com/hupe1980/rankgo/internal/edgestore"
	"github.com/hupe1980/rankgo/internal/fs"
)

const (
	// DefaultAlpha is the default damping factor.
	DefaultAlpha float32 = 0.85

	// DefaultEdgeCachingThreshold is the default edge count above which a
	// graph with edge disk caching moves its edges to a temp file.
	DefaultEdgeCachingThreshold = edgestore.DefaultThreshold
)

// Compression selects the codec for spilled edge blocks.
type Compression = blockcodec.Type

// Spill compression codecs.
const (
	CompressionNone = blockcodec.None
	CompressionLZ4  = blockcodec.LZ4
	CompressionZstd = blockcodec.Zstd
)

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	return blockcodec.ParseType(s)
}

// FileSystem is the file abstraction used for the edge spill file.
type FileSystem = fs.FileSystem

// IOThrottle limits spill I/O in bytes. resource.Controller implements it.
type IOThrottle = edgestore.Throttle

type options struct {
	alpha                float32
	danglingNodes        bool
	nodeBiasing          bool
	edgeDiskCaching      bool
	edgeCachingThreshold int64
	spillDir             string
	spillCompression     Compression
	fileSystem           FileSystem
	ioThrottle           IOThrottle
	metricsCollector     MetricsCollector
	logger               *Logger
	progress             ProgressFunc
}

// Option configures a Graph. Options are applied once by New; the node
// record layout and the spill policy cannot change afterwards.
type Option func(*options)

// WithAlpha sets the damping factor, the probability of following an edge
// rather than restarting. It must be in (0, 1). Default is 0.85.
func WithAlpha(alpha float32) Option {
	return func(o *options) {
		o.alpha = alpha
	}
}

// WithDanglingNodeHandling redistributes the rank held by nodes without
// outgoing edges uniformly across all nodes on every iteration.
//
// Without it, rank that reaches a dangling node leaks out of the graph and
// the rank sum drops below 1.
func WithDanglingNodeHandling(enabled bool) Option {
	return func(o *options) {
		o.danglingNodes = enabled
	}
}

// WithNodeBiasing enables personalized PageRank: the restart distribution is
// the normalized per-node bias supplied via AddBiasedNode instead of uniform.
func WithNodeBiasing(enabled bool) Option {
	return func(o *options) {
		o.nodeBiasing = enabled
	}
}

// WithEdgeDiskCaching allows the graph to move its edge data to a temp file
// once the edge count would exceed the caching threshold.
func WithEdgeDiskCaching(enabled bool) Option {
	return func(o *options) {
		o.edgeDiskCaching = enabled
	}
}

// WithEdgeCachingThreshold sets the edge count above which edges spill to
// disk (only with WithEdgeDiskCaching). Default is 30,000,000.
func WithEdgeCachingThreshold(edges int64) Option {
	return func(o *options) {
		o.edgeCachingThreshold = edges
	}
}

// WithSpillDir sets the directory for the edge spill file.
// Empty means os.TempDir().
func WithSpillDir(dir string) Option {
	return func(o *options) {
		o.spillDir = dir
	}
}

// WithSpillCompression compresses spilled edge blocks. Spilled edges are
// re-read on every iteration.
func WithSpillCompression(c Compression) Option {
	return func(o *options) {
		o.spillCompression = c
	}
}

// WithFileSystem overrides the file system used for the spill file.
func WithFileSystem(fsys FileSystem) Option {
	return func(o *options) {
		o.fileSystem = fsys
	}
}

// WithIOThrottle rate-limits spill reads and writes.
func WithIOThrottle(t IOThrottle) Option {
	return func(o *options) {
		o.ioThrottle = t
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &rankgo.BasicMetricsCollector{}
//	g, _ := rankgo.New(rankgo.WithMetricsCollector(metrics))
//	// ... build and iterate ...
//	stats := metrics.GetStats()
//	fmt.Printf("Iterations: %d, last change: %g\n", stats.IterationCount, stats.LastRankChange)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := rankgo.NewJSONLogger(slog.LevelInfo)
//	g, _ := rankgo.New(rankgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithProgress registers a callback for lifecycle events (spill, init,
// iteration). It runs synchronously on the goroutine driving the graph.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) {
		o.progress = fn
	}
}

func applyOptions(optFns []Option) (options, error) {
	o := options{
		alpha:                DefaultAlpha,
		edgeCachingThreshold: DefaultEdgeCachingThreshold,
		fileSystem:           fs.Default,
		metricsCollector:     NoopMetricsCollector{},
		logger:               NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	if !(o.alpha > 0 && o.alpha < 1) {
		return o, fmt.Errorf("%w: %v", ErrInvalidAlpha, o.alpha)
	}
	if o.edgeCachingThreshold <= 0 {
		return o, fmt.Errorf("%w: %d", ErrInvalidThreshold, o.edgeCachingThreshold)
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.fileSystem == nil {
		o.fileSystem = fs.Default
	}
	return o, nil
}
