package rankgo

import (
	"context"
	"fmt"
	"iter"
	"math"
	"time"

	"github.com/hupe1980/rankgo/internal/bitmap"
	"github.com/hupe1980/rankgo/internal/container"
	"github.com/hupe1980/rankgo/internal/conv"
	"github.com/hupe1980/rankgo/internal/edgestore"
	"github.com/hupe1980/rankgo/internal/nodetable"
)

// Graph is a weighted directed graph with PageRank state.
//
// Lifecycle: AddNode* -> Init -> NextIteration* -> Rank/Ranks -> Clear or Close.
// A Graph is not safe for concurrent use; each graph is owned by exactly one
// goroutine for its lifetime.
//
// Edges are stored as (source index, out-degree) headers followed by
// (destination index, quantized weight) pairs, where an index is the node's
// position in the node table.
type Graph struct {
	opts    options
	logger  *Logger
	metrics MetricsCollector

	nodes    *nodetable.Table
	edges    *edgestore.Store
	dangling *bitmap.NodeSet
	// rawBias holds biases as supplied, by node index. Init normalizes
	// from it into the node table.
	rawBias  *container.SegmentedArray[float32]

	edgeCount       int64
	totalRankChange float64
	initialized     bool
	iteration       int
}

// New creates an empty Graph.
//
// It returns ErrInvalidAlpha or ErrInvalidThreshold for bad options.
func New(optFns ...Option) (*Graph, error) {
	o, err := applyOptions(optFns)
	if err != nil {
		return nil, err
	}

	var rawBias *container.SegmentedArray[float32]
	if o.nodeBiasing {
		rawBias = container.NewSegmentedArray[float32]()
	}

	return &Graph{
		opts:    o,
		logger:  o.logger,
		metrics: o.metricsCollector,
		nodes:   nodetable.New(o.nodeBiasing),
		edges: edgestore.New(edgestore.Config{
			DiskCaching: o.edgeDiskCaching,
			Threshold:   o.edgeCachingThreshold,
			Dir:         o.spillDir,
			FS:          o.fileSystem,
			Compression: o.spillCompression,
			Throttle:    o.ioThrottle,
			Logger:      o.logger.Logger,
		}),
		dangling: bitmap.NewNodeSet(),
		rawBias:  rawBias,
	}, nil
}

// AddNode adds a source node with all of its outgoing edges. Destination
// nodes are created on first sight. All edges of a source must be supplied
// in one call.
//
// Weights must be finite and non-negative (ErrInvalidWeight); a rejected
// call leaves the graph unchanged. Any other error is a *SpillError and is
// fatal for the graph.
func (g *Graph) AddNode(ctx context.Context, source int32, edges []Edge) error {
	err := g.addNode(ctx, source, edges, 1.0)
	g.metrics.RecordAddNode(len(edges), err)
	return err
}

// AddBiasedNode is AddNode with a raw restart bias for the source node.
// Biases are normalized to sum to 1 by Init.
//
// Without WithNodeBiasing(true), any bias other than the neutral 1.0 fails
// with ErrBiasingDisabled. A negative or non-finite bias fails with
// ErrInvalidBias.
func (g *Graph) AddBiasedNode(ctx context.Context, source int32, edges []Edge, bias float64) error {
	var err error
	switch {
	case !g.opts.nodeBiasing && bias != 1.0:
		err = fmt.Errorf("%w: bias %v for node %d", ErrBiasingDisabled, bias, source)
	case g.opts.nodeBiasing && !validBias(bias):
		err = fmt.Errorf("%w: %v for node %d", ErrInvalidBias, bias, source)
	default:
		err = g.addNode(ctx, source, edges, bias)
	}
	g.metrics.RecordAddNode(len(edges), err)
	return err
}

func (g *Graph) addNode(ctx context.Context, source int32, edges []Edge, bias float64) error {
	if err := validateEdges(edges); err != nil {
		return err
	}
	degree, err := conv.IntToInt32(len(edges))
	if err != nil {
		return fmt.Errorf("node %d: %w", source, err)
	}
	if err := g.reserve(ctx, g.edgeCount+int64(len(edges))); err != nil {
		return err
	}

	g.initialized = false

	srcIdx, err := g.ensure(source)
	if err != nil {
		return err
	}
	if g.opts.nodeBiasing {
		*g.rawBias.At(int(srcIdx)) = float32(bias)
		if err := g.nodes.SetBias(int(srcIdx), float32(bias)); err != nil {
			return err
		}
	}

	if err := g.edges.AppendHeader(ctx, srcIdx, degree); err != nil {
		return err
	}
	for _, e := range edges {
		dstIdx, err := g.ensure(e.Dest)
		if err != nil {
			return err
		}
		if err := g.edges.AppendEdge(ctx, dstIdx, QuantizeWeight(e.Weight)); err != nil {
			return err
		}
		g.edgeCount++
	}
	return nil
}

func (g *Graph) ensure(id int32) (int32, error) {
	idx, created := g.nodes.Ensure(id)
	if created && g.rawBias != nil {
		g.rawBias.Append(0)
	}
	i, err := conv.IntToInt32(idx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTooManyNodes, err)
	}
	return i, nil
}

// reserve runs the spill check before a node's edges are written.
func (g *Graph) reserve(ctx context.Context, projected int64) error {
	start := time.Now()
	spilled, err := g.edges.Reserve(ctx, projected)
	if err != nil {
		g.logger.LogSpill(ctx, "", g.edgeCount, err)
		g.metrics.RecordSpill(g.edgeCount, time.Since(start), err)
		return err
	}
	if spilled {
		g.logger.LogSpill(ctx, g.edges.Path(), g.edgeCount, nil)
		g.metrics.RecordSpill(g.edgeCount, time.Since(start), nil)
		g.report(StageSpill)
	}
	return nil
}

// Init prepares the graph for iteration: uniform ranks of 1/n, normalized
// biases, total outgoing weights and the dangling-node set.
//
// Init may be called again after more nodes are added; it re-derives all
// state from the current edge data and resets ranks. With biasing enabled,
// a non-empty graph whose raw biases sum to zero fails with
// ErrZeroTotalBias.
func (g *Graph) Init(ctx context.Context) error {
	start := time.Now()
	err := g.init(ctx)
	g.metrics.RecordInit(g.NodeCount(), g.edgeCount, time.Since(start), err)
	g.logger.LogInit(ctx, g.NodeCount(), g.edgeCount, g.DanglingCount(), err)
	if err == nil {
		g.report(StageInit)
	}
	return err
}

func (g *Graph) init(ctx context.Context) error {
	g.initialized = false
	g.iteration = 0
	g.totalRankChange = 0
	g.dangling.Clear()

	n := g.nodes.Len()
	prior := float32(0)
	if n > 0 {
		prior = float32(1 / float64(n))
	}
	for i := range n {
		g.nodes.SetRank(i, prior)
		g.nodes.SetOutWeight(i, 0)
		g.nodes.SetPending(i, 0)
	}

	if g.opts.nodeBiasing && n > 0 {
		if err := g.normalizeBias(n); err != nil {
			return err
		}
	}

	err := g.forEachEdge(ctx, func(src, _ int, w int32) {
		g.nodes.AddOutWeight(src, float32(w))
	})
	if err != nil {
		return err
	}

	if g.opts.danglingNodes {
		for i := range n {
			if g.nodes.OutWeight(i) == 0 {
				// n fits int32, see ensure.
				g.dangling.Add(uint32(i)) //nolint:gosec
			}
		}
		g.dangling.Optimize()
	}

	g.initialized = true
	return nil
}

func (g *Graph) normalizeBias(n int) error {
	var total float64
	for i := range n {
		total += float64(g.rawBias.Get(i))
	}
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return fmt.Errorf("%w: %d nodes", ErrZeroTotalBias, n)
	}
	for i := range n {
		if err := g.nodes.SetBias(i, float32(float64(g.rawBias.Get(i))/total)); err != nil {
			return err
		}
	}
	return nil
}

// NextIteration runs one synchronous PageRank step (Distribute then Commit)
// and returns the total absolute rank change of the step. A failed step is
// not counted in the iteration number.
func (g *Graph) NextIteration(ctx context.Context) (float64, error) {
	start := time.Now()
	step := g.iteration + 1
	err := g.Distribute(ctx)
	if err == nil {
		err = g.Commit()
	}
	g.metrics.RecordIteration(g.totalRankChange, time.Since(start), err)
	g.logger.LogIteration(ctx, step, g.totalRankChange, err)
	if err != nil {
		return 0, err
	}
	g.iteration = step
	g.report(StageIteration)
	return g.totalRankChange, nil
}

// Distribute pushes rank along every edge into the destinations' pending
// contribution: w * rank[src] / totalOutWeight[src]. With dangling-node
// handling, the rank held by dangling nodes is spread evenly over all nodes.
//
// Distribute reads the previous step's ranks only; Commit applies them.
func (g *Graph) Distribute(ctx context.Context) error {
	if !g.initialized {
		return ErrNotInitialized
	}

	err := g.forEachEdge(ctx, func(src, dst int, w int32) {
		g.nodes.AddPending(dst, float32(w)*g.nodes.Rank(src)/g.nodes.OutWeight(src))
	})
	if err != nil {
		return err
	}

	if g.opts.danglingNodes && !g.dangling.IsEmpty() {
		var held float64
		for i := range g.dangling.All() {
			held += float64(g.nodes.Rank(int(i)))
		}
		n := g.nodes.Len()
		share := float32(held / float64(n))
		for i := range n {
			g.nodes.AddPending(i, share)
		}
	}
	return nil
}

// Commit folds the pending contributions into the ranks:
//
//	unbiased: rank = (1-alpha)/n + alpha*pending
//	biased:   rank = bias*(1-alpha) + alpha*pending
//
// It resets every pending contribution to zero and recomputes
// TotalRankChange from scratch as the sum of |new-old| over all nodes.
func (g *Graph) Commit() error {
	if !g.initialized {
		return ErrNotInitialized
	}
	g.totalRankChange = 0

	n := g.nodes.Len()
	if n == 0 {
		return nil
	}

	alpha := g.opts.alpha
	restart := (1 - alpha) / float32(n)
	for i := range n {
		base := restart
		if g.opts.nodeBiasing {
			b, err := g.nodes.Bias(i)
			if err != nil {
				return err
			}
			base = b * (1 - alpha)
		}
		next := base + alpha*g.nodes.Pending(i)
		g.totalRankChange += math.Abs(float64(next) - float64(g.nodes.Rank(i)))
		g.nodes.SetRank(i, next)
		g.nodes.SetPending(i, 0)
	}
	return nil
}

// forEachEdge replays the edge store in insertion order.
func (g *Graph) forEachEdge(ctx context.Context, fn func(src, dst int, w int32)) error {
	r, err := g.edges.Read(ctx)
	if err != nil {
		return err
	}
	defer r.Close()

	n := g.nodes.Len()
	next := func() (int32, error) {
		v, ok := r.Next()
		if !ok {
			if err := r.Err(); err != nil {
				return 0, err
			}
			return 0, fmt.Errorf("%w: truncated group", ErrCorruptEdgeData)
		}
		return v, nil
	}
	inRange := func(idx int32) bool { return idx >= 0 && int(idx) < n }

	for {
		src, ok := r.Next()
		if !ok {
			break
		}
		degree, err := next()
		if err != nil {
			return err
		}
		if !inRange(src) || degree < 0 {
			return fmt.Errorf("%w: bad header (%d, %d)", ErrCorruptEdgeData, src, degree)
		}
		for range degree {
			dst, err := next()
			if err != nil {
				return err
			}
			w, err := next()
			if err != nil {
				return err
			}
			if !inRange(dst) || w <= 0 {
				return fmt.Errorf("%w: bad edge (%d, %d)", ErrCorruptEdgeData, dst, w)
			}
			fn(int(src), int(dst), w)
		}
	}
	return r.Err()
}

func (g *Graph) report(stage Stage) {
	if g.opts.progress == nil {
		return
	}
	p := Progress{
		Stage:     stage,
		Nodes:     g.nodes.Len(),
		Edges:     g.edgeCount,
		Iteration: g.iteration,
	}
	if stage == StageIteration {
		p.TotalRankChange = g.totalRankChange
	}
	g.opts.progress(p)
}

// Rank returns the current rank of a node.
func (g *Graph) Rank(id int32) (float32, bool) {
	idx, ok := g.nodes.Index(id)
	if !ok {
		return 0, false
	}
	return g.nodes.Rank(idx), true
}

// Bias returns a node's bias: raw before Init, normalized after.
func (g *Graph) Bias(id int32) (float32, error) {
	if !g.opts.nodeBiasing {
		return 0, ErrBiasingDisabled
	}
	idx, ok := g.nodes.Index(id)
	if !ok {
		return 0, fmt.Errorf("node %d not found", id)
	}
	return g.nodes.Bias(idx)
}

// OutWeight returns the total quantized outgoing weight of a node as
// computed by the last Init.
func (g *Graph) OutWeight(id int32) (float32, bool) {
	idx, ok := g.nodes.Index(id)
	if !ok {
		return 0, false
	}
	return g.nodes.OutWeight(idx), true
}

// Ranks yields (node ID, rank) for every node, in no guaranteed order.
func (g *Graph) Ranks() iter.Seq2[int32, float32] {
	return func(yield func(int32, float32) bool) {
		for i := range g.nodes.Len() {
			if !yield(g.nodes.ID(i), g.nodes.Rank(i)) {
				return
			}
		}
	}
}

// NodeIDs yields every node ID, in no guaranteed order.
func (g *Graph) NodeIDs() iter.Seq[int32] {
	return g.nodes.IDs()
}

// NodeCount returns the number of distinct nodes.
func (g *Graph) NodeCount() int { return g.nodes.Len() }

// EdgeCount returns the number of edges added.
func (g *Graph) EdgeCount() int64 { return g.edgeCount }

// TotalRankChange returns the change computed by the last Commit.
func (g *Graph) TotalRankChange() float64 { return g.totalRankChange }

// Initialized reports whether the graph is ready to iterate.
func (g *Graph) Initialized() bool { return g.initialized }

// IsUsingDiskCache reports whether edges have moved to a temp file.
func (g *Graph) IsUsingDiskCache() bool { return g.edges.Spilled() }

// IsDangling reports whether a node is in the dangling set. The set is only
// populated with dangling-node handling enabled.
func (g *Graph) IsDangling(id int32) bool {
	idx, ok := g.nodes.Index(id)
	if !ok {
		return false
	}
	return g.dangling.Contains(uint32(idx)) //nolint:gosec
}

// DanglingCount returns the size of the dangling set.
func (g *Graph) DanglingCount() int {
	return int(g.dangling.Cardinality()) //nolint:gosec
}

// Clear empties the graph and removes its spill file, if any. The graph is
// reusable with the same options afterwards. Clear is idempotent.
func (g *Graph) Clear() error {
	g.nodes.Reset()
	if g.rawBias != nil {
		g.rawBias.Reset()
	}
	g.dangling.Clear()
	g.edgeCount = 0
	g.totalRankChange = 0
	g.iteration = 0
	g.initialized = false
	return g.edges.Clear()
}

// Close releases the graph's resources. It implements io.Closer.
func (g *Graph) Close() error {
	return g.Clear()
}
