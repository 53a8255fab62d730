package rankgo

import (
	"math"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// A single collector may be shared by many graphs running concurrently, so
// implementations must be safe for concurrent use.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    iterations prometheus.Counter
//	    rankChange prometheus.Gauge
//	}
//
//	func (p *PrometheusCollector) RecordIteration(change float64, duration time.Duration, err error) {
//	    p.iterations.Inc()
//	    p.rankChange.Set(change)
//	}
type MetricsCollector interface {
	// RecordAddNode is called after each AddNode/AddBiasedNode call.
	// edges is the number of outgoing edges supplied.
	RecordAddNode(edges int, err error)

	// RecordInit is called after each Init.
	RecordInit(nodes int, edges int64, duration time.Duration, err error)

	// RecordIteration is called after each distribute+commit step.
	// change is the total rank change of the step.
	RecordIteration(change float64, duration time.Duration, err error)

	// RecordSpill is called when a graph moves its edge data to disk.
	RecordSpill(edges int64, duration time.Duration, err error)

	// RecordTopic is called by the topic runner after each topic finishes.
	RecordTopic(iterations int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAddNode(int, error)                      {}
func (NoopMetricsCollector) RecordInit(int, int64, time.Duration, error)   {}
func (NoopMetricsCollector) RecordIteration(float64, time.Duration, error) {}
func (NoopMetricsCollector) RecordSpill(int64, time.Duration, error)       {}
func (NoopMetricsCollector) RecordTopic(int, time.Duration, error)         {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddNodeCount        atomic.Int64
	AddNodeErrors       atomic.Int64
	EdgesAdded          atomic.Int64
	InitCount           atomic.Int64
	InitErrors          atomic.Int64
	InitTotalNanos      atomic.Int64
	IterationCount      atomic.Int64
	IterationErrors     atomic.Int64
	IterationTotalNanos atomic.Int64
	LastRankChangeBits  atomic.Uint64
	SpillCount          atomic.Int64
	SpillErrors         atomic.Int64
	TopicCount          atomic.Int64
	TopicErrors         atomic.Int64
	TopicTotalNanos     atomic.Int64
}

// RecordAddNode implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAddNode(edges int, err error) {
	b.AddNodeCount.Add(1)
	if err != nil {
		b.AddNodeErrors.Add(1)
		return
	}
	b.EdgesAdded.Add(int64(edges))
}

// RecordInit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInit(nodes int, edges int64, duration time.Duration, err error) {
	b.InitCount.Add(1)
	b.InitTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InitErrors.Add(1)
	}
}

// RecordIteration implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIteration(change float64, duration time.Duration, err error) {
	b.IterationCount.Add(1)
	b.IterationTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.IterationErrors.Add(1)
		return
	}
	b.LastRankChangeBits.Store(math.Float64bits(change))
}

// RecordSpill implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSpill(edges int64, duration time.Duration, err error) {
	b.SpillCount.Add(1)
	if err != nil {
		b.SpillErrors.Add(1)
	}
}

// RecordTopic implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTopic(iterations int, duration time.Duration, err error) {
	b.TopicCount.Add(1)
	b.TopicTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.TopicErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddNodeCount:      b.AddNodeCount.Load(),
		AddNodeErrors:     b.AddNodeErrors.Load(),
		EdgesAdded:        b.EdgesAdded.Load(),
		InitCount:         b.InitCount.Load(),
		InitErrors:        b.InitErrors.Load(),
		IterationCount:    b.IterationCount.Load(),
		IterationErrors:   b.IterationErrors.Load(),
		IterationAvgNanos: avg(b.IterationTotalNanos.Load(), b.IterationCount.Load()),
		LastRankChange:    math.Float64frombits(b.LastRankChangeBits.Load()),
		SpillCount:        b.SpillCount.Load(),
		SpillErrors:       b.SpillErrors.Load(),
		TopicCount:        b.TopicCount.Load(),
		TopicErrors:       b.TopicErrors.Load(),
		TopicAvgNanos:     avg(b.TopicTotalNanos.Load(), b.TopicCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddNodeCount      int64
	AddNodeErrors     int64
	EdgesAdded        int64
	InitCount         int64
	InitErrors        int64
	IterationCount    int64
	IterationErrors   int64
	IterationAvgNanos int64
	LastRankChange    float64
	SpillCount        int64
	SpillErrors       int64
	TopicCount        int64
	TopicErrors       int64
	TopicAvgNanos     int64
}
