// Package prommetrics exports graph and topic metrics to Prometheus.
package prommetrics

import (
	"time"

	"github.com/hupe1980/rankgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "rankgo"

// Collector implements rankgo.MetricsCollector on Prometheus metrics.
type Collector struct {
	addNodes          *prometheus.CounterVec
	edgesAdded        prometheus.Counter
	initDuration      *prometheus.HistogramVec
	initNodes         prometheus.Gauge
	iterations        *prometheus.CounterVec
	iterationDuration prometheus.Histogram
	lastRankChange    prometheus.Gauge
	spills            *prometheus.CounterVec
	topics            *prometheus.CounterVec
	topicDuration     prometheus.Histogram
	topicIterations   prometheus.Histogram
}

var _ rankgo.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its metrics with reg.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		addNodes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "add_node_total",
			Help:      "Source nodes added, by status.",
		}, []string{"status"}),
		edgesAdded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_added_total",
			Help:      "Edges added to graphs.",
		}),
		initDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "init_duration_seconds",
			Help:      "Duration of graph initialization.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"status"}),
		initNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "init_nodes",
			Help:      "Node count of the most recently initialized graph.",
		}),
		iterations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "iterations_total",
			Help:      "PageRank iterations, by status.",
		}, []string{"status"}),
		iterationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "iteration_duration_seconds",
			Help:      "Duration of one distribute and commit pass.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		lastRankChange: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_total_rank_change",
			Help:      "Total rank change of the most recent iteration.",
		}),
		spills: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spills_total",
			Help:      "Edge store spills to disk, by status.",
		}, []string{"status"}),
		topics: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "topics_total",
			Help:      "Topics ranked, by status.",
		}, []string{"status"}),
		topicDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "topic_duration_seconds",
			Help:      "End-to-end duration of one topic.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		topicIterations: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "topic_iterations",
			Help:      "Iterations needed per topic.",
			Buckets:   []float64{1, 5, 10, 25, 50, 75, 100, 150, 300},
		}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordAddNode implements rankgo.MetricsCollector.
func (c *Collector) RecordAddNode(edges int, err error) {
	c.addNodes.WithLabelValues(status(err)).Inc()
	if err == nil {
		c.edgesAdded.Add(float64(edges))
	}
}

// RecordInit implements rankgo.MetricsCollector.
func (c *Collector) RecordInit(nodes int, _ int64, d time.Duration, err error) {
	c.initDuration.WithLabelValues(status(err)).Observe(d.Seconds())
	if err == nil {
		c.initNodes.Set(float64(nodes))
	}
}

// RecordIteration implements rankgo.MetricsCollector.
func (c *Collector) RecordIteration(change float64, d time.Duration, err error) {
	c.iterations.WithLabelValues(status(err)).Inc()
	if err != nil {
		return
	}
	c.iterationDuration.Observe(d.Seconds())
	c.lastRankChange.Set(change)
}

// RecordSpill implements rankgo.MetricsCollector.
func (c *Collector) RecordSpill(_ int64, _ time.Duration, err error) {
	c.spills.WithLabelValues(status(err)).Inc()
}

// RecordTopic implements rankgo.MetricsCollector.
func (c *Collector) RecordTopic(iterations int, d time.Duration, err error) {
	c.topics.WithLabelValues(status(err)).Inc()
	if err != nil {
		return
	}
	c.topicDuration.Observe(d.Seconds())
	c.topicIterations.Observe(float64(iterations))
}
