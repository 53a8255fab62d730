package runner

import (
	"github.com/hupe1980/rankgo"
	"github.com/hupe1980/rankgo/codec"
	"github.com/hupe1980/rankgo/ledger"
	"github.com/hupe1980/rankgo/resource"
	"github.com/hupe1980/rankgo/source"
)

// DefaultOutputSuffix is appended to every topic output name.
const DefaultOutputSuffix = ".jsonl"

type options struct {
	graphOpts    []rankgo.Option
	driver       rankgo.DriverOptions
	limits       source.Limits
	controller   *resource.Controller
	outputPrefix string
	codec        codec.Codec
	ledger       ledger.Ledger
	logger       *rankgo.Logger
	metrics      rankgo.MetricsCollector
}

// Option configures a Runner.
type Option func(*options)

// WithGraphOptions sets the options every topic graph is built with.
func WithGraphOptions(optFns ...rankgo.Option) Option {
	return func(o *options) {
		o.graphOpts = append(o.graphOpts, optFns...)
	}
}

// WithDriverOptions sets the iteration limits.
func WithDriverOptions(d rankgo.DriverOptions) Option {
	return func(o *options) {
		o.driver = d
	}
}

// WithLimits sets the ingestion limits.
func WithLimits(l source.Limits) Option {
	return func(o *options) {
		o.limits = l
	}
}

// WithController shares worker slots, memory and I/O rate between topics.
func WithController(c *resource.Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

// WithOutputPrefix sets the blob name prefix of rank outputs.
func WithOutputPrefix(prefix string) Option {
	return func(o *options) {
		o.outputPrefix = prefix
	}
}

// WithCodec sets the codec for input records and output lines.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithLedger publishes every successful output to l.
func WithLedger(l ledger.Ledger) Option {
	return func(o *options) {
		o.ledger = l
	}
}

// WithLogger sets the logger.
func WithLogger(l *rankgo.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsCollector sets the metrics collector shared by all topics.
func WithMetricsCollector(mc rankgo.MetricsCollector) Option {
	return func(o *options) {
		if mc != nil {
			o.metrics = mc
		}
	}
}
