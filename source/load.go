package source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/rankgo"
	"github.com/hupe1980/rankgo/codec"
	"github.com/hupe1980/rankgo/internal/conv"
)

// DefaultMaxNodesAndEdges caps nodes plus edges per graph.
const DefaultMaxNodesAndEdges int64 = 100_000_000

var (
	// ErrIDOutOfRange is returned when a node ID does not fit in int32.
	ErrIDOutOfRange = errors.New("source: node id out of int32 range")

	// ErrGraphTooLarge is returned once nodes plus edges exceed the cap.
	ErrGraphTooLarge = errors.New("source: graph exceeds node and edge limit")
)

// Builder is the part of a rank graph that Load populates.
// *rankgo.Graph satisfies it.
type Builder interface {
	AddNode(ctx context.Context, source int32, edges []rankgo.Edge) error
	AddBiasedNode(ctx context.Context, source int32, edges []rankgo.Edge, bias float64) error
	NodeCount() int
	EdgeCount() int64
}

var _ Builder = (*rankgo.Graph)(nil)

// Limits bounds what Load accepts.
type Limits struct {
	// MaxNodesAndEdges caps NodeCount()+EdgeCount(). Zero selects
	// DefaultMaxNodesAndEdges; negative disables the check.
	MaxNodesAndEdges int64
	// Codec decodes input lines. Nil selects codec.Default.
	Codec codec.Codec
}

func (l Limits) maxNodesAndEdges() int64 {
	if l.MaxNodesAndEdges == 0 {
		return DefaultMaxNodesAndEdges
	}
	return l.MaxNodesAndEdges
}

// Stats summarizes a Load.
type Stats struct {
	Records       int64
	Edges         int64
	BiasedRecords int64
	Lines         int
}

// Load decodes every record from r and adds it to g.
//
// The node and edge cap is checked after each record, so a graph may end up
// at most one record over the limit before ErrGraphTooLarge is returned.
func Load(ctx context.Context, g Builder, r io.Reader, limits Limits) (Stats, error) {
	var (
		stats Stats
		edges []rankgo.Edge
	)

	dec := NewDecoder(r, limits.Codec)
	maxSize := limits.maxNodesAndEdges()

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		rec, err := dec.Next()
		stats.Lines = dec.Line()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}

		src, err := toID(rec.Source)
		if err != nil {
			return stats, &DecodeError{Line: dec.Line(), Err: err}
		}

		edges = edges[:0]
		for _, e := range rec.Edges {
			dst, err := toID(e.Dest)
			if err != nil {
				return stats, &DecodeError{Line: dec.Line(), Err: err}
			}
			edges = append(edges, rankgo.Edge{Dest: dst, Weight: e.Weight})
		}

		if rec.Bias != nil {
			err = g.AddBiasedNode(ctx, src, edges, *rec.Bias)
		} else {
			err = g.AddNode(ctx, src, edges)
		}
		if err != nil {
			return stats, fmt.Errorf("source: line %d: %w", dec.Line(), err)
		}

		stats.Records++
		if rec.Bias != nil {
			stats.BiasedRecords++
		}
		stats.Edges += int64(len(edges))

		if maxSize > 0 && int64(g.NodeCount())+g.EdgeCount() > maxSize {
			return stats, fmt.Errorf("%w: %d nodes, %d edges, limit %d",
				ErrGraphTooLarge, g.NodeCount(), g.EdgeCount(), maxSize)
		}
	}
}

func toID(id int64) (int32, error) {
	v, err := conv.Int64ToInt32(id)
	if err != nil {
		return 0, fmt.Errorf("%w: %d", ErrIDOutOfRange, id)
	}
	return v, nil
}
