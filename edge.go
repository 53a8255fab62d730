package rankgo

import (
	"fmt"
	"math"
)

// weightScale is the fixed multiplier that turns a float64 edge weight into
// the int32 stored in the edge store.
const weightScale = 100_000

// Edge is one outgoing edge of a source node.
type Edge struct {
	Dest   int32
	Weight float64
}

// QuantizeWeight returns the stored form of an edge weight:
// max(1, round(w*100000)), saturating at math.MaxInt32.
//
// This is lossy. Every positive weight below 0.000005 (and zero itself)
// becomes the smallest unit, so such edges still carry rank.
func QuantizeWeight(w float64) int32 {
	scaled := math.Round(w * weightScale)
	switch {
	case scaled < 1:
		return 1
	case scaled >= math.MaxInt32:
		return math.MaxInt32
	default:
		return int32(scaled)
	}
}

func validateEdges(edges []Edge) error {
	for i, e := range edges {
		if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) || e.Weight < 0 {
			return fmt.Errorf("%w: edge %d to %d has weight %v", ErrInvalidWeight, i, e.Dest, e.Weight)
		}
	}
	return nil
}

func validBias(b float64) bool {
	return !math.IsNaN(b) && !math.IsInf(b, 0) && b >= 0
}
