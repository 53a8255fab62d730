package rankgo

import (
	"errors"

	"github.com/hupe1980/rankgo/internal/edgestore"
	"github.com/hupe1980/rankgo/internal/nodetable"
)

var (
	// ErrBiasingDisabled is returned when a bias is supplied or read on a
	// graph built without WithNodeBiasing(true).
	ErrBiasingDisabled = nodetable.ErrBiasingDisabled

	// ErrInvalidBias is returned for a negative or non-finite bias.
	ErrInvalidBias = errors.New("bias must be finite and non-negative")

	// ErrInvalidWeight is returned for a negative or non-finite edge weight.
	ErrInvalidWeight = errors.New("edge weight must be finite and non-negative")

	// ErrZeroTotalBias is returned by Init when biasing is enabled and the
	// raw biases of a non-empty graph sum to zero.
	ErrZeroTotalBias = errors.New("total bias is zero")

	// ErrNotInitialized is returned when iterating a graph that has not been
	// initialized since its last change.
	ErrNotInitialized = errors.New("graph not initialized")

	// ErrInvalidAlpha is returned when the damping factor is outside (0, 1).
	ErrInvalidAlpha = errors.New("alpha must be in (0, 1)")

	// ErrInvalidThreshold is returned for a non-positive edge caching threshold.
	ErrInvalidThreshold = errors.New("edge caching threshold must be positive")

	// ErrCorruptEdgeData is returned when replayed edge data does not form
	// well-formed (header, edges) groups.
	ErrCorruptEdgeData = errors.New("corrupt edge data")

	// ErrTooManyNodes is returned when a graph would exceed the int32 index space.
	ErrTooManyNodes = errors.New("too many nodes")
)

// SpillError reports a failure of the on-disk edge store. It is fatal for the
// graph that returned it; the caller should Close the graph and discard it.
//
// Use errors.As to inspect the operation and file path.
type SpillError = edgestore.SpillError
