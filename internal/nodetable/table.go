// Package nodetable stores per-node PageRank state in a flat, fixed-stride
// float32 array addressed by a dense index, with a map from external node ID
// to that index.
//
// Record layout (stride 3, or 4 with biasing):
//
//	[rank][totalOutWeight][pendingContribution][bias]
//
// Records are appended and never moved or removed, so an index stays valid
// until Reset.
package nodetable

import (
	"errors"
	"iter"

	"github.com/hupe1980/rankgo/internal/container"
)

const (
	fieldRank = iota
	fieldOutWeight
	fieldPending
	fieldBias
)

const (
	strideUnbiased = 3
	strideBiased   = 4
)

// ErrBiasingDisabled is returned when bias is accessed on a table created
// without biasing.
var ErrBiasingDisabled = errors.New("nodetable: node biasing is not enabled")

// Table is the node registry. It is not safe for concurrent use.
type Table struct {
	stride int
	data   *container.SegmentedArray[float32]
	ids    *container.SegmentedArray[int32]
	index  map[int32]int
}

// New creates an empty table. biased selects the 4-field record layout.
func New(biased bool) *Table {
	stride := strideUnbiased
	if biased {
		stride = strideBiased
	}
	return &Table{
		stride: stride,
		data:   container.NewSegmentedArray[float32](),
		ids:    container.NewSegmentedArray[int32](),
		index:  make(map[int32]int),
	}
}

// Stride returns the number of float32 fields per record.
func (t *Table) Stride() int { return t.stride }

// Biased reports whether records carry a bias field.
func (t *Table) Biased() bool { return t.stride == strideBiased }

// Len returns the number of nodes.
func (t *Table) Len() int { return t.ids.Len() }

// Ensure returns the index of id, appending a zeroed record if id is new.
func (t *Table) Ensure(id int32) (index int, created bool) {
	if i, ok := t.index[id]; ok {
		return i, false
	}
	index = t.ids.Len()
	t.ids.Append(id)
	t.data.Grow(t.stride)
	t.index[id] = index
	return index, true
}

// Index returns the index of id.
func (t *Table) Index(id int32) (int, bool) {
	i, ok := t.index[id]
	return i, ok
}

// ID returns the external ID stored at index.
func (t *Table) ID(index int) int32 {
	return t.ids.Get(index)
}

// IDs yields node IDs in index order.
func (t *Table) IDs() iter.Seq[int32] {
	return t.ids.All()
}

func (t *Table) field(index, f int) *float32 {
	return t.data.At(index*t.stride + f)
}

// Rank returns the current rank at index.
func (t *Table) Rank(index int) float32 { return *t.field(index, fieldRank) }

// SetRank overwrites the rank at index.
func (t *Table) SetRank(index int, v float32) { *t.field(index, fieldRank) = v }

// OutWeight returns the total outgoing weight at index.
func (t *Table) OutWeight(index int) float32 { return *t.field(index, fieldOutWeight) }

// SetOutWeight overwrites the total outgoing weight at index.
func (t *Table) SetOutWeight(index int, v float32) { *t.field(index, fieldOutWeight) = v }

// AddOutWeight adds w to the total outgoing weight at index.
func (t *Table) AddOutWeight(index int, w float32) { *t.field(index, fieldOutWeight) += w }

// Pending returns the pending contribution at index.
func (t *Table) Pending(index int) float32 { return *t.field(index, fieldPending) }

// SetPending overwrites the pending contribution at index.
func (t *Table) SetPending(index int, v float32) { *t.field(index, fieldPending) = v }

// AddPending adds c to the pending contribution at index.
func (t *Table) AddPending(index int, c float32) { *t.field(index, fieldPending) += c }

// Bias returns the bias at index.
func (t *Table) Bias(index int) (float32, error) {
	if !t.Biased() {
		return 0, ErrBiasingDisabled
	}
	return *t.field(index, fieldBias), nil
}

// SetBias overwrites the bias at index.
func (t *Table) SetBias(index int, v float32) error {
	if !t.Biased() {
		return ErrBiasingDisabled
	}
	*t.field(index, fieldBias) = v
	return nil
}

// Reset removes every node.
func (t *Table) Reset() {
	t.data.Reset()
	t.ids.Reset()
	clear(t.index)
}
