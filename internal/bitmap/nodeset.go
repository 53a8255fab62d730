package bitmap

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// NodeSet is a set of node-table indices backed by a 32-bit Roaring bitmap.
//
// Dangling nodes tend to cluster (destination-only nodes are appended in
// runs while a source's edge list is ingested), which compresses well into
// run containers.
type NodeSet struct {
	rb *roaring.Bitmap
}

// NewNodeSet creates a new empty set.
func NewNodeSet() *NodeSet {
	return &NodeSet{
		rb: roaring.New(),
	}
}

// Add adds an index to the set.
func (s *NodeSet) Add(index uint32) {
	s.rb.Add(index)
}

// Contains checks if an index is in the set.
func (s *NodeSet) Contains(index uint32) bool {
	return s.rb.Contains(index)
}

// IsEmpty returns true if the set is empty.
func (s *NodeSet) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// Cardinality returns the number of indices in the set.
func (s *NodeSet) Cardinality() uint64 {
	return s.rb.GetCardinality()
}

// All yields the indices in ascending order.
func (s *NodeSet) All() iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(it.Next()) {
				return
			}
		}
	}
}

// Optimize converts containers to run encoding where that is smaller.
func (s *NodeSet) Optimize() {
	s.rb.RunOptimize()
}

// Clear removes all indices from the set.
func (s *NodeSet) Clear() {
	s.rb.Clear()
}

// SizeInBytes returns the serialized size of the set.
func (s *NodeSet) SizeInBytes() uint64 {
	return s.rb.GetSizeInBytes()
}
