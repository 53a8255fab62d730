// Package container implements container data structures.
package container

import "iter"

const (
	// segmentBits determines the size of each segment.
	// 16 bits = 65536 items per segment.
	segmentBits = 16
	segmentSize = 1 << segmentBits
	segmentMask = segmentSize - 1
)

// SegmentedArray is an append-only, segmented array with random access.
//
// Growth allocates a new fixed-size segment instead of reallocating and
// copying, so appending to an array holding tens of millions of items never
// pays a full copy. It is not safe for concurrent use; the owner serializes
// all access.
type SegmentedArray[T any] struct {
	segments []*segment[T]
	n        int
}

type segment[T any] struct {
	items [segmentSize]T
}

// NewSegmentedArray creates a new SegmentedArray.
func NewSegmentedArray[T any]() *SegmentedArray[T] {
	return &SegmentedArray[T]{}
}

// Len returns the number of items appended so far.
func (sa *SegmentedArray[T]) Len() int {
	return sa.n
}

// Append appends v to the end of the array.
func (sa *SegmentedArray[T]) Append(v T) {
	segIdx := sa.n >> segmentBits
	if segIdx == len(sa.segments) {
		sa.segments = append(sa.segments, &segment[T]{})
	}
	sa.segments[segIdx].items[sa.n&segmentMask] = v
	sa.n++
}

// Grow appends n zero values and returns the index of the first one.
func (sa *SegmentedArray[T]) Grow(n int) int {
	start := sa.n
	end := start + n
	for len(sa.segments)<<segmentBits < end {
		sa.segments = append(sa.segments, &segment[T]{})
	}
	sa.n = end
	return start
}

// At returns a pointer to the item at index. It panics if index is out of
// range, like a slice access would.
func (sa *SegmentedArray[T]) At(index int) *T {
	if index < 0 || index >= sa.n {
		panic("container: index out of range")
	}
	return &sa.segments[index>>segmentBits].items[index&segmentMask]
}

// Get returns the item at index.
func (sa *SegmentedArray[T]) Get(index int) T {
	return *sa.At(index)
}

// Set overwrites the item at index.
func (sa *SegmentedArray[T]) Set(index int, v T) {
	*sa.At(index) = v
}

// Reset drops every segment so the memory can be reclaimed.
func (sa *SegmentedArray[T]) Reset() {
	clear(sa.segments)
	sa.segments = sa.segments[:0]
	sa.n = 0
}

// Chunks yields the used portion of each segment in order. The yielded
// slices alias the array and are only valid until the next Append or Reset.
func (sa *SegmentedArray[T]) Chunks() iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		remaining := sa.n
		for _, seg := range sa.segments {
			if remaining <= 0 {
				return
			}
			k := min(remaining, segmentSize)
			if !yield(seg.items[:k]) {
				return
			}
			remaining -= k
		}
	}
}

// All yields every item in insertion order.
func (sa *SegmentedArray[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for chunk := range sa.Chunks() {
			for _, v := range chunk {
				if !yield(v) {
					return
				}
			}
		}
	}
}
