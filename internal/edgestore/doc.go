// Package edgestore holds the append-only edge data of one graph.
//
// Edges are stored as a flat sequence of int32 words grouped per source:
//
//	[sourceID][outDegree] ([destID][scaledWeight]) * outDegree
//
// The sequence starts in memory. With disk caching enabled, the first append
// that would push the edge count past the configured threshold moves the
// whole sequence into a temporary file and every later append goes there.
// The move happens at most once per Store; there is no way back to memory
// other than Clear.
//
// Readers replay the sequence from the beginning in insertion order, whichever
// backend holds it. A Store has a single owner and must not be shared between
// goroutines.
package edgestore
