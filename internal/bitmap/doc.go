// Package bitmap provides compressed sets of node-table indices.
//
// NodeSet wraps a 32-bit Roaring bitmap. The graph uses it to track
// dangling nodes, which are visited on every iteration and therefore want
// fast ordered iteration more than fast random membership.
package bitmap
