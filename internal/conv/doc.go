// Package conv converts between the integer widths used by the node table
// and the edge store. Checked conversions fail with ErrOverflow; the
// Int32/Uint32 pair reinterprets bits for the spill file's raw words.
package conv
