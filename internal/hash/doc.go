// Package hash computes the CRC32-Castagnoli checksums that guard spill
// blocks and object store uploads.
package hash
