// Package fs is the narrow file system surface used for edge spill files and
// the local blob store. OS is the real implementation; FaultyFS wraps any
// FileSystem and injects errors by file-name rule so tests can exercise
// spill and commit failures.
package fs
