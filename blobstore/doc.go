// Package blobstore reads topic inputs and publishes rank outputs.
//
// A BlobStore maps slash-separated names to immutable blobs. Outputs are
// written through Create, which returns a WritableBlob: bytes become visible
// under the name only when Close succeeds, and Abort discards them. Readers
// therefore see either the previous blob or the complete new one.
//
// MemoryStore and LocalStore live here; the s3 and minio subpackages hold the
// object store backends.
package blobstore
