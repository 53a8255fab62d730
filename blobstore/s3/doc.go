// Package s3 stores blobs in Amazon S3.
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("ranks/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
// Create streams through the SDK's multipart upload manager and fails the
// upload on Abort, so an aborted output never becomes an object. Put sends a
// single request carrying a CRC32C checksum.
package s3
