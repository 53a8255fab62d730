// Package minio stores blobs in MinIO or another S3-compatible server
// (Ceph, Garage, SeaweedFS) through the minio-go client, without the AWS
// SDK.
//
//	store, err := minio.New(minio.Config{
//	    Endpoint:  "localhost:9000",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	}, "ranks", "prod/")
//	if err != nil {
//	    return err
//	}
//	if err := store.EnsureBucket(ctx); err != nil {
//	    return err
//	}
//
// Create streams the blob through a single PutObject call; Abort cancels the
// upload so no object is created.
package minio
