package minio

import (
	"context"
	"os"
	"testing"

	"github.com/hupe1980/rankgo/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_Prefix(t *testing.T) {
	s := NewStore(nil, "bucket", "ranks")
	assert.Equal(t, "ranks/web.jsonl", s.key("web.jsonl"))

	s = NewStore(nil, "bucket", "")
	assert.Equal(t, "web.jsonl", s.key("web.jsonl"))
}

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}

	store, err := New(Config{
		Endpoint:  endpoint,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	}, "test-rankgo", "test-prefix/")
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := store.client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}
	require.NoError(t, store.EnsureBucket(ctx))

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "test.jsonl", data))

	got, err := blobstore.ReadAll(ctx, store, "test.jsonl")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "test.jsonl")

	require.NoError(t, store.Delete(ctx, "test.jsonl"))
	_, err = store.Open(ctx, "test.jsonl")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	wb, err := store.Create(ctx, "stream.jsonl")
	require.NoError(t, err)
	_, err = wb.Write([]byte("streamed data"))
	require.NoError(t, err)
	require.NoError(t, wb.Close())

	got, err = blobstore.ReadAll(ctx, store, "stream.jsonl")
	require.NoError(t, err)
	assert.Equal(t, "streamed data", string(got))

	wb, err = store.Create(ctx, "aborted.jsonl")
	require.NoError(t, err)
	_, err = wb.Write([]byte("partial"))
	require.NoError(t, err)
	require.NoError(t, wb.Abort())
	_, err = store.Open(ctx, "aborted.jsonl")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	_ = store.Delete(ctx, "stream.jsonl")
}
