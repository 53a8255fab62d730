package blobstore

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStoreContract runs the behaviour every BlobStore must share.
func testStoreContract(t *testing.T, newStore func(t *testing.T) BlobStore) {
	ctx := context.Background()

	t.Run("PutOpen", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "ranks/a.jsonl", []byte("hello")))

		data, err := ReadAll(ctx, s, "ranks/a.jsonl")
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), data)
	})

	t.Run("OpenMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Open(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("CreateClose", func(t *testing.T) {
		s := newStore(t)
		w, err := s.Create(ctx, "out.jsonl")
		require.NoError(t, err)
		_, err = w.Write([]byte("a"))
		require.NoError(t, err)
		_, err = w.Write([]byte("b"))
		require.NoError(t, err)

		names, err := s.List(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, names, "blob visible before Close")

		require.NoError(t, w.Close())
		assert.NoError(t, w.Abort(), "Abort after Close is a no-op")

		data, err := ReadAll(ctx, s, "out.jsonl")
		require.NoError(t, err)
		assert.Equal(t, []byte("ab"), data)

		_, err = w.Write([]byte("c"))
		assert.ErrorIs(t, err, os.ErrClosed)
	})

	t.Run("Abort", func(t *testing.T) {
		s := newStore(t)
		w, err := s.Create(ctx, "out.jsonl")
		require.NoError(t, err)
		_, err = w.Write([]byte("partial"))
		require.NoError(t, err)
		require.NoError(t, w.Abort())

		_, err = w.Write([]byte("x"))
		assert.ErrorIs(t, err, ErrAborted)
		assert.ErrorIs(t, w.Close(), ErrAborted)

		_, err = s.Open(ctx, "out.jsonl")
		assert.ErrorIs(t, err, ErrNotFound)
		names, err := s.List(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("Overwrite", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "k", []byte("v1")))
		require.NoError(t, s.Put(ctx, "k", []byte("v2")))

		data, err := ReadAll(ctx, s, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), data)
	})

	t.Run("Delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, "k", []byte("v")))
		require.NoError(t, s.Delete(ctx, "k"))
		require.NoError(t, s.Delete(ctx, "k"), "deleting a missing blob is not an error")

		_, err := s.Open(ctx, "k")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ListSortedByPrefix", func(t *testing.T) {
		s := newStore(t)
		for _, name := range []string{"topics/b.jsonl", "ranks/x.jsonl", "topics/a.jsonl", "topics/sub/c.jsonl"} {
			require.NoError(t, s.Put(ctx, name, []byte(name)))
		}

		names, err := s.List(ctx, "topics/")
		require.NoError(t, err)
		assert.Equal(t, []string{"topics/a.jsonl", "topics/b.jsonl", "topics/sub/c.jsonl"}, names)

		all, err := s.List(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})
}

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, func(*testing.T) BlobStore { return NewMemoryStore() })
}

func TestMemoryStore_PutCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	data := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", data))
	data[0] = 'x'

	got, err := ReadAll(ctx, s, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
	assert.Equal(t, 1, s.Len())
}
