package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func next(t *testing.T, w *Watcher) Change {
	t.Helper()
	select {
	case c := <-w.Changes:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
		return Change{}
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, ".jsonl", 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	path := filepath.Join(dir, "web.jsonl")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(path, []byte(`{"source":1}`), 0o600))

	c := next(t, w)
	assert.Equal(t, ChangeModified, c.Kind)
	assert.Equal(t, "web", c.Topic)
	assert.Equal(t, path, c.File)

	require.NoError(t, os.Remove(path))
	c = next(t, w)
	assert.Equal(t, ChangeRemoved, c.Kind)
	assert.Equal(t, "web", c.Topic)
}

func TestWatcher_Topic(t *testing.T) {
	w, err := New(t.TempDir(), ".jsonl", 0)
	require.NoError(t, err)
	defer func() { _ = w.watcher.Close() }()

	assert.Equal(t, "web", w.Topic("/in/web.jsonl"))
	assert.Equal(t, "", w.Topic("/in/web.json"))
	assert.Equal(t, "", w.Topic("/in/.tmp-web.jsonl"))
	assert.Equal(t, "removed", ChangeRemoved.String())
	assert.Equal(t, DefaultDebounce, w.debounce)
}

func TestWatcher_MissingDir(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "absent"), ".jsonl", 0)
	require.NoError(t, err)
	defer func() { _ = w.watcher.Close() }()
	assert.Error(t, w.Start())
}
