package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "state")
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = s.Load(ctx, "root")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "root", []byte(`{"version":1}`)))
	require.NoError(t, s.Save(ctx, "root", []byte(`{"version":1,"auth":{}}`)))

	data, err := s.Load(ctx, "root")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"auth":{}}`, string(data))

	info, err := os.Stat(filepath.Join(dir, "root.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	require.NoError(t, s.Purge(ctx, "root"))
	require.NoError(t, s.Purge(ctx, "root"), "purging twice is fine")
	_, err = s.Load(ctx, "root")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreSanitizesKeys(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "../escape/user:1", []byte(`{}`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".._escape_user_1.json", entries[0].Name())
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	buf := []byte(`{"a":1}`)
	require.NoError(t, s.Save(ctx, "k", buf))
	buf[2] = 'X'

	data, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	require.NoError(t, s.Purge(ctx, "k"))
	_, err = s.Load(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	p, err := Open(ctx, Options{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, p)

	p, err = Open(ctx, Options{Backend: "file", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, p)

	_, err = Open(ctx, Options{Backend: "floppy"})
	assert.Error(t, err)
}
