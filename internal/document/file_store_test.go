package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Cyclone1070/opx/internal/service/checksum"
	"github.com/Cyclone1070/opx/internal/service/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	return NewFileStore(fs.NewOSFileSystem(), checksum.NewManager(), 1024*1024), t.TempDir()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestFileStore_Read(t *testing.T) {
	store, dir := newTestStore(t)
	path := filepath.Join(dir, "a.txt")
	writeFile(t, path, "one\r\ntwo\r\n")

	snap, err := store.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "one\r\ntwo\r\n", snap.Text)
	assert.Equal(t, CRLF, snap.EOL)
	assert.NotEmpty(t, snap.Checksum)

	t.Run("binary rejected", func(t *testing.T) {
		bin := filepath.Join(dir, "b.bin")
		writeFile(t, bin, "ab\x00cd")
		_, err := store.Read(bin)
		assert.ErrorIs(t, err, ErrBinaryFile)
	})

	t.Run("too large", func(t *testing.T) {
		small := NewFileStore(fs.NewOSFileSystem(), checksum.NewManager(), 4)
		_, err := small.Read(path)
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})
}

func TestFileStore_ApplyReplacements(t *testing.T) {
	store, dir := newTestStore(t)
	path := filepath.Join(dir, "main.go")
	writeFile(t, path, "alpha beta gamma")
	require.NoError(t, os.Chmod(path, 0o600))

	_, err := store.Read(path)
	require.NoError(t, err)

	edit := NewEdit()
	edit.Replace(path, 11, 16, "GAMMA")
	edit.Replace(path, 0, 5, "ALPHA")
	require.NoError(t, store.Apply(context.Background(), edit))

	assert.Equal(t, "ALPHA beta GAMMA", readFile(t, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_ApplyRejectsOverlap(t *testing.T) {
	store, dir := newTestStore(t)
	path := filepath.Join(dir, "x.txt")
	writeFile(t, path, "0123456789")
	_, err := store.Read(path)
	require.NoError(t, err)

	edit := NewEdit()
	edit.Replace(path, 2, 6, "a")
	edit.Replace(path, 4, 8, "b")
	err = store.Apply(context.Background(), edit)

	assert.ErrorIs(t, err, ErrOverlappingEdits)
	assert.Equal(t, "0123456789", readFile(t, path), "nothing lands when the batch is invalid")
}

func TestFileStore_ApplyDetectsConflict(t *testing.T) {
	store, dir := newTestStore(t)
	path := filepath.Join(dir, "x.txt")
	writeFile(t, path, "original")
	_, err := store.Read(path)
	require.NoError(t, err)

	writeFile(t, path, "changed elsewhere")

	edit := NewEdit()
	edit.Replace(path, 0, 8, "mine")
	err = store.Apply(context.Background(), edit)

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "changed elsewhere", readFile(t, path))
}

func TestFileStore_CreateDeleteRename(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	t.Run("create makes parents", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "deep", "new.txt")
		edit := NewEdit()
		edit.Create(path, "hello")
		require.NoError(t, store.Apply(ctx, edit))
		assert.Equal(t, "hello", readFile(t, path))
	})

	t.Run("create refuses existing", func(t *testing.T) {
		path := filepath.Join(dir, "exists.txt")
		writeFile(t, path, "keep")
		edit := NewEdit()
		edit.Create(path, "replace")
		err := store.Apply(ctx, edit)
		assert.ErrorIs(t, err, os.ErrExist)
		assert.Equal(t, "keep", readFile(t, path))
	})

	t.Run("rename refuses existing destination", func(t *testing.T) {
		src := filepath.Join(dir, "src.txt")
		dst := filepath.Join(dir, "dst.txt")
		writeFile(t, src, "s")
		writeFile(t, dst, "d")
		edit := NewEdit()
		edit.Rename(src, dst, false)
		err := store.Apply(ctx, edit)
		assert.ErrorIs(t, err, os.ErrExist)
		assert.Equal(t, "s", readFile(t, src))
		assert.Equal(t, "d", readFile(t, dst))
	})

	t.Run("rename into new directory", func(t *testing.T) {
		src := filepath.Join(dir, "move-me.txt")
		dst := filepath.Join(dir, "moved", "here.txt")
		writeFile(t, src, "m")
		edit := NewEdit()
		edit.Rename(src, dst, false)
		require.NoError(t, store.Apply(ctx, edit))
		assert.Equal(t, "m", readFile(t, dst))
		_, err := os.Stat(src)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("recursive delete", func(t *testing.T) {
		target := filepath.Join(dir, "gone")
		writeFile(t, filepath.Join(target, "sub", "f.txt"), "x")
		edit := NewEdit()
		edit.Delete(target, true)
		require.NoError(t, store.Apply(ctx, edit))
		exists, err := store.Exists(target)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestFileStore_ApplyHonoursCancellation(t *testing.T) {
	store, dir := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	edit := NewEdit()
	edit.Create(filepath.Join(dir, "never.txt"), "x")
	assert.ErrorIs(t, store.Apply(ctx, edit), context.Canceled)
}
