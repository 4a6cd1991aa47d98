package local

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

func TestStoreGetDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewLocalStorage(root, logger.NewTestLogger())
	require.NoError(t, err)

	key, err := s.Store(ctx, strings.NewReader("%PDF-1.4 body"), "temp/temp_20250102_101500_a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "temp/temp_20250102_101500_a.pdf", key)
	assert.FileExists(t, filepath.Join(root, "temp", "temp_20250102_101500_a.pdf"))

	rc, err := s.Get(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.ErrorIs(t, s.Delete(ctx, key), fs.ErrNotExist)
}

func TestKeysStayInsideRoot(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(root, "store"), logger.NewTestLogger())
	require.NoError(t, err)

	_, err = s.Store(ctx, strings.NewReader("x"), "../../escape.pdf")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "store", "escape.pdf"))
	assert.NoFileExists(t, filepath.Join(root, "escape.pdf"))

	_, err = s.Store(ctx, strings.NewReader("x"), "/")
	assert.Error(t, err)
}

func TestCleanupBefore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewLocalStorage(root, logger.NewTestLogger())
	require.NoError(t, err)

	for _, k := range []string{"temp/old.pdf", "temp/new.pdf", "1_20240101_000000_kept.pdf"} {
		_, err := s.Store(ctx, strings.NewReader("x"), k)
		require.NoError(t, err)
	}
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "temp", "old.pdf"), old, old))
	require.NoError(t, os.Chtimes(filepath.Join(root, "1_20240101_000000_kept.pdf"), old, old))

	n, err := s.CleanupBefore(ctx, "temp", time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoFileExists(t, filepath.Join(root, "temp", "old.pdf"))
	assert.FileExists(t, filepath.Join(root, "temp", "new.pdf"))
	assert.FileExists(t, filepath.Join(root, "1_20240101_000000_kept.pdf"))

	n, err = s.CleanupBefore(ctx, "missing", time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}
