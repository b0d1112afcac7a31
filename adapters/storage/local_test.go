package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/webtools/core"
	apperrors "github.com/Skryldev/webtools/errors"
)

func TestLocal_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir, 0)
	require.NoError(t, err)

	ctx := context.Background()
	key := core.StorageKey{Bucket: "out", Path: "cat-web-optimized.webp"}
	meta := map[string]string{"format": "webp"}

	require.NoError(t, l.Put(ctx, key, strings.NewReader("pixels"), meta))

	ok, err := l.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := l.Get(ctx, key)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(body))

	got, err := l.Meta(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, meta, got)
	assert.FileExists(t, filepath.Join(dir, "out", "cat-web-optimized.webp"+MetaSuffix))

	require.NoError(t, l.Delete(ctx, key))
	ok, err = l.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoFileExists(t, filepath.Join(dir, "out", "cat-web-optimized.webp"+MetaSuffix))
}

func TestLocal_GetMissing(t *testing.T) {
	l, err := NewLocal(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = l.Get(context.Background(), core.StorageKey{Path: "nope.png"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryStorage))
}

func TestLocal_KeysStayInsideRoot(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(filepath.Join(dir, "root"), 0)
	require.NoError(t, err)

	key := core.StorageKey{Path: "../../escape.png"}
	require.NoError(t, l.Put(context.Background(), key, strings.NewReader("x"), nil))

	assert.FileExists(t, filepath.Join(dir, "root", "escape.png"))
	_, err = os.Stat(filepath.Join(dir, "escape.png"))
	assert.True(t, os.IsNotExist(err))

	err = l.Put(context.Background(), core.StorageKey{}, strings.NewReader("x"), nil)
	assert.Error(t, err)
}

func TestResultMeta(t *testing.T) {
	meta := ResultMeta(&core.OptimizationResult{
		Format:           core.FormatWebP,
		OriginalFormat:   "png",
		OriginalSize:     3000,
		OptimizedSize:    1000,
		ReductionPercent: 67,
		CompressionRatio: "3:1",
		Width:            640,
		Height:           480,
	})
	assert.Equal(t, "67%", meta["size_reduction"])
	assert.Equal(t, "3:1", meta["compression_ratio"])
	assert.Equal(t, "3000", meta["original_size"])
	assert.Equal(t, "webp", meta["format"])
}
