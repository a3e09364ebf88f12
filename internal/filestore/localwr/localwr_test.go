package localwr_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/code19m/errx"
	"github.com/rise-and-shine/quote3d/internal/filestore"
	"github.com/rise-and-shine/quote3d/internal/filestore/localwr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*localwr.Client, string) {
	t.Helper()

	dir := t.TempDir()
	c, err := localwr.New(localwr.Config{Dir: dir})
	require.NoError(t, err)
	return c, dir
}

func TestNew_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")

	_, err := localwr.New(localwr.Config{Dir: dir})
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestUploadGet_RoundTrip(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	content := []byte("solid cube\nendsolid cube\n")

	info, err := c.Upload(ctx, "cube.stl", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, "cube.stl", info.Path)
	assert.Equal(t, int64(len(content)), info.Size)

	f, err := c.Get(ctx, "cube.stl")
	require.NoError(t, err)
	defer func() { _ = f.Content.Close() }()

	got, err := io.ReadAll(f.Content)
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.Equal(t, int64(len(content)), f.Info.Size)
}

func TestUpload_LargeContent(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	// Larger than the 512-byte sniff buffer.
	content := bytes.Repeat([]byte("vertex 0 0 0\n"), 1000)

	info, err := c.Upload(ctx, "big.stl", bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), info.Size)

	f, err := c.Get(ctx, "big.stl")
	require.NoError(t, err)
	defer func() { _ = f.Content.Close() }()

	got, err := io.ReadAll(f.Content)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestUpload_NoTempLeftovers(t *testing.T) {
	c, dir := newClient(t)

	_, err := c.Upload(context.Background(), "a.stl", bytes.NewReader([]byte("abc")))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.stl", entries[0].Name())
}

func TestGet_NotFound(t *testing.T) {
	c, _ := newClient(t)

	_, err := c.Get(context.Background(), "missing.stl")
	require.Error(t, err)
	assert.True(t, errx.IsCodeIn(err, filestore.CodeFileNotFound))
}

func TestDelete_Idempotent(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	_, err := c.Upload(ctx, "a.stl", bytes.NewReader([]byte("abc")))
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, "a.stl"))
	require.NoError(t, c.Delete(ctx, "a.stl"), "second delete must succeed")

	_, err = c.Get(ctx, "a.stl")
	assert.Error(t, err)
}

func TestExists(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	ok, err := c.Exists(ctx, "a.stl")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Upload(ctx, "a.stl", bytes.NewReader([]byte("abc")))
	require.NoError(t, err)

	ok, err = c.Exists(ctx, "a.stl")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestListOlderThan(t *testing.T) {
	c, dir := newClient(t)
	ctx := context.Background()

	_, err := c.Upload(ctx, "old.stl", bytes.NewReader([]byte("old")))
	require.NoError(t, err)
	_, err = c.Upload(ctx, "new.stl", bytes.NewReader([]byte("new")))
	require.NoError(t, err)

	// Backdate one file well past any threshold we test with.
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.stl"), past, past))

	paths, err := c.ListOlderThan(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.stl"}, paths)

	paths, err = c.ListOlderThan(ctx, 72*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestKind(t *testing.T) {
	c, _ := newClient(t)
	assert.Equal(t, "local", c.Kind())
}
