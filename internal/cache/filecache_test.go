package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vanadium-Development/aether/internal/digest"
	"github.com/Vanadium-Development/aether/internal/project"
)

func openTestCache(t *testing.T) (*FileCache, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, project.Initialize(dir))

	c, err := Open(dir, logrus.New())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, dir
}

func TestOpenRequiresProject(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(dir, nil)
	assert.ErrorIs(t, err, project.ErrNotInitialized)

	_, statErr := os.Stat(project.Root(dir))
	assert.True(t, os.IsNotExist(statErr), "open must not create the project root")
}

func TestCacheHitAndMiss(t *testing.T) {
	c, dir := openTestCache(t)

	path := filepath.Join(dir, "scene.blend")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	cached, err := c.lookup(path, digest.SHA256, info)
	require.NoError(t, err)
	assert.Empty(t, cached)

	sum, err := c.Digest(path, digest.SHA256)
	require.NoError(t, err)
	want, err := digest.SHA256.Reader(strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, want, sum)

	cached, err = c.lookup(path, digest.SHA256, info)
	require.NoError(t, err)
	assert.Equal(t, sum, cached)

	// Other algorithms are cached separately.
	cached, err = c.lookup(path, digest.BLAKE3, info)
	require.NoError(t, err)
	assert.Empty(t, cached)
}

func TestCacheInvalidation(t *testing.T) {
	c, dir := openTestCache(t)

	path := filepath.Join(dir, "scene.blend")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0644))

	first, err := c.Digest(path, digest.SHA256)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("goodbye world - changed!"), 0644))
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, later, later))

	info, err := os.Stat(path)
	require.NoError(t, err)
	cached, err := c.lookup(path, digest.SHA256, info)
	require.NoError(t, err)
	assert.Empty(t, cached, "expected cache miss after file change")

	second, err := c.Digest(path, digest.SHA256)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestCacheRemove(t *testing.T) {
	c, dir := openTestCache(t)

	infos := map[string]os.FileInfo{}
	for _, name := range []string{"a.blend", "b.blend"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(name), 0644))
		for _, algo := range []digest.Algorithm{digest.SHA256, digest.BLAKE3} {
			_, err := c.Digest(path, algo)
			require.NoError(t, err)
		}
		info, err := os.Stat(path)
		require.NoError(t, err)
		infos[path] = info
	}

	a := filepath.Join(dir, "a.blend")
	b := filepath.Join(dir, "b.blend")
	require.NoError(t, c.Remove(a))

	for _, algo := range []digest.Algorithm{digest.SHA256, digest.BLAKE3} {
		cached, err := c.lookup(a, algo, infos[a])
		require.NoError(t, err)
		assert.Empty(t, cached, algo.String())

		cached, err = c.lookup(b, algo, infos[b])
		require.NoError(t, err)
		assert.NotEmpty(t, cached, algo.String())
	}

	// Removing an uncached path is not an error.
	assert.NoError(t, c.Remove(filepath.Join(dir, "never.blend")))
}

func TestOpenCacheDirBlocked(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, project.Initialize(dir))
	require.NoError(t, os.WriteFile(project.Path(dir, project.CacheDir), []byte("x"), 0644))

	_, err := Open(dir, logrus.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, project.ErrIO)
	assert.Contains(t, err.Error(), project.CacheDir)
}

func TestDigestMissingFile(t *testing.T) {
	c, dir := openTestCache(t)
	_, err := c.Digest(filepath.Join(dir, "missing.blend"), digest.SHA256)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
