package tracking

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vanadium-Development/aether/internal/cache"
	"github.com/Vanadium-Development/aether/internal/digest"
)

func TestStatus(t *testing.T) {
	dir := newProject(t)
	r := openRegistry(t, dir)

	same := filepath.Join(dir, "same.blend")
	changed := filepath.Join(dir, "changed.blend")
	gone := filepath.Join(dir, "gone.blend")
	for _, p := range []string{same, changed, gone} {
		writeFile(t, p, filepath.Base(p))
		_, err := r.Track(p)
		require.NoError(t, err)
	}

	writeFile(t, changed, "new content")
	require.NoError(t, os.Remove(gone))

	before := readDocument(t, r)

	c, err := cache.Open(dir, logrus.New())
	require.NoError(t, err)
	defer c.Close()

	for _, h := range []Hasher{nil, c} {
		statuses, err := r.Status(h)
		require.NoError(t, err)
		require.Len(t, statuses, 3)

		byPath := map[string]FileStatus{}
		for _, s := range statuses {
			byPath[s.FilePath] = s
		}

		assert.Equal(t, StateUnchanged, byPath[same].State)
		assert.Equal(t, StateModified, byPath[changed].State)
		assert.Equal(t, sumOf(t, digest.SHA256, "new content"), byPath[changed].Current)
		assert.Equal(t, StateMissing, byPath[gone].State)
		assert.Empty(t, byPath[gone].Current)
	}

	assert.Equal(t, before, readDocument(t, r), "status must not modify the registry")
}

func TestStatusEmpty(t *testing.T) {
	r := openRegistry(t, newProject(t))
	statuses, err := r.Status(nil)
	require.NoError(t, err)
	assert.Empty(t, statuses)
}

func TestStatusUsesRegistryAlgorithm(t *testing.T) {
	dir := newProject(t)
	scene := filepath.Join(dir, "scene.blend")
	writeFile(t, scene, "A")
	_, err := openRegistry(t, dir).Track(scene)
	require.NoError(t, err)

	c, err := cache.Open(dir, logrus.New())
	require.NoError(t, err)
	defer c.Close()

	r := openRegistry(t, dir, WithAlgorithm(digest.BLAKE3))
	for _, h := range []Hasher{nil, c} {
		statuses, err := r.Status(h)
		require.NoError(t, err)
		require.Len(t, statuses, 1)
		assert.Equal(t, StateUnchanged, statuses[0].State)
	}
}
