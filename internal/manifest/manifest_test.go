package manifest

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vanadium-Development/aether/internal/digest"
	"github.com/Vanadium-Development/aether/internal/tracking"
)

func TestWriteRead(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	files := []tracking.TrackedFile{
		{FilePath: "shots/010/shot.blend", Hash: strings.Repeat("a", digest.HexLen)},
		{FilePath: "shots/020/shot.blend", Hash: strings.Repeat("b", digest.HexLen)},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, New(files, created, digest.SHA256)))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, Version, got.Version)
	assert.True(t, created.Equal(got.ProjectCreatedAt))
	assert.Equal(t, digest.SHA256, got.Algorithm)
	assert.Equal(t, files, got.Files)
}

func TestNewEmpty(t *testing.T) {
	m := New(nil, time.Now(), digest.BLAKE3)
	assert.NotNil(t, m.Files)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, m))
	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Empty(t, got.Files)
}

func compress(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, json.NewEncoder(enc).Encode(v))
	require.NoError(t, enc.Close())
	return &buf
}

func TestReadRejectsBadHash(t *testing.T) {
	buf := compress(t, Manifest{
		Version:   Version,
		Algorithm: digest.SHA256,
		Files:     []tracking.TrackedFile{{FilePath: "a.blend", Hash: "xyz"}},
	})
	_, err := Read(buf)
	assert.ErrorContains(t, err, "malformed hash")
}

func TestReadRejectsVersion(t *testing.T) {
	buf := compress(t, Manifest{Version: 99})
	_, err := Read(buf)
	assert.ErrorContains(t, err, "unsupported manifest version")
}

func TestReadRejectsAlgorithm(t *testing.T) {
	for _, algo := range []digest.Algorithm{"", "md5"} {
		buf := compress(t, Manifest{Version: Version, Algorithm: algo})
		_, err := Read(buf)
		assert.ErrorContains(t, err, "is not supported", string(algo))
	}
}

func TestReadNotCompressed(t *testing.T) {
	_, err := Read(bytes.NewBufferString(`{"version":1}`))
	assert.Error(t, err)
}
