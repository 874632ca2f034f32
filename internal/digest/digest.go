// Package digest computes the content hashes aether stores for tracked
// files. Every digest is 256 bits wide and rendered as lowercase hex.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"lukechampine.com/blake3"
)

// Algorithm names a supported digest function.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	BLAKE3 Algorithm = "blake3"
)

// Default is the algorithm used when a project does not configure one.
// Registries written by earlier aether releases carry sha256 digests.
const Default = SHA256

// HexLen is the length of every hex digest.
const HexLen = 64

// Parse converts a configured name into an Algorithm.
func Parse(name string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(name))) {
	case "", SHA256:
		return SHA256, nil
	case BLAKE3:
		return BLAKE3, nil
	default:
		return "", fmt.Errorf("unknown digest algorithm %q", name)
	}
}

// New returns a streaming hasher for the algorithm.
func (a Algorithm) New() hash.Hash {
	if a == BLAKE3 {
		return blake3.New(32, nil)
	}
	return sha256.New()
}

// Reader streams r through the hasher and returns the hex digest.
func (a Algorithm) Reader(r io.Reader) (string, error) {
	h := a.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// File hashes the complete content of the file at path.
// Scene files can be large, so the content is streamed rather than
// loaded into memory.
func (a Algorithm) File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return a.Reader(f)
}

// Valid reports whether s looks like a digest produced by this package.
func Valid(s string) bool {
	if len(s) != HexLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func (a Algorithm) String() string {
	return string(a)
}
