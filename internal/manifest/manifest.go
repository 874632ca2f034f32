// Package manifest exports the tracked-file registry as a compressed
// manifest that a distribution step can ship alongside the scene files.
package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/Vanadium-Development/aether/internal/digest"
	"github.com/Vanadium-Development/aether/internal/tracking"
)

// Version is the manifest format version.
const Version = 1

// Manifest describes a project's tracked files at export time.
type Manifest struct {
	Version          int                    `json:"version"`
	ProjectCreatedAt time.Time              `json:"project_created_at"`
	ExportedAt       time.Time              `json:"exported_at"`
	Algorithm        digest.Algorithm       `json:"algorithm"`
	Files            []tracking.TrackedFile `json:"files"`
}

// New builds a manifest from registry entries.
func New(files []tracking.TrackedFile, createdAt time.Time, algo digest.Algorithm) *Manifest {
	if files == nil {
		files = []tracking.TrackedFile{}
	}
	return &Manifest{
		Version:          Version,
		ProjectCreatedAt: createdAt,
		ExportedAt:       time.Now().UTC(),
		Algorithm:        algo,
		Files:            files,
	}
}

// Write encodes m as zstd-compressed JSON.
func Write(w io.Writer, m *Manifest) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return err
	}
	if err := json.NewEncoder(enc).Encode(m); err != nil {
		enc.Close()
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return enc.Close()
}

// Read decodes a manifest produced by Write.
func Read(r io.Reader) (*Manifest, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var m Manifest
	if err := json.NewDecoder(dec).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	if m.Version != Version {
		return nil, fmt.Errorf("unsupported manifest version %d", m.Version)
	}
	if _, err := digest.Parse(string(m.Algorithm)); err != nil || m.Algorithm == "" {
		return nil, fmt.Errorf("manifest algorithm %q is not supported", m.Algorithm)
	}
	for _, f := range m.Files {
		if !digest.Valid(f.Hash) {
			return nil, fmt.Errorf("manifest entry %s: malformed hash %q", f.FilePath, f.Hash)
		}
	}
	return &m, nil
}
