// Package project creates and locates aether project roots.
//
// A project root is the reserved .aether directory inside the directory a
// caller names. Nothing here reads the process working directory; callers
// pass the directory explicitly.
package project

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// Dir is the reserved subdirectory that marks an initialized project.
	Dir = ".aether"
	// MetadataFile holds the ProjectMetadata record.
	MetadataFile = "metadata.json"
	// TrackedFilesFile holds the registry document.
	TrackedFilesFile = "tracked_files.json"
	// ConfigFile is the optional project configuration.
	ConfigFile = "config.yaml"
	// CacheDir holds rebuildable caches.
	CacheDir = "cache"
)

// Metadata is written once when a project is initialized and never updated.
type Metadata struct {
	CreationTimestamp time.Time `json:"creation_timestamp"`
}

// Root returns the project root for dir.
func Root(dir string) string {
	return filepath.Join(dir, Dir)
}

// Path returns the path of name inside the project root for dir.
func Path(dir, name string) string {
	return filepath.Join(dir, Dir, name)
}

// Initialize creates the project root under dir and writes its metadata.
// It fails with ErrAlreadyInitialized, touching nothing, if the root
// already exists.
func Initialize(dir string) error {
	return initialize(dir, time.Now(), logrus.StandardLogger())
}

// InitializeWithLogger is Initialize with an explicit logger.
func InitializeWithLogger(dir string, log logrus.FieldLogger) error {
	return initialize(dir, time.Now(), log)
}

func initialize(dir string, now time.Time, log logrus.FieldLogger) error {
	root := Root(dir)

	_, err := os.Stat(root)
	if err == nil {
		return NewError("init", dir, ErrAlreadyInitialized, nil)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return ioError("init", root, err)
	}

	data, err := json.Marshal(Metadata{CreationTimestamp: now})
	if err != nil {
		return serializationError("init", MetadataFile, err)
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return ioError("init", root, err)
	}

	metaPath := filepath.Join(root, MetadataFile)
	if err := WriteFile(metaPath, data); err != nil {
		return ioError("init", metaPath, err)
	}

	log.WithField("path", root).Debug("initialized project")
	return nil
}

// Require returns ErrNotInitialized naming dir unless dir holds a project
// root. It performs no writes.
func Require(op, dir string) error {
	_, err := os.Stat(Root(dir))
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return NewError(op, dir, ErrNotInitialized, nil)
	}
	return ioError(op, Root(dir), err)
}

// ReadMetadata decodes the metadata record of the project in dir.
func ReadMetadata(dir string) (*Metadata, error) {
	if err := Require("metadata", dir); err != nil {
		return nil, err
	}

	path := Path(dir, MetadataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ioError("metadata", path, err)
	}

	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, serializationError("metadata", path, err)
	}
	return &m, nil
}
