// Package tracking maintains the registry of files that belong to an
// aether project together with the content digest each had when it was
// last tracked.
//
// The registry is one JSON document, .aether/tracked_files.json. Every
// operation reads the whole document, and every mutation rewrites it in
// full. A Registry is not safe for concurrent use, and nothing guards
// against two processes mutating the same project: the last writer wins.
//
// Relative paths are resolved against the project directory, never
// against the process working directory.
package tracking

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/Vanadium-Development/aether/internal/digest"
	"github.com/Vanadium-Development/aether/internal/project"
)

// ErrNotTracked is returned when removing a path that has no entry.
var ErrNotTracked = errors.New("file is not tracked")

// TrackedFile is one registry entry. FilePath is compared by exact string
// equality; two spellings of the same file are two entries.
type TrackedFile struct {
	FilePath string `json:"file_path"`
	Hash     string `json:"hash"`
}

// Document is the on-disk registry shape. Algorithm names the digest
// function behind every hash; it is omitted for sha256 so default
// registries keep the one-field shape.
type Document struct {
	TrackedFiles []TrackedFile    `json:"tracked_files"`
	Algorithm    digest.Algorithm `json:"algorithm,omitempty"`
}

// Digest returns the algorithm the document's hashes were made with.
func (d *Document) Digest() digest.Algorithm {
	if d.Algorithm == "" {
		return digest.Default
	}
	return d.Algorithm
}

// Outcome says what Track did. It is informational only.
type Outcome int

const (
	Added Outcome = iota
	Updated
	Unchanged
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case Updated:
		return "updated"
	case Unchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Registry is a handle on the registry file of one project.
type Registry struct {
	dir  string
	path string
	algo digest.Algorithm
	log  logrus.FieldLogger
}

// Option configures a Registry.
type Option func(*Registry)

// WithAlgorithm selects the digest algorithm for a registry that holds no
// entries yet. A populated registry keeps the algorithm it was built with.
func WithAlgorithm(a digest.Algorithm) Option {
	return func(r *Registry) { r.algo = a }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Registry) { r.log = log }
}

// Open returns a handle on the registry of the project in dir. It fails
// with ErrNotInitialized, writing nothing, if dir holds no project. A
// missing registry file is created holding an empty registry.
func Open(dir string, opts ...Option) (*Registry, error) {
	r := &Registry{
		dir:  dir,
		path: project.Path(dir, project.TrackedFilesFile),
		algo: digest.Default,
		log:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := project.Require("open", dir); err != nil {
		return nil, err
	}

	_, err := os.Stat(r.path)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, project.NewError("open", r.path, project.ErrIO, err)
	}

	if err := r.write("open", &Document{TrackedFiles: []TrackedFile{}}); err != nil {
		return nil, err
	}
	r.log.WithField("path", r.path).Debug("created empty registry")
	return r, nil
}

// Path returns the registry file path.
func (r *Registry) Path() string {
	return r.path
}

// Resolve returns the filesystem location of a tracked path.
func (r *Registry) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.dir, path)
}

// algorithmFor picks the digest algorithm for doc: the configured one for
// an empty registry, otherwise the one its hashes were made with.
func (r *Registry) algorithmFor(doc *Document) digest.Algorithm {
	if len(doc.TrackedFiles) == 0 {
		return r.algo
	}
	algo := doc.Digest()
	if algo != r.algo {
		r.log.WithFields(logrus.Fields{
			"registry":   algo.String(),
			"configured": r.algo.String(),
		}).Warn("registry digests use a different algorithm; keeping the registry's")
	}
	return algo
}

// Track records path with the digest of its current content. An entry
// whose hash already matches is left alone and the registry is not
// rewritten. An entry with a different hash is replaced.
func (r *Registry) Track(path string) (Outcome, error) {
	doc, err := r.read("track")
	if err != nil {
		return 0, err
	}

	algo := r.algorithmFor(doc)
	sum, err := r.hash(algo, path)
	if err != nil {
		return 0, err
	}

	log := r.log.WithFields(logrus.Fields{"path": path, "hash": sum})

	outcome := Added
	if i := doc.index(path); i >= 0 {
		if doc.TrackedFiles[i].Hash == sum {
			log.Debug("file unchanged")
			return Unchanged, nil
		}
		doc.drop(path)
		outcome = Updated
	}

	doc.TrackedFiles = append(doc.TrackedFiles, TrackedFile{FilePath: path, Hash: sum})
	doc.Algorithm = algo

	if err := r.write("track", doc); err != nil {
		return 0, err
	}
	log.WithField("outcome", outcome.String()).Debug("registry updated")
	return outcome, nil
}

// Remove deletes the entry for path. It returns ErrNotTracked, without
// rewriting the registry, if there is none.
func (r *Registry) Remove(path string) error {
	doc, err := r.read("remove")
	if err != nil {
		return err
	}

	if doc.index(path) < 0 {
		return project.NewError("remove", path, ErrNotTracked, nil)
	}
	doc.drop(path)

	if err := r.write("remove", doc); err != nil {
		return err
	}
	r.log.WithField("path", path).Debug("file untracked")
	return nil
}

// List returns the tracked files in stored order.
func (r *Registry) List() ([]TrackedFile, error) {
	doc, err := r.read("list")
	if err != nil {
		return nil, err
	}
	return doc.TrackedFiles, nil
}

// Document returns the whole registry with its digest algorithm filled in.
func (r *Registry) Document() (*Document, error) {
	doc, err := r.read("read")
	if err != nil {
		return nil, err
	}
	doc.Algorithm = doc.Digest()
	return doc, nil
}

func (r *Registry) hash(algo digest.Algorithm, path string) (string, error) {
	sum, err := algo.File(r.Resolve(path))
	if err == nil {
		return sum, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return "", project.NewError("track", path, project.ErrFileNotFound, err)
	}
	return "", project.NewError("track", path, project.ErrIO, err)
}

// read decodes the whole registry. A document that does not decode is
// reported as is; it is never repaired.
func (r *Registry) read(op string) (*Document, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, project.NewError(op, r.path, project.ErrIO, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, project.NewError(op, r.path, project.ErrSerialization, err)
	}
	if doc.Algorithm != "" {
		if _, err := digest.Parse(string(doc.Algorithm)); err != nil {
			return nil, project.NewError(op, r.path, project.ErrSerialization, err)
		}
	}
	if doc.TrackedFiles == nil {
		doc.TrackedFiles = []TrackedFile{}
	}
	return &doc, nil
}

func (r *Registry) write(op string, doc *Document) error {
	if doc.Algorithm == digest.Default {
		doc.Algorithm = ""
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return project.NewError(op, r.path, project.ErrSerialization, err)
	}
	if err := project.WriteFile(r.path, data); err != nil {
		return project.NewError(op, r.path, project.ErrIO, err)
	}
	return nil
}

func (d *Document) index(path string) int {
	for i, f := range d.TrackedFiles {
		if f.FilePath == path {
			return i
		}
	}
	return -1
}

// drop removes every entry for path. A hand-edited document may hold
// duplicates; they all go.
func (d *Document) drop(path string) {
	kept := d.TrackedFiles[:0]
	for _, f := range d.TrackedFiles {
		if f.FilePath != path {
			kept = append(kept, f)
		}
	}
	d.TrackedFiles = kept
}
