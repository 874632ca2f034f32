// Package cache remembers file digests so repeated status checks do not
// rehash scene files whose size and modification time are unchanged.
package cache

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/Vanadium-Development/aether/internal/digest"
	"github.com/Vanadium-Development/aether/internal/project"
)

// DBFile is the cache database inside the project cache directory.
const DBFile = "files.db"

// FileCache caches file digests keyed by (path, algorithm, size, mtime).
type FileCache struct {
	db  *sql.DB
	log logrus.FieldLogger
}

const schema = `
CREATE TABLE IF NOT EXISTS file_cache (
	path TEXT NOT NULL,
	algorithm TEXT NOT NULL,
	size INTEGER NOT NULL,
	mtime INTEGER NOT NULL,
	digest TEXT NOT NULL,
	PRIMARY KEY (path, algorithm)
);
`

// Open opens or creates the digest cache of the project in dir.
// The database lives at {dir}/.aether/cache/files.db.
func Open(dir string, log logrus.FieldLogger) (*FileCache, error) {
	if err := project.Require("cache", dir); err != nil {
		return nil, err
	}

	cacheDir := project.Path(dir, project.CacheDir)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, project.NewError("cache", cacheDir, project.ErrIO, err)
	}

	dbPath := filepath.Join(cacheDir, DBFile)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, project.NewError("cache", dbPath, project.ErrIO, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, project.NewError("cache", dbPath, project.ErrIO, err)
	}

	if log == nil {
		log = logrus.StandardLogger()
	}
	return &FileCache{db: db, log: log}, nil
}

// Close closes the cache database.
func (c *FileCache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Digest returns the digest of the file at path, reusing the cached value
// when the file's size and mtime match the cached entry.
func (c *FileCache) Digest(path string, algo digest.Algorithm) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	cached, err := c.lookup(path, algo, info)
	if err != nil {
		return "", err
	}
	if cached != "" {
		return cached, nil
	}

	sum, err := algo.File(path)
	if err != nil {
		return "", err
	}

	// A failed cache write only costs a rehash next time.
	if err := c.store(path, algo, info, sum); err != nil {
		c.log.WithError(err).WithField("path", path).Warn("could not update digest cache")
	}
	return sum, nil
}

// lookup returns the cached digest for path if it matches info.
// It returns an empty string and nil error when not cached or stale.
func (c *FileCache) lookup(path string, algo digest.Algorithm, info os.FileInfo) (string, error) {
	var cachedSize, cachedMtime int64
	var cachedDigest string
	err := c.db.QueryRow(
		"SELECT size, mtime, digest FROM file_cache WHERE path = ? AND algorithm = ?",
		path, string(algo),
	).Scan(&cachedSize, &cachedMtime, &cachedDigest)

	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	if cachedSize == info.Size() && cachedMtime == info.ModTime().UnixNano() {
		return cachedDigest, nil
	}
	return "", nil
}

// store records a digest for path at the given stat.
func (c *FileCache) store(path string, algo digest.Algorithm, info os.FileInfo, sum string) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO file_cache (path, algorithm, size, mtime, digest)
		 VALUES (?, ?, ?, ?, ?)`,
		path, string(algo), info.Size(), info.ModTime().UnixNano(), sum,
	)
	return err
}

// Remove drops every cached digest for path.
func (c *FileCache) Remove(path string) error {
	if _, err := c.db.Exec("DELETE FROM file_cache WHERE path = ?", path); err != nil {
		return project.NewError("cache", path, project.ErrIO, err)
	}
	return nil
}
