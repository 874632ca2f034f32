// Package config loads per-project settings.
//
// Settings come from .aether/config.yaml when present, then from AETHER_*
// environment variables, which take precedence. The file is optional and
// never written by aether itself.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Vanadium-Development/aether/internal/digest"
	"github.com/Vanadium-Development/aether/internal/ignore"
	"github.com/Vanadium-Development/aether/internal/project"
)

// Config holds project settings.
type Config struct {
	// Digest names the hash algorithm of a registry that has no entries
	// yet. A populated registry keeps the algorithm it was built with.
	Digest string `yaml:"digest"`
	// IgnoreFile is the ignore file name, relative to the project directory.
	IgnoreFile string `yaml:"ignore_file"`
	// Cache enables the digest cache used by status checks.
	Cache bool `yaml:"cache"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Digest:     string(digest.Default),
		IgnoreFile: ignore.DefaultFile,
		Cache:      true,
	}
}

// Load reads the configuration of the project in dir.
func Load(dir string) (*Config, error) {
	cfg := Default()

	path := project.Path(dir, project.ConfigFile)
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, project.NewError("config", path, project.ErrIO, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, project.NewError("config", path, project.ErrSerialization, err)
		}
	}

	cfg.Digest = getEnv("AETHER_DIGEST", cfg.Digest)
	cfg.IgnoreFile = getEnv("AETHER_IGNORE_FILE", cfg.IgnoreFile)
	cfg.Cache = getEnvBool("AETHER_CACHE", cfg.Cache)

	if cfg.IgnoreFile == "" {
		cfg.IgnoreFile = ignore.DefaultFile
	}
	if _, err := cfg.Algorithm(); err != nil {
		return nil, project.NewError("config", path, project.ErrSerialization, err)
	}
	return cfg, nil
}

// Algorithm returns the configured digest algorithm.
func (c *Config) Algorithm() (digest.Algorithm, error) {
	return digest.Parse(c.Digest)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
