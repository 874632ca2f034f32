// Package ignore provides gitignore-style pattern matching used to keep
// backup files, caches and render output out of glob expansions.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultFile is the per-project ignore file read from the project directory.
const DefaultFile = ".aetherignore"

// Pattern is a single compiled ignore rule.
type Pattern struct {
	pattern  string
	negated  bool
	dirOnly  bool
	anchored bool // leading "/" matches from the base only
}

// Matcher holds compiled ignore patterns.
type Matcher struct {
	patterns []Pattern
}

// NewMatcher creates an empty Matcher.
func NewMatcher() *Matcher {
	return &Matcher{patterns: []Pattern{}}
}

// AddPattern compiles one pattern line. Blank lines and comments are skipped.
func (m *Matcher) AddPattern(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}

	p := Pattern{}

	if strings.HasPrefix(line, "!") {
		p.negated = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.anchored = true
		line = line[1:]
	}

	// Unanchored patterns without a slash match the basename at any depth.
	if !p.anchored && !strings.Contains(line, "/") {
		line = "**/" + line
	}

	p.pattern = line
	m.patterns = append(m.patterns, p)
}

// AddPatterns compiles several pattern lines.
func (m *Matcher) AddPatterns(lines []string) {
	for _, line := range lines {
		m.AddPattern(line)
	}
}

// LoadFile reads patterns from a gitignore-style file. A missing file is
// not an error.
func (m *Matcher) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		m.AddPattern(scanner.Text())
	}
	return scanner.Err()
}

// Match reports whether a slash-separated path relative to the project
// directory is ignored. The last matching pattern wins.
func (m *Matcher) Match(path string, isDir bool) bool {
	path = strings.TrimPrefix(filepath.ToSlash(path), "./")

	ignored := false
	for _, p := range m.patterns {
		if p.matches(path, isDir) {
			ignored = !p.negated
		}
	}
	return ignored
}

// matches reports whether the rule covers path. A directory rule applied
// to a file covers it through any of its parent directories.
func (p Pattern) matches(path string, isDir bool) bool {
	if !p.dirOnly || isDir {
		return p.matchPath(path)
	}
	for dir := parentDir(path); dir != ""; dir = parentDir(dir) {
		if p.matchPath(dir) {
			return true
		}
	}
	return false
}

func (p Pattern) matchPath(path string) bool {
	if matched, _ := doublestar.Match(p.pattern, path); matched {
		return true
	}
	// "renders" also covers everything below renders/.
	if strings.HasSuffix(p.pattern, "/**") {
		return false
	}
	matched, _ := doublestar.Match(p.pattern+"/**", path)
	return matched
}

func parentDir(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return ""
	}
	return path[:i]
}

// Defaults are the patterns every project starts with.
var Defaults = []string{
	// project state and version control
	".aether/",
	".git/",
	".svn/",
	".hg/",

	// Blender autosave and numbered backups
	"*.blend[0-9]",
	"*.blend[0-9][0-9]",
	"*.blend@",
	"quit.blend",

	// editor and OS junk
	".DS_Store",
	"Thumbs.db",
	"Desktop.ini",
	"*.tmp",
	"*.swp",
	"*.bak",
}

// LoadDefaults adds Defaults to the matcher.
func (m *Matcher) LoadDefaults() {
	m.AddPatterns(Defaults)
}

// LoadFromDir builds a matcher from the defaults followed by the ignore
// file in dir. Later patterns may re-include files with "!".
func LoadFromDir(dir, name string) (*Matcher, error) {
	if name == "" {
		name = DefaultFile
	}

	m := NewMatcher()
	m.LoadDefaults()
	if err := m.LoadFile(filepath.Join(dir, name)); err != nil {
		return nil, err
	}
	return m, nil
}
