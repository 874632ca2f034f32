// Package pathspec turns command-line file arguments into the paths that
// get tracked. Plain paths pass through verbatim, since the registry keys
// entries by the exact string the user supplied; glob patterns are
// expanded with doublestar and filtered through the project ignore rules.
package pathspec

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Vanadium-Development/aether/internal/ignore"
)

// IsPattern reports whether arg contains glob metacharacters.
func IsPattern(arg string) bool {
	return strings.ContainsAny(arg, "*?[{")
}

// Expand resolves args against the project in projectDir. Glob results
// are returned in the same relative or absolute form as the pattern,
// sorted, without directories or ignored files, and without duplicates.
func Expand(projectDir string, args []string, m *ignore.Matcher) ([]string, error) {
	var out []string
	seen := make(map[string]bool)

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		if !IsPattern(arg) || existingFile(projectDir, arg) {
			add(arg)
			continue
		}

		if !doublestar.ValidatePathPattern(arg) {
			return nil, fmt.Errorf("invalid pattern %q", arg)
		}

		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", arg, err)
		}
		sort.Strings(matches)

		n := 0
		for _, match := range matches {
			if m != nil && ignored(projectDir, match, m) {
				continue
			}
			add(match)
			n++
		}
		if n == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
	}
	return out, nil
}

// existingFile reports whether arg names a file that exists. Relative
// arguments are taken against projectDir, like registry paths.
func existingFile(projectDir, arg string) bool {
	path := arg
	if !filepath.IsAbs(path) {
		path = filepath.Join(projectDir, path)
	}
	info, err := os.Lstat(path)
	return err == nil && !info.IsDir()
}

func ignored(projectDir, path string, m *ignore.Matcher) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	base, err := filepath.Abs(projectDir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(base, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		// Outside the project: only basename rules can apply.
		rel = filepath.Base(abs)
	}
	return m.Match(rel, false)
}
