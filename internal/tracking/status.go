package tracking

import (
	"errors"
	"io/fs"

	"github.com/Vanadium-Development/aether/internal/digest"
	"github.com/Vanadium-Development/aether/internal/project"
)

// State is the condition of a tracked file relative to its registry entry.
type State string

const (
	StateUnchanged State = "unchanged"
	StateModified  State = "modified"
	StateMissing   State = "missing"
)

// FileStatus pairs a registry entry with the file's current state.
type FileStatus struct {
	TrackedFile
	State   State  `json:"state"`
	Current string `json:"current_hash,omitempty"`
}

// Hasher computes the digest of a file. The digest cache satisfies it.
type Hasher interface {
	Digest(path string, algo digest.Algorithm) (string, error)
}

type directHasher struct{}

func (directHasher) Digest(path string, algo digest.Algorithm) (string, error) {
	return algo.File(path)
}

// Status compares every tracked file with its current content. h may be
// nil, in which case each file is hashed directly. Files are hashed with
// the algorithm the registry was built with. The registry is only read.
func (r *Registry) Status(h Hasher) ([]FileStatus, error) {
	if h == nil {
		h = directHasher{}
	}

	doc, err := r.read("status")
	if err != nil {
		return nil, err
	}

	algo := doc.Digest()
	out := make([]FileStatus, 0, len(doc.TrackedFiles))
	for _, f := range doc.TrackedFiles {
		st := FileStatus{TrackedFile: f}

		sum, err := h.Digest(r.Resolve(f.FilePath), algo)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			st.State = StateMissing
		case err != nil:
			return nil, project.NewError("status", f.FilePath, project.ErrIO, err)
		case sum == f.Hash:
			st.State = StateUnchanged
			st.Current = sum
		default:
			st.State = StateModified
			st.Current = sum
		}
		out = append(out, st)
	}
	return out, nil
}
