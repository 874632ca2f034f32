package project

import "errors"

// Error kinds, matched with errors.Is. The tracking package reports its
// failures with the same kinds.
var (
	ErrAlreadyInitialized = errors.New("aether project already initialized")
	ErrNotInitialized     = errors.New("no aether project is initialized")
	ErrIO                 = errors.New("i/o failure")
	ErrSerialization      = errors.New("serialization failure")
	ErrFileNotFound       = errors.New("file not found")
)

// Error records a failed operation on a project path.
type Error struct {
	Op   string // "init", "open", "track", ...
	Path string
	Kind error
	Err  error // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError builds an *Error. It is exported so the tracking package can
// report failures with the same taxonomy.
func NewError(op, path string, kind, err error) *Error {
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

func ioError(op, path string, err error) error {
	return NewError(op, path, ErrIO, err)
}

func serializationError(op, path string, err error) error {
	return NewError(op, path, ErrSerialization, err)
}
