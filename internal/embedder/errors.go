package embedder

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a file could not be embedded.
type FailureKind string

// Per-file failure kinds. These are expected branches of a run, not run
// failures: callers record them and keep going.
const (
	// KindUnreadable means the file exists but could not be decoded or
	// embedded.
	KindUnreadable FailureKind = "unreadable"

	// KindMissing means the path no longer exists when opened.
	KindMissing FailureKind = "missing"
)

// FileError is a typed per-file embedding failure.
type FileError struct {
	Path string
	Kind FailureKind
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// KindOf returns the failure kind of err, or "" if err is not a FileError.
func KindOf(err error) FailureKind {
	var fe *FileError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
