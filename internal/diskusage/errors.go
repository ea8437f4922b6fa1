package diskusage

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

var (
	// ErrRootNotFound means the scan root does not exist.
	ErrRootNotFound = errors.New("no such file or directory")
	// ErrNotDirectory means the scan root is not a directory.
	ErrNotDirectory = errors.New("not a directory")
	// ErrRootUnreadable means the scan root cannot be listed.
	ErrRootUnreadable = errors.New("directory is not readable")
)

// RootError is the fatal error returned when the scan root cannot be used.
type RootError struct {
	// Path is the root as given by the caller.
	Path string
	// Reason is one of ErrRootNotFound, ErrNotDirectory or ErrRootUnreadable.
	Reason error
	// Err is the underlying cause, if any.
	Err error
}

func (e *RootError) Error() string {
	if errors.Is(e.Reason, ErrNotDirectory) {
		return fmt.Sprintf("%q is not a directory", e.Path)
	}

	if e.Err != nil {
		return fmt.Sprintf("cannot access path %q: %v: %v", e.Path, e.Reason, e.Err)
	}

	return fmt.Sprintf("cannot access path %q: %v", e.Path, e.Reason)
}

// Unwrap exposes both the reason and the cause to errors.Is and errors.As.
func (e *RootError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}

	return []error{e.Reason, e.Err}
}

// rootError classifies a failure to resolve the root.
func rootError(path string, err error) *RootError {
	reason := ErrRootUnreadable
	if errors.Is(err, fs.ErrNotExist) {
		reason = ErrRootNotFound
	}

	return &RootError{Path: path, Reason: reason, Err: err}
}

// ErrorKind classifies a suppressed per-entry failure.
type ErrorKind string

const (
	// ErrorPermission is a permission or access denial.
	ErrorPermission ErrorKind = "permission"
	// ErrorNotFound is an entry that vanished during the walk.
	ErrorNotFound ErrorKind = "not-found"
	// ErrorLoop is a symlink cycle.
	ErrorLoop ErrorKind = "loop"
	// ErrorIO is any other failure reading an entry.
	ErrorIO ErrorKind = "io"
)

// classify maps err to an ErrorKind.
func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return ErrorPermission
	case errors.Is(err, fs.ErrNotExist):
		return ErrorNotFound
	case errors.Is(err, syscall.ELOOP):
		return ErrorLoop
	default:
		return ErrorIO
	}
}

// ScanError is a failure that was recorded and skipped during the walk.
type ScanError struct {
	// Path is the entry that failed.
	Path string `json:"path"`
	// Kind is the failure class.
	Kind ErrorKind `json:"kind"`
	// Message is the text of the underlying error.
	Message string `json:"message"`
	// Err is the underlying error.
	Err error `json:"-"`
}

func (e ScanError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e ScanError) Unwrap() error {
	return e.Err
}

func newScanError(path string, err error) ScanError {
	return ScanError{Path: path, Kind: classify(err), Message: err.Error(), Err: err}
}
