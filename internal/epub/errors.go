package epub

import (
	"errors"
	"fmt"
)

var (
	// ErrIO is matched by every *IOError.
	ErrIO = errors.New("epub: i/o failure")

	// ErrMetadataNotFound means the archive has no content.opf.
	ErrMetadataNotFound = errors.New("epub: content.opf not found")
)

// IOError records which step of a rewrite failed and on what path.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

func ioErr(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Path: path, Err: err}
}
