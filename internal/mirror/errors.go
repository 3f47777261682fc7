package mirror

import (
	"errors"
	"fmt"
)

// StructuralError reports a failure that prevents a whole subtree from being
// reconciled, such as a directory that cannot be listed or created.
type StructuralError struct {
	// Op is the filesystem operation that failed (list, mkdir, stat).
	Op string
	// Path is the path the operation was applied to.
	Path string
	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message.
func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *StructuralError) Unwrap() error {
	return e.Err
}

func structural(op, path string, err error) error {
	return &StructuralError{Op: op, Path: path, Err: err}
}

// IsStructural reports whether err is or wraps a *StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}
