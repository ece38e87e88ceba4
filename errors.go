// errors.go
package reponere

import (
	"errors"
	"fmt"
)

var (
	// ErrPackageNotFound indicates the package has no installed record
	ErrPackageNotFound = errors.New("package not found")

	// ErrInvalidPackage indicates the package descriptor is invalid
	ErrInvalidPackage = errors.New("invalid package")

	// ErrBackendNotAvailable indicates no usable package manager backend
	ErrBackendNotAvailable = errors.New("backend not available")

	// ErrDependencies indicates one or more dependencies could not be resolved
	ErrDependencies = errors.New("dependency resolution failed")
)

// Error wraps an error with additional context
type Error struct {
	Op      string // Operation that failed
	Package string // Package name if applicable
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Package, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
