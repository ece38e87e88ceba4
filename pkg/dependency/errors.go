// pkg/dependency/errors.go
package dependency

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
)

// Kind classifies a dependency failure
type Kind int

const (
	// InstallFailed means the backend failed to install the dependency
	InstallFailed Kind = iota
	// InstalledVersionCheckFailed means the installed version could not be queried
	InstalledVersionCheckFailed
	// AvailableVersionCheckFailed means no available version could be determined
	AvailableVersionCheckFailed
)

func (k Kind) String() string {
	switch k {
	case InstallFailed:
		return "install failed"
	case InstalledVersionCheckFailed:
		return "installed version check failed"
	case AvailableVersionCheckFailed:
		return "available version check failed"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is one failed dependency in a batch
type Error struct {
	Kind       Kind
	Dependency string
	Err        error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Dependency, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Dependency, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result is the outcome of one dependency batch. A batch never stops at the
// first failure; Errors holds every failure in the order it happened.
type Result struct {
	// Installed lists the dependencies this batch installed
	Installed []string

	Errors []*Error
}

// Err joins the batch errors, or returns nil when the batch succeeded
func (r *Result) Err() error {
	if r == nil || len(r.Errors) == 0 {
		return nil
	}
	return errors.Join(lo.Map(r.Errors, func(e *Error, _ int) error { return e })...)
}

// Count returns how many errors of kind k were recorded
func (r *Result) Count(k Kind) int {
	return lo.CountBy(r.Errors, func(e *Error) bool { return e.Kind == k })
}

func (r *Result) record(kind Kind, dep string, err error) {
	r.Errors = append(r.Errors, &Error{Kind: kind, Dependency: dep, Err: err})
}
