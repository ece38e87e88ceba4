// pkg/backend/errors.go
package backend

import "errors"

var (
	// ErrUnknownManager indicates no supported package manager was detected
	ErrUnknownManager = errors.New("unknown package manager")

	// ErrFailedInstall indicates the package manager failed to install a package
	ErrFailedInstall = errors.New("failed to install package")

	// ErrFailedUninstall indicates the package manager failed to remove a package
	ErrFailedUninstall = errors.New("failed to uninstall package")

	// ErrFailedGetVersion indicates a version query could not be run
	ErrFailedGetVersion = errors.New("failed to get package version")

	// ErrNoVersionFound indicates a version query found no version
	ErrNoVersionFound = errors.New("no package version found")
)
