// pkg/backend/types.go
package backend

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// Kind identifies a host package manager
type Kind string

const (
	// KindPacman uses the Arch Linux package manager
	KindPacman Kind = "pacman"
	// KindApt uses the Debian/Ubuntu package manager
	KindApt Kind = "apt"
	// KindDnf uses the Fedora package manager
	KindDnf Kind = "dnf"
	// KindAuto probes the system for a supported package manager
	KindAuto Kind = "auto"
)

// Backend is the uniform interface over one host package manager.
type Backend interface {
	// Name returns the name of the backend
	Name() string

	// Install installs a package through the host package manager
	Install(ctx context.Context, name string) error

	// Uninstall removes a package through the host package manager
	Uninstall(ctx context.Context, name string) error

	// InstalledVersion returns the installed version of a package. The
	// boolean is false when the package is not installed.
	InstalledVersion(ctx context.Context, name string) (string, bool, error)

	// AvailableVersion returns the version the package repositories
	// currently offer. The boolean is false when nothing is offered.
	AvailableVersion(ctx context.Context, name string) (string, bool, error)
}

// Commands holds the static command template of one package manager kind.
type Commands struct {
	Binary         string
	InstallFlags   []string
	UninstallFlags []string
	InstalledFlags []string // query the installed version
	AvailableFlags []string // query the version offered by the repositories
}

// Config holds configuration shared by all command backends
type Config struct {
	// Sudo prefixes every invocation with ElevateCommand
	Sudo bool

	// ElevateCommand is the privileged-execution command (default: sudo)
	ElevateCommand string

	// Root is the filesystem root probed by Detect (default: /)
	Root string

	// Timeout bounds every package manager invocation
	Timeout time.Duration

	// Debug enables debug logging
	Debug bool

	// Logger for custom logging
	Logger *log.Logger
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		ElevateCommand: "sudo",
		Root:           "/",
		Timeout:        10 * time.Minute,
	}
}

// newLogger returns the configured logger or a prefixed one for the backend.
func newLogger(cfg *Config, prefix string) *log.Logger {
	if cfg.Logger != nil {
		return cfg.Logger.WithPrefix(prefix)
	}
	if cfg.Debug {
		return log.NewWithOptions(os.Stdout, log.Options{
			Prefix:          prefix,
			ReportTimestamp: true,
			Level:           log.DebugLevel,
		})
	}
	return log.New(io.Discard)
}
