// pkg/registry/registry.go

// Package registry maps canonical dependency names to the package names each
// host package manager uses.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/samber/lo"

	"github.com/arc-language/reponere/pkg/manifest"
)

var (
	// ErrNotSynced indicates the registry directory does not exist yet
	ErrNotSynced = errors.New("registry: deps not found, run sync first")

	// ErrNotFound indicates a name with no registry entry
	ErrNotFound = errors.New("registry: package not found")

	// ErrInvalidName indicates a name that is not a single path element
	ErrInvalidName = errors.New("registry: invalid package name")
)

// Entry represents a single <name>/index.toml file
type Entry struct {
	Name        string            `toml:"name"`
	Description string            `toml:"description"`
	Backends    map[string]string `toml:"backends"`
}

// Registry provides lookup into a deps directory
type Registry struct {
	depsDir string
}

// New creates a Registry over depsDir
func New(depsDir string) *Registry {
	return &Registry{depsDir: depsDir}
}

// Dir returns the deps directory
func (r *Registry) Dir() string {
	return r.depsDir
}

// Resolve takes a canonical package name and a backend and returns the
// backend-specific package name.
// e.g. Resolve("sqlite3", "apt") -> "libsqlite3-dev"
//
// Names without an entry, or whose entry has nothing for backend, pass
// through unchanged.
func (r *Registry) Resolve(name, backend string) string {
	entry, err := r.Load(name)
	if err != nil {
		return name
	}
	if pkgName, ok := entry.Backends[backend]; ok && pkgName != "" {
		return pkgName
	}
	return name
}

// Map resolves the names of deps for backend, keeping requirements as they are
func (r *Registry) Map(deps []manifest.Dependency, backend string) []manifest.Dependency {
	return lo.Map(deps, func(d manifest.Dependency, _ int) manifest.Dependency {
		d.Name = r.Resolve(d.Name, backend)
		return d
	})
}

// Load reads and parses <name>/index.toml.
func (r *Registry) Load(name string) (*Entry, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if r.depsDir == "" {
		return nil, ErrNotSynced
	}
	if _, err := os.Stat(r.depsDir); os.IsNotExist(err) {
		return nil, ErrNotSynced
	}

	path := filepath.Join(r.depsDir, name, "index.toml")

	data, err := os.ReadFile(path)
	if err != nil {
		// Check if the directory exists, to give a better error message.
		if _, statErr := os.Stat(filepath.Dir(path)); statErr == nil {
			return nil, fmt.Errorf("registry: found package '%s' directory, but missing index.toml", name)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	var entry Entry
	if _, err := toml.Decode(string(data), &entry); err != nil {
		return nil, fmt.Errorf("registry: failed to parse '%s': %w", name, err)
	}
	if entry.Name == "" {
		entry.Name = name
	}

	return &entry, nil
}
