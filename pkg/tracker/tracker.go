// pkg/tracker/tracker.go

// Package tracker persists the records of packages built and installed from
// source.
package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/arc-language/reponere/pkg/manifest"
)

// ErrNotTracked indicates a package with no installed record
var ErrNotTracked = errors.New("package not tracked")

// state is the on-disk layout
type state struct {
	Packages map[string]manifest.InstalledPackage `json:"packages"`
}

// Tracker is a JSON file of installed package records keyed by name.
type Tracker struct {
	path string

	mu       sync.Mutex
	packages map[string]manifest.InstalledPackage
}

// Load reads the tracker file at path. A missing file yields an empty tracker.
func Load(path string) (*Tracker, error) {
	t := &Tracker{path: path, packages: map[string]manifest.InstalledPackage{}}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading tracker: %w", err)
	}

	var s state
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing tracker %s: %w", path, err)
	}
	if s.Packages != nil {
		t.packages = s.Packages
	}
	return t, nil
}

// Path returns the tracker file location
func (t *Tracker) Path() string {
	return t.path
}

// Save writes the tracker atomically, creating parent directories as needed.
func (t *Tracker) Save() error {
	t.mu.Lock()
	data, err := json.MarshalIndent(state{Packages: t.packages}, "", "  ")
	t.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encoding tracker: %w", err)
	}

	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tracker-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("writing tracker: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing tracker: %w", err)
	}
	if err := os.Rename(tmp.Name(), t.path); err != nil {
		return fmt.Errorf("replacing tracker: %w", err)
	}
	return nil
}

// Add records pkg, replacing any previous record of the same name
func (t *Tracker) Add(pkg manifest.InstalledPackage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.packages[pkg.Name] = pkg
}

// Get returns the record for name
func (t *Tracker) Get(name string) (manifest.InstalledPackage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	pkg, ok := t.packages[name]
	if !ok {
		return manifest.InstalledPackage{}, fmt.Errorf("%w: %s", ErrNotTracked, name)
	}
	return pkg, nil
}

// Remove drops the record for name
func (t *Tracker) Remove(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.packages[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotTracked, name)
	}
	delete(t.packages, name)
	return nil
}

// List returns every record sorted by name
func (t *Tracker) List() []manifest.InstalledPackage {
	t.mu.Lock()
	defer t.mu.Unlock()

	pkgs := lo.Values(t.packages)
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Name < pkgs[j].Name })
	return pkgs
}
