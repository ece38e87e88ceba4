// pkg/backend/memory.go
package backend

import (
	"context"
	"fmt"
	"sync"
)

// Call records one operation performed on a MemoryBackend.
type Call struct {
	Op      string
	Package string
}

// MemoryBackend is an in-memory Backend for tests. Installing a package
// copies its available version into the installed set.
type MemoryBackend struct {
	mu        sync.Mutex
	installed map[string]string
	available map[string]string
	failures  map[Call]error
	calls     []Call
}

// NewMemoryBackend creates an empty MemoryBackend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		installed: make(map[string]string),
		available: make(map[string]string),
		failures:  make(map[Call]error),
	}
}

// WithInstalled marks a package as installed at version
func (m *MemoryBackend) WithInstalled(name, version string) *MemoryBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installed[name] = version
	return m
}

// WithAvailable marks a package as offered at version
func (m *MemoryBackend) WithAvailable(name, version string) *MemoryBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available[name] = version
	return m
}

// FailOn makes op ("install", "uninstall", "installed", "available") fail
// for the named package.
func (m *MemoryBackend) FailOn(op, name string, err error) *MemoryBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[Call{Op: op, Package: name}] = err
	return m
}

// Calls returns the operations performed so far, in order
func (m *MemoryBackend) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// IsInstalled reports whether name is currently installed
func (m *MemoryBackend) IsInstalled(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.installed[name]
	return ok
}

// Name returns the backend name
func (m *MemoryBackend) Name() string {
	return "memory"
}

// Install installs a package
func (m *MemoryBackend) Install(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("install", name); err != nil {
		return fmt.Errorf("%w %s: %w", ErrFailedInstall, name, err)
	}
	if v, ok := m.available[name]; ok {
		m.installed[name] = v
	}
	return nil
}

// Uninstall removes a package
func (m *MemoryBackend) Uninstall(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("uninstall", name); err != nil {
		return fmt.Errorf("%w %s: %w", ErrFailedUninstall, name, err)
	}
	delete(m.installed, name)
	return nil
}

// InstalledVersion returns the installed version of a package
func (m *MemoryBackend) InstalledVersion(_ context.Context, name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("installed", name); err != nil {
		return "", false, fmt.Errorf("%w %s: %w", ErrFailedGetVersion, name, err)
	}
	v, ok := m.installed[name]
	return v, ok, nil
}

// AvailableVersion returns the offered version of a package
func (m *MemoryBackend) AvailableVersion(_ context.Context, name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.record("available", name); err != nil {
		return "", false, fmt.Errorf("%w %s: %w", ErrFailedGetVersion, name, err)
	}
	v, ok := m.available[name]
	return v, ok, nil
}

func (m *MemoryBackend) record(op, name string) error {
	call := Call{Op: op, Package: name}
	m.calls = append(m.calls, call)
	return m.failures[call]
}
