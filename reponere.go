// reponere.go
package reponere

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/charmbracelet/log"

	"github.com/arc-language/reponere/pkg/backend"
	"github.com/arc-language/reponere/pkg/build"
	"github.com/arc-language/reponere/pkg/core"
	"github.com/arc-language/reponere/pkg/dependency"
	"github.com/arc-language/reponere/pkg/env"
	"github.com/arc-language/reponere/pkg/index"
	"github.com/arc-language/reponere/pkg/manifest"
	"github.com/arc-language/reponere/pkg/registry"
	"github.com/arc-language/reponere/pkg/source"
	"github.com/arc-language/reponere/pkg/tracker"
)

// Re-export types for convenience
type (
	Config           = core.Config
	Package          = manifest.Package
	Dependency       = manifest.Dependency
	InstalledPackage = manifest.InstalledPackage
	// RegistryEntry is the metadata for a dependency name from the deps/ registry.
	RegistryEntry = registry.Entry
)

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return core.DefaultConfig()
}

// Option customizes a Manager
type Option func(*Manager)

// WithBackend uses b instead of the configured or detected backend
func WithBackend(b backend.Backend) Option {
	return func(m *Manager) { m.backend = b }
}

// WithLogger sets the logger used by the manager and its backend
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithRunner sets the build step runner
func WithRunner(r *build.Runner) Option {
	return func(m *Manager) { m.runner = r }
}

// WithSourceOptions sets how package sources are fetched
func WithSourceOptions(o *source.Options) Option {
	return func(m *Manager) { m.sourceOpts = o }
}

// Manager builds and installs packages from source
type Manager struct {
	config     *Config
	backend    backend.Backend
	tracker    *tracker.Tracker
	registry   *registry.Registry
	runner     *build.Runner
	sourceOpts *source.Options
	logger     *log.Logger
	now        func() time.Time
}

// NewManager creates a manager from config. Without WithBackend the backend
// named by config.Backend is used, or the host is probed when it is empty.
func NewManager(config *Config, opts ...Option) (*Manager, error) {
	if config == nil {
		config = core.DefaultConfig()
	}

	m := &Manager{config: config, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = newLogger(config.Debug)
	}
	if m.runner == nil {
		m.runner = build.NewRunner()
	}
	if m.sourceOpts == nil {
		m.sourceOpts = &source.Options{Timeout: config.Timeout}
	}

	if m.backend == nil {
		b, err := backend.New(backend.Kind(config.Backend), &backend.Config{
			Sudo:           config.Sudo,
			ElevateCommand: config.ElevateCommand,
			Root:           "/",
			Timeout:        config.Timeout,
			Debug:          config.Debug,
			Logger:         m.logger,
		})
		if err != nil {
			return nil, &Error{Op: "init", Err: fmt.Errorf("%w: %w", ErrBackendNotAvailable, err)}
		}
		m.backend = b
	}

	t, err := tracker.Load(config.StatePath)
	if err != nil {
		return nil, &Error{Op: "init", Err: err}
	}
	m.tracker = t
	m.registry = registry.New(config.RegistryPath)

	return m, nil
}

func newLogger(debug bool) *log.Logger {
	if debug {
		return log.NewWithOptions(os.Stderr, log.Options{
			Prefix:          "reponere",
			ReportTimestamp: true,
			Level:           log.DebugLevel,
		})
	}
	return log.New(io.Discard)
}

// Install resolves pkg's dependencies, fetches its source, runs its build
// steps and records it as installed.
//
// The source descriptor is validated before anything is installed. Build
// dependencies installed here are removed again on every exit path.
// Dependency failures from either batch abort the build once both batches
// have run, unless the config sets KeepGoing.
func (m *Manager) Install(ctx context.Context, pkg *Package) (*InstalledPackage, error) {
	if pkg == nil {
		return nil, &Error{Op: "install", Err: fmt.Errorf("%w: package cannot be nil", ErrInvalidPackage)}
	}
	if err := pkg.Validate(); err != nil {
		return nil, &Error{Op: "install", Package: pkg.Name, Err: fmt.Errorf("%w: %w", ErrInvalidPackage, err)}
	}

	ctx = clog.WithLogger(ctx, clog.New(m.logger))
	logger := clog.FromContext(ctx)

	fetcher, err := source.New(pkg.Source, m.sourceOpts)
	if err != nil {
		return nil, &Error{Op: "install", Package: pkg.Name, Err: fmt.Errorf("%w: %w", ErrInvalidPackage, err)}
	}

	kind := m.backend.Name()
	resolver := dependency.NewResolver(m.backend)

	runtime := resolver.InstallRuntime(ctx, m.registry.Map(pkg.Dependencies.Runtime, kind))
	buildDeps := resolver.InstallBuild(ctx, m.registry.Map(pkg.Dependencies.Build, kind))

	guard := dependency.NewGuard(m.backend, buildDeps.Installed)
	defer guard.Release(ctx)

	if err := errors.Join(runtime.Err(), buildDeps.Err()); err != nil {
		if !m.config.KeepGoing {
			return nil, &Error{Op: "install", Package: pkg.Name, Err: fmt.Errorf("%w: %w", ErrDependencies, err)}
		}
		logger.Warnf("continuing despite dependency errors: %v", err)
	}

	checkout, err := fetcher.Fetch(ctx)
	if err != nil {
		return nil, &Error{Op: "fetch", Package: pkg.Name, Err: err}
	}
	defer checkout.Close()

	if pkg.Build != nil && len(pkg.Build.Steps) > 0 {
		runner := *m.runner
		if runner.Timeout == 0 {
			runner.Timeout = m.config.BuildTimeout
		}
		runner.Env = append(append([]string(nil), m.runner.Env...),
			env.New(m.config.InstallPath).Vars(os.Environ())...)
		runner.Env = append(runner.Env, core.InstallPathEnv+"="+m.config.InstallPath)
		if err := runner.Run(ctx, checkout.Dir, pkg.Build.Steps); err != nil {
			return nil, &Error{Op: "build", Package: pkg.Name, Err: err}
		}
	}

	record := InstalledPackage{
		Name:         pkg.Name,
		Version:      pkg.Version,
		InstallPath:  m.config.InstallPath,
		Dependencies: pkg.Dependencies.Runtime,
		Backend:      kind,
		InstalledAt:  m.now().UTC().Format(time.RFC3339),
	}
	m.tracker.Add(record)
	if err := m.tracker.Save(); err != nil {
		return nil, &Error{Op: "record", Package: pkg.Name, Err: err}
	}

	logger.Infof("installed %s %s (%s)", pkg.Name, pkg.Version, checkout.Revision)
	return &record, nil
}

// InstallFile loads the package descriptor at path and installs it
func (m *Manager) InstallFile(ctx context.Context, path string) (*InstalledPackage, error) {
	pkg, err := manifest.Load(path)
	if err != nil {
		return nil, &Error{Op: "install", Err: fmt.Errorf("%w: %w", ErrInvalidPackage, err)}
	}
	return m.Install(ctx, pkg)
}

// Installed lists the recorded packages sorted by name
func (m *Manager) Installed() []InstalledPackage {
	return m.tracker.List()
}

// Info returns the record of an installed package
func (m *Manager) Info(name string) (*InstalledPackage, error) {
	if name == "" {
		return nil, &Error{Op: "info", Err: fmt.Errorf("%w: package name is required", ErrInvalidPackage)}
	}
	pkg, err := m.tracker.Get(name)
	if err != nil {
		return nil, &Error{Op: "info", Package: name, Err: fmt.Errorf("%w: %w", ErrPackageNotFound, err)}
	}
	return &pkg, nil
}

// Forget drops the record of an installed package. Installed files are left
// in place.
func (m *Manager) Forget(name string) error {
	if err := m.tracker.Remove(name); err != nil {
		return &Error{Op: "forget", Package: name, Err: fmt.Errorf("%w: %w", ErrPackageNotFound, err)}
	}
	if err := m.tracker.Save(); err != nil {
		return &Error{Op: "forget", Package: name, Err: err}
	}
	return nil
}

// HostPackage reports what the host package manager knows about a name
type HostPackage struct {
	Name      string // canonical name as queried
	Resolved  string // backend-specific name after registry mapping
	Installed string // empty when not installed
	Available string // empty when not offered
}

// Query looks name up through the host package manager
func (m *Manager) Query(ctx context.Context, name string) (*HostPackage, error) {
	if name == "" {
		return nil, &Error{Op: "query", Err: fmt.Errorf("%w: package name is required", ErrInvalidPackage)}
	}

	hp := &HostPackage{Name: name, Resolved: m.registry.Resolve(name, m.backend.Name())}

	installed, _, err := m.backend.InstalledVersion(ctx, hp.Resolved)
	if err != nil {
		return nil, &Error{Op: "query", Package: name, Err: err}
	}
	available, _, err := m.backend.AvailableVersion(ctx, hp.Resolved)
	if err != nil {
		return nil, &Error{Op: "query", Package: name, Err: err}
	}
	hp.Installed, hp.Available = installed, available
	return hp, nil
}

// Sync refreshes the dependency-name registry from the index repository
func (m *Manager) Sync(ctx context.Context) (string, error) {
	ctx = clog.WithLogger(ctx, clog.New(m.logger))
	rev, err := index.Sync(ctx, index.Options{
		URL:     m.config.IndexURL,
		DepsDir: m.config.RegistryPath,
	})
	if err != nil {
		return "", &Error{Op: "sync", Err: err}
	}
	return rev, nil
}

// RegistryEntry retrieves the registry entry for a canonical dependency name
func (m *Manager) RegistryEntry(name string) (*RegistryEntry, error) {
	return m.registry.Load(name)
}

// Backend returns the name of the active backend
func (m *Manager) Backend() string {
	return m.backend.Name()
}
