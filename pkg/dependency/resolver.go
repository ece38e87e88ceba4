// pkg/dependency/resolver.go

// Package dependency decides which of a package's direct dependencies need
// installing and installs them through a backend.
package dependency

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"

	"github.com/arc-language/reponere/pkg/backend"
	"github.com/arc-language/reponere/pkg/manifest"
)

// Resolver installs dependency batches through one backend
type Resolver struct {
	backend backend.Backend
}

// NewResolver creates a resolver over b
func NewResolver(b backend.Backend) *Resolver {
	return &Resolver{backend: b}
}

// NeedsInstall decides whether dep has to be installed. Query failures are
// recorded in res and decide false, so an unverifiable dependency is never
// installed.
func (r *Resolver) NeedsInstall(ctx context.Context, dep manifest.Dependency, res *Result) bool {
	log := clog.FromContext(ctx)

	installed, ok, err := r.backend.InstalledVersion(ctx, dep.Name)
	if err != nil {
		res.record(InstalledVersionCheckFailed, dep.Name, err)
		return false
	}
	if ok {
		satisfied := dep.Satisfied(installed)
		log.Debugf("%s %s installed, satisfies %q: %t", dep.Name, installed, dep.VersionReq, satisfied)
		return !satisfied
	}

	available, ok, err := r.backend.AvailableVersion(ctx, dep.Name)
	if err != nil {
		res.record(AvailableVersionCheckFailed, dep.Name, err)
		return false
	}
	if !ok {
		res.record(AvailableVersionCheckFailed, dep.Name, backend.ErrNoVersionFound)
		return false
	}

	// only install when what is offered would satisfy the requirement
	satisfied := dep.Satisfied(available)
	log.Debugf("%s %s available, satisfies %q: %t", dep.Name, available, dep.VersionReq, satisfied)
	return satisfied
}

// InstallRuntime installs the runtime dependencies that need it. Runtime
// dependencies stay installed after the build.
func (r *Resolver) InstallRuntime(ctx context.Context, deps []manifest.Dependency) *Result {
	return r.install(ctx, "runtime", deps)
}

// InstallBuild installs the build dependencies that need it. The returned
// Installed list is what a Guard must remove once the build is over.
func (r *Resolver) InstallBuild(ctx context.Context, deps []manifest.Dependency) *Result {
	return r.install(ctx, "build", deps)
}

func (r *Resolver) install(ctx context.Context, batch string, deps []manifest.Dependency) *Result {
	log := clog.FromContext(ctx)
	res := &Result{}

	for _, dep := range deps {
		if !r.NeedsInstall(ctx, dep, res) {
			continue
		}

		log.Infof("installing %s dependency %s", batch, dep.Name)
		if err := r.backend.Install(ctx, dep.Name); err != nil {
			log.Warnf("installing %s: %v", dep.Name, err)
			res.record(InstallFailed, dep.Name, fmt.Errorf("%s dependency: %w", batch, err))
			continue
		}
		res.Installed = append(res.Installed, dep.Name)
	}
	return res
}
