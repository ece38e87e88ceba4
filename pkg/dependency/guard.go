// pkg/dependency/guard.go
package dependency

import (
	"context"
	"sync"

	"github.com/chainguard-dev/clog"

	"github.com/arc-language/reponere/pkg/backend"
)

// Guard owns the removal of build dependencies installed for one build.
//
//	res := resolver.InstallBuild(ctx, pkg.Dependencies.Build)
//	guard := dependency.NewGuard(b, res.Installed)
//	defer guard.Release(ctx)
type Guard struct {
	backend backend.Backend
	tracked []string
	once    sync.Once
}

// NewGuard tracks installed for removal through b
func NewGuard(b backend.Backend, installed []string) *Guard {
	return &Guard{
		backend: b,
		tracked: append([]string(nil), installed...),
	}
}

// Tracked returns the names still awaiting removal
func (g *Guard) Tracked() []string {
	return append([]string(nil), g.tracked...)
}

// Release uninstalls every tracked dependency. Only the first call does any
// work. Uninstall failures are logged and dropped so they never hide the
// outcome of the build itself. Cancellation of ctx does not stop the
// cleanup.
func (g *Guard) Release(ctx context.Context) {
	g.once.Do(func() {
		ctx := context.WithoutCancel(ctx)
		log := clog.FromContext(ctx)

		for _, name := range g.tracked {
			log.Infof("removing build dependency %s", name)
			if err := g.backend.Uninstall(ctx, name); err != nil {
				log.Warnf("removing build dependency %s: %v", name, err)
			}
		}
		g.tracked = nil
	})
}
