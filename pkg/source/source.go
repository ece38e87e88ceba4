// pkg/source/source.go

// Package source resolves package source descriptors and fetches them into
// ephemeral working directories.
//
// A fetch returns a *Checkout that owns its directory; the caller releases it
// with Close once the build is done:
//
//	g, err := source.FromSource(pkg.Source)
//	checkout, err := g.Fetch(ctx)
//	defer checkout.Close()
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/arc-language/reponere/pkg/manifest"
)

// ErrUnsupportedSource indicates a source variant the resolver cannot handle
var ErrUnsupportedSource = errors.New("unsupported source type")

// InvalidSpecificationError is returned for a source that names conflicting refs
type InvalidSpecificationError struct {
	Reason string
}

func (e *InvalidSpecificationError) Error() string {
	return "invalid source specification: " + e.Reason
}

// Fetcher fetches a package source into a fresh directory
type Fetcher interface {
	Fetch(ctx context.Context) (*Checkout, error)
}

// Options configures fetchers
type Options struct {
	// TempDir is the parent of checkout directories (default: os.TempDir())
	TempDir string

	// Timeout bounds archive downloads and git clones
	Timeout time.Duration

	// Progress receives clone progress output (optional)
	Progress io.Writer
}

// New returns the fetcher for the variant set in src.
func New(src manifest.Source, opts *Options) (Fetcher, error) {
	switch {
	case src.Git != nil:
		g, err := FromSource(src)
		if err != nil {
			return nil, err
		}
		g.applyOptions(opts)
		return g, nil
	case src.Archive != nil:
		a, err := ArchiveFromSource(src)
		if err != nil {
			return nil, err
		}
		a.applyOptions(opts)
		return a, nil
	}
	return nil, ErrUnsupportedSource
}

// Checkout is a fetched source tree. It exclusively owns Dir.
type Checkout struct {
	// Dir is the root of the source tree
	Dir string

	// Revision identifies what was fetched (commit hash or archive digest)
	Revision string
}

// Close removes the checkout directory. It is safe to call more than once.
func (c *Checkout) Close() error {
	if c == nil || c.Dir == "" {
		return nil
	}
	dir := c.Dir
	c.Dir = ""
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing checkout %s: %w", dir, err)
	}
	return nil
}

// newCheckout allocates an empty checkout directory
func newCheckout(parent string) (*Checkout, error) {
	dir, err := os.MkdirTemp(parent, "reponere-src-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	return &Checkout{Dir: dir}, nil
}
