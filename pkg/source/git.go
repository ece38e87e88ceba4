// pkg/source/git.go
package source

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/samber/lo"

	"github.com/arc-language/reponere/pkg/manifest"
)

// Git is a validated git source with at most one ref specifier set.
type Git struct {
	Repo   string
	Tag    string
	Branch string
	Commit string

	tempDir  string
	progress io.Writer
	timeout  time.Duration
}

// FromSource validates a git source descriptor
func FromSource(src manifest.Source) (*Git, error) {
	if src.Git == nil {
		return nil, ErrUnsupportedSource
	}
	g := src.Git

	refs := lo.Count([]bool{g.Commit != "", g.Tag != "", g.Branch != ""}, true)
	if refs > 1 {
		return nil, &InvalidSpecificationError{
			Reason: "only one of commit, tag, or branch may be specified",
		}
	}

	return &Git{
		Repo:   g.Repo,
		Tag:    g.Tag,
		Branch: g.Branch,
		Commit: g.Commit,
	}, nil
}

func (g *Git) applyOptions(opts *Options) {
	if opts == nil {
		return
	}
	g.tempDir = opts.TempDir
	g.progress = opts.Progress
	g.timeout = opts.Timeout
}

// Fetch clones the repository into a new checkout directory and force-checks
// out the requested ref. On failure the directory is removed.
func (g *Git) Fetch(ctx context.Context) (_ *Checkout, err error) {
	log := clog.FromContext(ctx)

	checkout, err := newCheckout(g.tempDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			checkout.Close()
		}
	}()

	cloneCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		cloneCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	log.Infof("cloning %s", g.Repo)
	repo, err := git.PlainCloneContext(cloneCtx, checkout.Dir, false, &git.CloneOptions{
		URL:      g.Repo,
		Progress: g.progress,
	})
	if err != nil {
		return nil, fmt.Errorf("cloning %s: %w", g.Repo, err)
	}

	hash, err := g.checkout(repo)
	if err != nil {
		return nil, err
	}
	checkout.Revision = hash.String()

	log.Infof("checked out %s at %s", g.Repo, hash)
	return checkout, nil
}

// checkout resolves the target revision and force-checks it out.
func (g *Git) checkout(repo *git.Repository) (plumbing.Hash, error) {
	hash, err := g.target(repo)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("opening worktree: %w", err)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("checking out %s: %w", hash, err)
	}
	return hash, nil
}

// target resolves the checkout target. Priority: commit, tag, branch, HEAD.
func (g *Git) target(repo *git.Repository) (plumbing.Hash, error) {
	switch {
	case g.Commit != "":
		return resolve(repo, g.Commit)
	case g.Tag != "":
		return resolve(repo, "refs/tags/"+g.Tag)
	case g.Branch != "":
		// a fresh clone only has a local branch for the remote HEAD
		if h, err := resolve(repo, "refs/remotes/origin/"+g.Branch); err == nil {
			return h, nil
		}
		return resolve(repo, "refs/heads/"+g.Branch)
	default:
		head, err := repo.Head()
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("resolving HEAD: %w", err)
		}
		return head.Hash(), nil
	}
}

func resolve(repo *git.Repository, rev string) (plumbing.Hash, error) {
	h, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolving %s: %w", rev, err)
	}
	return *h, nil
}
