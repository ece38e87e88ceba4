// pkg/index/sync.go

// Package index keeps the local dependency-name registry in sync with its
// upstream git repository.
package index

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chainguard-dev/clog"

	"github.com/arc-language/reponere/pkg/manifest"
	"github.com/arc-language/reponere/pkg/source"
)

const (
	RepoURL    = "https://github.com/arc-language/reponere-index"
	RepoBranch = "main"
)

// Options selects the registry repository and where it is installed
type Options struct {
	// URL of the index repository (default: RepoURL)
	URL string

	// Branch to sync (default: RepoBranch)
	Branch string

	// DepsDir receives the repository's deps/ tree
	DepsDir string

	// Progress receives clone progress output (optional)
	Progress io.Writer
}

// Sync clones the index repository and replaces DepsDir with its deps/ tree.
// It returns the synced revision.
func Sync(ctx context.Context, opts Options) (string, error) {
	log := clog.FromContext(ctx)

	if opts.URL == "" {
		opts.URL = RepoURL
	}
	if opts.Branch == "" {
		opts.Branch = RepoBranch
	}
	if opts.DepsDir == "" {
		return "", fmt.Errorf("sync: no deps directory configured")
	}

	fetcher, err := source.New(manifest.Source{Git: &manifest.GitSource{
		Repo:   opts.URL,
		Branch: opts.Branch,
	}}, &source.Options{Progress: opts.Progress})
	if err != nil {
		return "", err
	}

	log.Infof("updating package index from %s", opts.URL)
	checkout, err := fetcher.Fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching index: %w", err)
	}
	defer checkout.Close()

	if err := install(filepath.Join(checkout.Dir, "deps"), opts.DepsDir); err != nil {
		return "", fmt.Errorf("installing deps registry: %w", err)
	}

	log.Infof("package index updated to %s", checkout.Revision)
	return checkout.Revision, nil
}

// install copies src next to dst and swaps it into place
func install(src, dst string) error {
	if _, err := os.Stat(src); err != nil {
		return err
	}

	staging := dst + ".new"
	os.RemoveAll(staging)
	if err := copyDir(src, staging); err != nil {
		os.RemoveAll(staging)
		return err
	}

	if err := os.RemoveAll(dst); err != nil {
		os.RemoveAll(staging)
		return err
	}
	return os.Rename(staging, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func copyDir(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
		} else if entry.Type().IsRegular() {
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}

	return nil
}
