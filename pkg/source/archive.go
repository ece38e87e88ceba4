// pkg/source/archive.go
package source

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/arc-language/reponere/pkg/manifest"
)

var (
	// ErrChecksumMismatch indicates a downloaded archive does not match its sha256
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrUnsafePath indicates an archive entry that would escape the checkout
	ErrUnsafePath = errors.New("unsafe path in archive")
)

// Archive is a source tarball fetched from a URL or a local path.
type Archive struct {
	URL             string
	SHA256          string
	StripComponents int

	tempDir string
	client  *Client
}

// ArchiveFromSource validates an archive source descriptor
func ArchiveFromSource(src manifest.Source) (*Archive, error) {
	if src.Archive == nil {
		return nil, ErrUnsupportedSource
	}
	a := src.Archive
	if a.StripComponents < 0 {
		return nil, &InvalidSpecificationError{Reason: "strip_components must not be negative"}
	}
	return &Archive{
		URL:             a.URL,
		SHA256:          strings.ToLower(a.SHA256),
		StripComponents: a.StripComponents,
		client:          NewClient(),
	}, nil
}

func (a *Archive) applyOptions(opts *Options) {
	if opts == nil {
		return
	}
	a.tempDir = opts.TempDir
	if opts.Timeout > 0 {
		a.client = NewClientWithTimeout(opts.Timeout)
	}
}

// Fetch downloads the archive, checks its digest and unpacks it into a new
// checkout directory. On failure the directory is removed.
func (a *Archive) Fetch(ctx context.Context) (_ *Checkout, err error) {
	log := clog.FromContext(ctx)

	checkout, err := newCheckout(a.tempDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			checkout.Close()
		}
	}()

	// keep the download outside the tree handed to build steps
	blob, err := os.CreateTemp(a.tempDir, "reponere-archive-*")
	if err != nil {
		return nil, fmt.Errorf("creating download file: %w", err)
	}
	defer func() {
		blob.Close()
		os.Remove(blob.Name())
	}()

	log.Infof("fetching %s", a.URL)
	hasher := sha256.New()
	if err := a.copyTo(ctx, io.MultiWriter(blob, hasher)); err != nil {
		return nil, err
	}
	digest := hex.EncodeToString(hasher.Sum(nil))
	if a.SHA256 != "" && digest != a.SHA256 {
		return nil, fmt.Errorf("%w: want %s, got %s", ErrChecksumMismatch, a.SHA256, digest)
	}

	if _, err := blob.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding archive: %w", err)
	}
	r, err := decompress(a.URL, blob)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if err := extractTar(r, checkout.Dir, a.StripComponents); err != nil {
		return nil, fmt.Errorf("extracting %s: %w", a.URL, err)
	}

	checkout.Revision = "sha256:" + digest
	log.Infof("unpacked %s (%s)", a.URL, checkout.Revision)
	return checkout, nil
}

// copyTo writes the raw archive bytes to w
func (a *Archive) copyTo(ctx context.Context, w io.Writer) error {
	if isRemote(a.URL) {
		if _, err := a.client.Download(ctx, a.URL, w); err != nil {
			return fmt.Errorf("downloading %s: %w", a.URL, err)
		}
		return nil
	}

	f, err := os.Open(strings.TrimPrefix(a.URL, "file://"))
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	return nil
}

func isRemote(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// decompress picks a decoder from the archive name
func decompress(name string, r io.Reader) (io.ReadCloser, error) {
	name = strings.ToLower(name)
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip init: %w", err)
		}
		return gz, nil
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("xz init: %w", err)
		}
		return io.NopCloser(xr), nil
	case strings.HasSuffix(name, ".tar.zst"), strings.HasSuffix(name, ".tzst"):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd init: %w", err)
		}
		return zr.IOReadCloser(), nil
	case strings.HasSuffix(name, ".tar"):
		return io.NopCloser(r), nil
	}
	return nil, fmt.Errorf("%w: unknown archive format %q", ErrUnsupportedSource, path.Base(name))
}

// extractTar unpacks a tar stream into dest, dropping the first strip
// path components of every entry.
func extractTar(r io.Reader, dest string, strip int) error {
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		name, ok := stripComponents(header.Name, strip)
		if !ok {
			continue
		}
		target, err := safeJoin(dest, name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := checkResolved(dest, target); err != nil {
				return err
			}
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := checkResolved(dest, filepath.Dir(target)); err != nil {
				return err
			}
			if err := writeFile(target, tr, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(header.Linkname) {
				return fmt.Errorf("%w: %s -> %s", ErrUnsafePath, header.Name, header.Linkname)
			}
			if _, err := safeJoin(dest, path.Join(path.Dir(name), header.Linkname)); err != nil {
				return err
			}
			if err := checkResolved(dest, filepath.Dir(target)); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			// The lexical check above misses parents that are themselves links,
			// so resolve the link again from where it lands on disk.
			if err := checkLink(dest, filepath.Dir(target), header.Linkname); err != nil {
				return fmt.Errorf("%s -> %s: %w", header.Name, header.Linkname, err)
			}
			os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return err
			}
		}
	}
}

// checkResolved rejects p when its deepest existing ancestor resolves,
// through symlinks already extracted, to somewhere outside root.
func checkResolved(root, p string) error {
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return err
	}

	existing := p
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		if existing == root {
			return nil
		}
		next := filepath.Dir(existing)
		if next == existing {
			return nil
		}
		existing = next
	}

	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnsafePath, p)
	}
	if !within(realRoot, resolved) {
		return fmt.Errorf("%w: %s", ErrUnsafePath, p)
	}
	return nil
}

// checkLink rejects a link target that leaves root when followed from parent
func checkLink(root, parent, linkname string) error {
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return err
	}
	realParent, err := filepath.EvalSymlinks(parent)
	if err != nil {
		return err
	}
	if !within(realRoot, filepath.Join(realParent, filepath.FromSlash(linkname))) {
		return ErrUnsafePath
	}
	return nil
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	// never write through a link left by an earlier entry
	if fi, err := os.Lstat(target); err == nil && fi.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(target); err != nil {
			return err
		}
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// stripComponents drops the leading n path elements. Entries that have
// nothing left are skipped.
func stripComponents(name string, n int) (string, bool) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" {
		return "", false
	}
	parts := strings.Split(name, "/")
	if len(parts) <= n {
		return "", false
	}
	return strings.Join(parts[n:], "/"), true
}

// safeJoin joins name under root and rejects results outside root
func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	if !within(root, target) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
