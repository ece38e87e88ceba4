// pkg/source/archive_test.go
package source

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/arc-language/reponere/pkg/manifest"
)

type tarEntry struct {
	name     string
	body     string
	linkname string
	dir      bool
}

var sourceTree = []tarEntry{
	{name: "pkg-1.0/", dir: true},
	{name: "pkg-1.0/configure", body: "#!/bin/sh\n"},
	{name: "pkg-1.0/src/main.c", body: "int main() { return 0; }\n"},
	{name: "pkg-1.0/link", linkname: "configure"},
}

func makeTar(t *testing.T, entries []tarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		h := &tar.Header{Name: e.name, Mode: 0o644, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		switch {
		case e.dir:
			h.Typeflag, h.Mode, h.Size = tar.TypeDir, 0o755, 0
		case e.linkname != "":
			h.Typeflag, h.Linkname, h.Size = tar.TypeSymlink, e.linkname, 0
		}
		require.NoError(t, tw.WriteHeader(h))
		if h.Typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func compress(t *testing.T, ext string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	var err error
	switch ext {
	case ".tar":
		return data
	case ".tar.gz", ".tgz":
		w = gzip.NewWriter(&buf)
	case ".tar.xz":
		w, err = xz.NewWriter(&buf)
	case ".tar.zst":
		w, err = zstd.NewWriter(&buf)
	default:
		t.Fatalf("unknown extension %s", ext)
	}
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func writeArchive(t *testing.T, ext string, entries []tarEntry) (string, string) {
	t.Helper()
	data := compress(t, ext, makeTar(t, entries))
	path := filepath.Join(t.TempDir(), "pkg-1.0"+ext)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	sum := sha256.Sum256(data)
	return path, hex.EncodeToString(sum[:])
}

func fetchArchive(t *testing.T, src manifest.ArchiveSource) (*Checkout, error) {
	t.Helper()
	f, err := New(manifest.Source{Archive: &src}, &Options{TempDir: t.TempDir()})
	require.NoError(t, err)
	return f.Fetch(context.Background())
}

func TestArchiveFetch_Formats(t *testing.T) {
	for _, ext := range []string{".tar", ".tar.gz", ".tgz", ".tar.xz", ".tar.zst"} {
		t.Run(ext, func(t *testing.T) {
			path, sum := writeArchive(t, ext, sourceTree)

			checkout, err := fetchArchive(t, manifest.ArchiveSource{URL: path, SHA256: sum, StripComponents: 1})
			require.NoError(t, err)
			defer checkout.Close()

			assert.Equal(t, "sha256:"+sum, checkout.Revision)
			got, err := os.ReadFile(filepath.Join(checkout.Dir, "src", "main.c"))
			require.NoError(t, err)
			assert.Equal(t, "int main() { return 0; }\n", string(got))

			link, err := os.Readlink(filepath.Join(checkout.Dir, "link"))
			require.NoError(t, err)
			assert.Equal(t, "configure", link)
		})
	}
}

func TestArchiveFetch_NoStrip(t *testing.T) {
	path, _ := writeArchive(t, ".tar.gz", sourceTree)

	checkout, err := fetchArchive(t, manifest.ArchiveSource{URL: "file://" + path})
	require.NoError(t, err)
	defer checkout.Close()

	assert.FileExists(t, filepath.Join(checkout.Dir, "pkg-1.0", "configure"))
}

func TestArchiveFetch_ChecksumMismatch(t *testing.T) {
	path, _ := writeArchive(t, ".tar.gz", sourceTree)
	parent := t.TempDir()

	f, err := New(manifest.Source{Archive: &manifest.ArchiveSource{URL: path, SHA256: "00"}}, &Options{TempDir: parent})
	require.NoError(t, err)
	_, err = f.Fetch(context.Background())
	require.ErrorIs(t, err, ErrChecksumMismatch)

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestArchiveFetch_RejectsTraversal(t *testing.T) {
	tests := []struct {
		name    string
		entries []tarEntry
	}{
		{name: "absolute symlink", entries: []tarEntry{{name: "evil", linkname: "/etc/passwd"}}},
		{name: "escaping symlink", entries: []tarEntry{{name: "a/evil", linkname: "../../outside"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, _ := writeArchive(t, ".tar", tt.entries)
			_, err := fetchArchive(t, manifest.ArchiveSource{URL: path})
			require.ErrorIs(t, err, ErrUnsafePath)
		})
	}
}

func TestArchiveFetch_RejectsSymlinkChain(t *testing.T) {
	// each link looks harmless on its own; together they reach the parent
	path, _ := writeArchive(t, ".tar", []tarEntry{
		{name: "d/", dir: true},
		{name: "d/l", linkname: ".."},
		{name: "d/l/l2", linkname: ".."},
		{name: "d/l/l2/escaped.txt", body: "x"},
	})
	parent := t.TempDir()

	f, err := New(manifest.Source{Archive: &manifest.ArchiveSource{URL: path}}, &Options{TempDir: parent})
	require.NoError(t, err)
	_, err = f.Fetch(context.Background())
	require.ErrorIs(t, err, ErrUnsafePath)

	assert.NoFileExists(t, filepath.Join(parent, "escaped.txt"))
	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestArchiveFetch_RegularFileReplacesLink(t *testing.T) {
	path, _ := writeArchive(t, ".tar", []tarEntry{
		{name: "configure", body: "#!/bin/sh\n"},
		{name: "alias", linkname: "configure"},
		{name: "alias", body: "replaced\n"},
	})

	checkout, err := fetchArchive(t, manifest.ArchiveSource{URL: path})
	require.NoError(t, err)
	defer checkout.Close()

	got, err := os.ReadFile(filepath.Join(checkout.Dir, "configure"))
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\n", string(got))

	fi, err := os.Lstat(filepath.Join(checkout.Dir, "alias"))
	require.NoError(t, err)
	assert.True(t, fi.Mode().IsRegular())
}

func TestArchiveFetch_DotDotNamesStayInside(t *testing.T) {
	path, _ := writeArchive(t, ".tar", []tarEntry{{name: "../../escaped.txt", body: "x"}})

	checkout, err := fetchArchive(t, manifest.ArchiveSource{URL: path})
	require.NoError(t, err)
	defer checkout.Close()

	assert.FileExists(t, filepath.Join(checkout.Dir, "escaped.txt"))
}

func TestArchiveFetch_UnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pkg.zip")
	require.NoError(t, os.WriteFile(path, []byte("PK"), 0o644))

	_, err := fetchArchive(t, manifest.ArchiveSource{URL: path})
	require.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestArchiveFetch_HTTP(t *testing.T) {
	data := compress(t, ".tar.gz", makeTar(t, sourceTree))
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.UserAgent()
		if r.URL.Path != "/pkg-1.0.tar.gz" {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	checkout, err := fetchArchive(t, manifest.ArchiveSource{URL: srv.URL + "/pkg-1.0.tar.gz", StripComponents: 1})
	require.NoError(t, err)
	defer checkout.Close()
	assert.FileExists(t, filepath.Join(checkout.Dir, "configure"))
	assert.Equal(t, userAgent, gotAgent)

	_, err = fetchArchive(t, manifest.ArchiveSource{URL: srv.URL + "/missing.tar.gz"})
	require.ErrorContains(t, err, "unexpected status 404")
}

func TestArchiveFromSource(t *testing.T) {
	_, err := ArchiveFromSource(manifest.Source{Git: &manifest.GitSource{Repo: "r"}})
	require.ErrorIs(t, err, ErrUnsupportedSource)

	var specErr *InvalidSpecificationError
	_, err = ArchiveFromSource(manifest.Source{Archive: &manifest.ArchiveSource{URL: "x.tar", StripComponents: -1}})
	require.ErrorAs(t, err, &specErr)

	a, err := ArchiveFromSource(manifest.Source{Archive: &manifest.ArchiveSource{URL: "x.tar", SHA256: "ABCD"}})
	require.NoError(t, err)
	assert.Equal(t, "abcd", a.SHA256)
}

func TestStripComponents(t *testing.T) {
	tests := []struct {
		name  string
		strip int
		want  string
		ok    bool
	}{
		{name: "a/b/c", strip: 0, want: "a/b/c", ok: true},
		{name: "a/b/c", strip: 1, want: "b/c", ok: true},
		{name: "a/", strip: 1, ok: false},
		{name: "./a/b", strip: 1, want: "b", ok: true},
		{name: "a/b", strip: 3, ok: false},
	}
	for _, tt := range tests {
		got, ok := stripComponents(tt.name, tt.strip)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}
