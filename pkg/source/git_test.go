// pkg/source/git_test.go
package source

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/reponere/pkg/manifest"
)

// fixtureRepo is a repository with three commits:
//
//	first  <- tag v1.0.0
//	second <- branch feature
//	third  <- master (HEAD)
type fixtureRepo struct {
	dir                  string
	repo                 *git.Repository
	first, second, third plumbing.Hash
}

func newFixtureRepo(t *testing.T) *fixtureRepo {
	t.Helper()
	dir := t.TempDir()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)

	commit := func(name, content string) plumbing.Hash {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
		_, err := wt.Add(name)
		require.NoError(t, err)
		h, err := wt.Commit("add "+name, &git.CommitOptions{
			Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
		})
		require.NoError(t, err)
		return h
	}

	f := &fixtureRepo{dir: dir, repo: repo}
	f.first = commit("first.txt", "1")
	_, err = repo.CreateTag("v1.0.0", f.first, nil)
	require.NoError(t, err)

	f.second = commit("second.txt", "2")
	require.NoError(t, repo.Storer.SetReference(
		plumbing.NewHashReference(plumbing.NewBranchReferenceName("feature"), f.second)))

	f.third = commit("third.txt", "3")
	return f
}

func gitSource(src manifest.GitSource) manifest.Source {
	return manifest.Source{Git: &src}
}

func TestFromSource(t *testing.T) {
	tests := []struct {
		name    string
		src     manifest.GitSource
		wantErr bool
	}{
		{name: "no ref", src: manifest.GitSource{Repo: "r"}},
		{name: "tag", src: manifest.GitSource{Repo: "r", Tag: "v1"}},
		{name: "branch", src: manifest.GitSource{Repo: "r", Branch: "main"}},
		{name: "commit", src: manifest.GitSource{Repo: "r", Commit: "abc"}},
		{name: "tag and branch", src: manifest.GitSource{Repo: "r", Tag: "v1", Branch: "main"}, wantErr: true},
		{name: "commit and tag", src: manifest.GitSource{Repo: "r", Tag: "v1", Commit: "abc"}, wantErr: true},
		{name: "all three", src: manifest.GitSource{Repo: "r", Tag: "v1", Branch: "main", Commit: "abc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := FromSource(gitSource(tt.src))
			if tt.wantErr {
				var specErr *InvalidSpecificationError
				require.ErrorAs(t, err, &specErr)
				assert.Equal(t, "only one of commit, tag, or branch may be specified", specErr.Reason)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.src.Repo, g.Repo)
			assert.Equal(t, tt.src.Tag, g.Tag)
			assert.Equal(t, tt.src.Branch, g.Branch)
			assert.Equal(t, tt.src.Commit, g.Commit)
		})
	}
}

func TestFromSource_NotGit(t *testing.T) {
	_, err := FromSource(manifest.Source{Archive: &manifest.ArchiveSource{URL: "x.tar"}})
	require.ErrorIs(t, err, ErrUnsupportedSource)

	_, err = New(manifest.Source{}, nil)
	require.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestGitTarget(t *testing.T) {
	f := newFixtureRepo(t)

	tests := []struct {
		name string
		git  Git
		want plumbing.Hash
	}{
		{name: "head", git: Git{}, want: f.third},
		{name: "tag", git: Git{Tag: "v1.0.0"}, want: f.first},
		{name: "local branch", git: Git{Branch: "feature"}, want: f.second},
		{name: "commit", git: Git{Commit: f.second.String()}, want: f.second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.git.target(f.repo)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := (&Git{Tag: "v9"}).target(f.repo)
	require.Error(t, err)
}

func TestGitTarget_RemoteBranchPreferred(t *testing.T) {
	f := newFixtureRepo(t)
	require.NoError(t, f.repo.Storer.SetReference(
		plumbing.NewHashReference(plumbing.NewRemoteReferenceName("origin", "feature"), f.first)))

	got, err := (&Git{Branch: "feature"}).target(f.repo)
	require.NoError(t, err)
	assert.Equal(t, f.first, got)
}

func TestGitCheckout_Force(t *testing.T) {
	f := newFixtureRepo(t)

	// a dirty worktree must not block the checkout
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "third.txt"), []byte("dirty"), 0o644))

	hash, err := (&Git{Tag: "v1.0.0"}).checkout(f.repo)
	require.NoError(t, err)
	assert.Equal(t, f.first, hash)

	assert.FileExists(t, filepath.Join(f.dir, "first.txt"))
	assert.NoFileExists(t, filepath.Join(f.dir, "second.txt"))
}

func TestGitFetch(t *testing.T) {
	if _, err := exec.LookPath("git-upload-pack"); err != nil {
		t.Skip("git-upload-pack not available for local clones")
	}
	f := newFixtureRepo(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		src     manifest.GitSource
		want    plumbing.Hash
		present string
		absent  string
	}{
		{name: "default branch", src: manifest.GitSource{Repo: f.dir}, want: f.third, present: "third.txt"},
		{name: "tag", src: manifest.GitSource{Repo: f.dir, Tag: "v1.0.0"}, want: f.first, present: "first.txt", absent: "second.txt"},
		{name: "branch", src: manifest.GitSource{Repo: f.dir, Branch: "feature"}, want: f.second, present: "second.txt", absent: "third.txt"},
		{name: "commit", src: manifest.GitSource{Repo: f.dir, Commit: f.first.String()}, want: f.first, present: "first.txt", absent: "second.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher, err := New(gitSource(tt.src), &Options{TempDir: t.TempDir()})
			require.NoError(t, err)

			checkout, err := fetcher.Fetch(ctx)
			require.NoError(t, err)
			dir := checkout.Dir

			assert.Equal(t, tt.want.String(), checkout.Revision)
			assert.FileExists(t, filepath.Join(dir, tt.present))
			if tt.absent != "" {
				assert.NoFileExists(t, filepath.Join(dir, tt.absent))
			}

			require.NoError(t, checkout.Close())
			assert.NoDirExists(t, dir)
			require.NoError(t, checkout.Close())
		})
	}
}

func TestGitFetch_Failure(t *testing.T) {
	parent := t.TempDir()
	g, err := New(gitSource(manifest.GitSource{Repo: filepath.Join(parent, "missing")}), &Options{TempDir: parent})
	require.NoError(t, err)

	_, err = g.Fetch(context.Background())
	require.Error(t, err)

	// nothing left behind besides the parent itself
	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCheckoutClose_Nil(t *testing.T) {
	var c *Checkout
	assert.NoError(t, c.Close())
}
