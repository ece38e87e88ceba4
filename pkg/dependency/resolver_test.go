// pkg/dependency/resolver_test.go
package dependency

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/reponere/pkg/backend"
	"github.com/arc-language/reponere/pkg/manifest"
)

var errBoom = errors.New("boom")

func TestNeedsInstall(t *testing.T) {
	tests := []struct {
		name     string
		backend  *backend.MemoryBackend
		dep      manifest.Dependency
		want     bool
		wantKind []Kind
	}{
		{
			name:    "installed and satisfying",
			backend: backend.NewMemoryBackend().WithInstalled("cmake", "3.28.1"),
			dep:     manifest.Dependency{Name: "cmake", VersionReq: ">=3.20"},
			want:    false,
		},
		{
			name:    "installed without requirement",
			backend: backend.NewMemoryBackend().WithInstalled("cmake", "3.28.1"),
			dep:     manifest.Dependency{Name: "cmake"},
			want:    false,
		},
		{
			name:    "installed but too old",
			backend: backend.NewMemoryBackend().WithInstalled("cmake", "3.10").WithAvailable("cmake", "3.28"),
			dep:     manifest.Dependency{Name: "cmake", VersionReq: ">=3.20"},
			want:    true,
		},
		{
			name:    "installed version unparsable",
			backend: backend.NewMemoryBackend().WithInstalled("cmake", "weird"),
			dep:     manifest.Dependency{Name: "cmake", VersionReq: ">=3.20"},
			want:    true,
		},
		{
			name:    "available and satisfying",
			backend: backend.NewMemoryBackend().WithAvailable("make", "4.4.1"),
			dep:     manifest.Dependency{Name: "make", VersionReq: ">=4.0"},
			want:    true,
		},
		{
			name:    "available but not satisfying",
			backend: backend.NewMemoryBackend().WithAvailable("make", "3.82"),
			dep:     manifest.Dependency{Name: "make", VersionReq: ">=4.0"},
			want:    false,
		},
		{
			name:     "neither installed nor available",
			backend:  backend.NewMemoryBackend(),
			dep:      manifest.Dependency{Name: "ghost"},
			want:     false,
			wantKind: []Kind{AvailableVersionCheckFailed},
		},
		{
			name:     "installed query fails",
			backend:  backend.NewMemoryBackend().WithAvailable("x", "1.0").FailOn("installed", "x", errBoom),
			dep:      manifest.Dependency{Name: "x"},
			want:     false,
			wantKind: []Kind{InstalledVersionCheckFailed},
		},
		{
			name:     "available query fails",
			backend:  backend.NewMemoryBackend().FailOn("available", "x", errBoom),
			dep:      manifest.Dependency{Name: "x"},
			want:     false,
			wantKind: []Kind{AvailableVersionCheckFailed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := &Result{}
			got := NewResolver(tt.backend).NeedsInstall(context.Background(), tt.dep, res)
			assert.Equal(t, tt.want, got)

			var kinds []Kind
			for _, e := range res.Errors {
				kinds = append(kinds, e.Kind)
			}
			assert.Equal(t, tt.wantKind, kinds)
		})
	}
}

func TestNeedsInstall_NotFoundWrapsSentinel(t *testing.T) {
	res := &Result{}
	NewResolver(backend.NewMemoryBackend()).NeedsInstall(context.Background(), manifest.Dependency{Name: "ghost"}, res)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "ghost", res.Errors[0].Dependency)
	assert.ErrorIs(t, res.Err(), backend.ErrNoVersionFound)
}

func TestNeedsInstall_NoQueriesAfterInstalledError(t *testing.T) {
	b := backend.NewMemoryBackend().FailOn("installed", "x", errBoom)
	NewResolver(b).NeedsInstall(context.Background(), manifest.Dependency{Name: "x"}, &Result{})

	assert.Equal(t, []backend.Call{{Op: "installed", Package: "x"}}, b.Calls())
}

func TestInstallBuild_PartialFailure(t *testing.T) {
	b := backend.NewMemoryBackend().
		WithAvailable("cmake", "3.28.1").
		WithAvailable("ninja", "1.11.1").
		FailOn("install", "ninja", errBoom)

	res := NewResolver(b).InstallBuild(context.Background(), []manifest.Dependency{
		{Name: "ninja"},
		{Name: "cmake", VersionReq: ">=3.20"},
	})

	assert.Equal(t, []string{"cmake"}, res.Installed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, InstallFailed, res.Errors[0].Kind)
	assert.Equal(t, "ninja", res.Errors[0].Dependency)
	assert.ErrorIs(t, res.Err(), backend.ErrFailedInstall)
	assert.ErrorIs(t, res.Err(), errBoom)
	assert.True(t, b.IsInstalled("cmake"))
}

func TestInstallRuntime(t *testing.T) {
	b := backend.NewMemoryBackend().
		WithInstalled("zlib", "1.3").
		WithAvailable("openssl", "3.2.1").
		WithAvailable("libfoo", "0.9")

	res := NewResolver(b).InstallRuntime(context.Background(), []manifest.Dependency{
		{Name: "zlib", VersionReq: ">=1.2"},
		{Name: "openssl", VersionReq: ">=3.0"},
		{Name: "libfoo", VersionReq: ">=1.0"},
		{Name: "missing"},
	})

	assert.Equal(t, []string{"openssl"}, res.Installed)
	assert.Equal(t, 1, res.Count(AvailableVersionCheckFailed))
	assert.Equal(t, 0, res.Count(InstallFailed))
	assert.False(t, b.IsInstalled("libfoo"))
}

func TestInstall_EmptyBatch(t *testing.T) {
	res := NewResolver(backend.NewMemoryBackend()).InstallBuild(context.Background(), nil)
	assert.Empty(t, res.Installed)
	assert.NoError(t, res.Err())
}

func TestErrorMessage(t *testing.T) {
	e := &Error{Kind: InstallFailed, Dependency: "cmake", Err: errBoom}
	assert.Equal(t, "cmake: install failed: boom", e.Error())
	assert.ErrorIs(t, e, errBoom)
}
