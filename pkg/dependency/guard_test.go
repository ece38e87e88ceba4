// pkg/dependency/guard_test.go
package dependency

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/reponere/pkg/backend"
)

func TestGuard_ReleasesOnFailure(t *testing.T) {
	b := backend.NewMemoryBackend().
		WithInstalled("temp", "1.0").
		WithInstalled("keep", "2.0")

	build := func() (err error) {
		guard := NewGuard(b, []string{"temp"})
		defer guard.Release(context.Background())
		return errors.New("build step failed")
	}

	require.Error(t, build())
	assert.False(t, b.IsInstalled("temp"))
	assert.True(t, b.IsInstalled("keep"))
}

func TestGuard_ReleasesOnPanic(t *testing.T) {
	b := backend.NewMemoryBackend().WithInstalled("temp", "1.0")

	assert.Panics(t, func() {
		guard := NewGuard(b, []string{"temp"})
		defer guard.Release(context.Background())
		panic("boom")
	})
	assert.False(t, b.IsInstalled("temp"))
}

func TestGuard_ReleaseOnce(t *testing.T) {
	b := backend.NewMemoryBackend().WithInstalled("temp", "1.0")
	guard := NewGuard(b, []string{"temp"})

	guard.Release(context.Background())
	guard.Release(context.Background())

	assert.Equal(t, []backend.Call{{Op: "uninstall", Package: "temp"}}, b.Calls())
	assert.Empty(t, guard.Tracked())
}

func TestGuard_SwallowsUninstallErrors(t *testing.T) {
	b := backend.NewMemoryBackend().
		WithInstalled("a", "1").
		WithInstalled("b", "1").
		FailOn("uninstall", "a", errors.New("locked"))

	NewGuard(b, []string{"a", "b"}).Release(context.Background())

	assert.True(t, b.IsInstalled("a"))
	assert.False(t, b.IsInstalled("b"))
}

func TestGuard_IgnoresCancellation(t *testing.T) {
	b := backend.NewMemoryBackend().WithInstalled("temp", "1.0")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	NewGuard(b, []string{"temp"}).Release(ctx)
	assert.False(t, b.IsInstalled("temp"))
}

func TestGuard_CopiesInput(t *testing.T) {
	installed := []string{"temp"}
	guard := NewGuard(backend.NewMemoryBackend(), installed)
	installed[0] = "other"

	assert.Equal(t, []string{"temp"}, guard.Tracked())
}
