// pkg/env/env.go

// Package env derives the environment build steps run with from the install
// prefix, so packages built earlier into the same prefix are found by later
// builds.
package env

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// DefaultLayout is the conventional autotools/cmake prefix hierarchy
func DefaultLayout() PrefixLayout {
	return PrefixLayout{
		Libraries: []string{"lib", "lib64"},
		Includes:  []string{"include"},
		PkgConfig: []string{
			filepath.Join("lib", "pkgconfig"),
			filepath.Join("lib64", "pkgconfig"),
			filepath.Join("share", "pkgconfig"),
		},
		Binaries: []string{"bin"},
	}
}

// New creates an environment for installPath with the default layout
func New(installPath string) *Environment {
	return &Environment{InstallPath: installPath, Layout: DefaultLayout()}
}

// GetLibraryPaths returns the existing library directories
func (e *Environment) GetLibraryPaths() []string {
	return e.existing(e.Layout.Libraries)
}

// GetIncludePaths returns the existing include directories
func (e *Environment) GetIncludePaths() []string {
	return e.existing(e.Layout.Includes)
}

// GetPkgConfigPaths returns the existing pkg-config directories
func (e *Environment) GetPkgConfigPaths() []string {
	return e.existing(e.Layout.PkgConfig)
}

// GetBinaryPaths returns the existing binary directories
func (e *Environment) GetBinaryPaths() []string {
	return e.existing(e.Layout.Binaries)
}

// GetCompilerFlags returns -I and -L flags for the prefix
func (e *Environment) GetCompilerFlags() CompilerFlags {
	return CompilerFlags{
		IncludeFlags: lo.Map(e.GetIncludePaths(), func(p string, _ int) string { return "-I" + p }),
		LibraryFlags: lo.Map(e.GetLibraryPaths(), func(p string, _ int) string { return "-L" + p }),
	}
}

// Vars returns KEY=value entries for build steps. Prefix directories come
// before the values inherited from base, which is usually os.Environ().
// PREFIX is always set; search paths only list directories that exist.
func (e *Environment) Vars(base []string) []string {
	inherited := lookup(base)
	vars := []string{"PREFIX=" + e.InstallPath}

	prepend := func(key string, dirs []string, sep string) {
		if len(dirs) == 0 {
			return
		}
		value := strings.Join(dirs, sep)
		if old := inherited[key]; old != "" {
			value += sep + old
		}
		vars = append(vars, key+"="+value)
	}

	flags := e.GetCompilerFlags()
	list := string(os.PathListSeparator)
	prepend("PATH", e.GetBinaryPaths(), list)
	prepend("PKG_CONFIG_PATH", e.GetPkgConfigPaths(), list)
	prepend("LD_LIBRARY_PATH", e.GetLibraryPaths(), list)
	prepend("CPPFLAGS", flags.IncludeFlags, " ")
	prepend("LDFLAGS", flags.LibraryFlags, " ")
	return vars
}

func (e *Environment) existing(rel []string) []string {
	var dirs []string
	for _, r := range rel {
		dir := filepath.Join(e.InstallPath, r)
		if dirExists(dir) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func lookup(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			m[k] = v
		}
	}
	return m
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
