// pkg/env/types.go
package env

// PrefixLayout defines where files land under an install prefix
type PrefixLayout struct {
	Libraries []string // Relative paths to library directories
	Includes  []string // Relative paths to include directories
	PkgConfig []string // Relative paths to pkg-config directories
	Binaries  []string // Relative paths to binary directories
}

// Environment is the build environment of one install prefix
type Environment struct {
	InstallPath string // Root installation path (e.g., /usr/local)
	Layout      PrefixLayout
}

// CompilerFlags holds compiler and linker flags
type CompilerFlags struct {
	IncludeFlags []string // -I flags
	LibraryFlags []string // -L flags
}
