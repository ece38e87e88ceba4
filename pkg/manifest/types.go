// pkg/manifest/types.go
package manifest

import "github.com/arc-language/reponere/pkg/version"

// Package is a source package descriptor
type Package struct {
	Name         string       `yaml:"name" json:"name"`
	Version      string       `yaml:"version" json:"version"`
	Description  string       `yaml:"description,omitempty" json:"description,omitempty"`
	Source       Source       `yaml:"source" json:"source"`
	Dependencies Dependencies `yaml:"dependencies" json:"dependencies"`
	Build        *Build       `yaml:"build,omitempty" json:"build,omitempty"`
}

// Source describes where the package source comes from. Exactly one
// variant is set.
type Source struct {
	Git     *GitSource     `json:"git,omitempty"`
	Archive *ArchiveSource `json:"archive,omitempty"`
}

// GitSource is a git repository and at most one of Tag, Branch or Commit.
type GitSource struct {
	Repo   string `yaml:"repo" json:"repo"`
	Tag    string `yaml:"tag,omitempty" json:"tag,omitempty"`
	Branch string `yaml:"branch,omitempty" json:"branch,omitempty"`
	Commit string `yaml:"commit,omitempty" json:"commit,omitempty"`
}

// ArchiveSource is a source tarball fetched over HTTP(S) or from a local path
type ArchiveSource struct {
	URL             string `yaml:"url" json:"url"`
	SHA256          string `yaml:"sha256,omitempty" json:"sha256,omitempty"`
	StripComponents int    `yaml:"strip_components,omitempty" json:"strip_components,omitempty"`
}

// Dependencies splits dependencies by lifetime
type Dependencies struct {
	Runtime []Dependency `yaml:"runtime" json:"runtime"`
	Build   []Dependency `yaml:"build" json:"build"`
}

// Dependency names a host package and an optional version requirement
type Dependency struct {
	Name       string `yaml:"name" json:"name"`
	VersionReq string `yaml:"version_req,omitempty" json:"version_req,omitempty"`
}

// Satisfied reports whether v meets the dependency's requirement. A
// dependency without a requirement accepts any version.
func (d Dependency) Satisfied(v string) bool {
	if d.VersionReq == "" {
		return true
	}
	return version.ParseRequirement(d.VersionReq).Matches(v)
}

// Build holds the ordered shell steps that build and install the package
type Build struct {
	Steps []string `yaml:"steps" json:"steps"`
}

// InstalledPackage is the record kept for a package after a successful build
type InstalledPackage struct {
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	InstallPath  string       `json:"install_path"`
	Dependencies []Dependency `json:"dependencies"`
	Backend      string       `json:"backend,omitempty"`
	InstalledAt  string       `json:"installed_at,omitempty"`
}
