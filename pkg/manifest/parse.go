// pkg/manifest/parse.go
package manifest

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidSource indicates a source block that sets no or several variants
	ErrInvalidSource = errors.New("invalid source")

	// ErrMissingField indicates a required descriptor field is empty
	ErrMissingField = errors.New("missing required field")
)

// Load reads and validates a package descriptor file
func Load(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading descriptor: %w", err)
	}

	pkg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pkg, nil
}

// Parse decodes and validates a YAML package descriptor
func Parse(data []byte) (*Package, error) {
	var pkg Package
	if err := yaml.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parsing descriptor: %w", err)
	}
	if err := pkg.Validate(); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// Validate checks the fields every descriptor needs. It does not check that
// a git source names a single ref; that is up to the source resolver.
func (p *Package) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name", ErrMissingField)
	}
	if p.Version == "" {
		return fmt.Errorf("%w: version", ErrMissingField)
	}

	switch {
	case p.Source.Git != nil && p.Source.Archive != nil:
		return fmt.Errorf("%w: both git and archive are set", ErrInvalidSource)
	case p.Source.Git != nil:
		if p.Source.Git.Repo == "" {
			return fmt.Errorf("%w: source.repo", ErrMissingField)
		}
	case p.Source.Archive != nil:
		if p.Source.Archive.URL == "" {
			return fmt.Errorf("%w: source.url", ErrMissingField)
		}
		if p.Source.Archive.StripComponents < 0 {
			return fmt.Errorf("%w: negative strip_components", ErrInvalidSource)
		}
	default:
		return fmt.Errorf("%w: source", ErrMissingField)
	}

	for i, d := range p.Dependencies.Runtime {
		if d.Name == "" {
			return fmt.Errorf("%w: dependencies.runtime[%d].name", ErrMissingField, i)
		}
	}
	for i, d := range p.Dependencies.Build {
		if d.Name == "" {
			return fmt.Errorf("%w: dependencies.build[%d].name", ErrMissingField, i)
		}
	}
	return nil
}

// UnmarshalYAML accepts the flat form {repo, tag, branch, commit} as well as
// the tagged forms {git: {...}} and {archive: {...}}.
func (s *Source) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		GitSource `yaml:",inline"`
		Git       *GitSource     `yaml:"git"`
		GitTitle  *GitSource     `yaml:"Git"`
		Archive   *ArchiveSource `yaml:"archive"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	var variants []string
	*s = Source{}
	if raw.Git != nil {
		s.Git = raw.Git
		variants = append(variants, "git")
	}
	if raw.GitTitle != nil {
		s.Git = raw.GitTitle
		variants = append(variants, "Git")
	}
	if raw.GitSource != (GitSource{}) {
		flat := raw.GitSource
		s.Git = &flat
		variants = append(variants, "repo")
	}
	if raw.Archive != nil {
		s.Archive = raw.Archive
		variants = append(variants, "archive")
	}

	if len(variants) > 1 {
		return fmt.Errorf("line %d: %w: only one of %v may be set", node.Line, ErrInvalidSource, variants)
	}
	return nil
}

// MarshalYAML writes the tagged form
func (s Source) MarshalYAML() (interface{}, error) {
	switch {
	case s.Git != nil:
		return map[string]*GitSource{"git": s.Git}, nil
	case s.Archive != nil:
		return map[string]*ArchiveSource{"archive": s.Archive}, nil
	}
	return map[string]string{}, nil
}
