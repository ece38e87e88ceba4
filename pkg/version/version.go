// pkg/version/version.go
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	goversion "github.com/hashicorp/go-version"
)

var epochPattern = regexp.MustCompile(`^([0-9]+):`)

// Version is a package version as reported by a distribution package manager.
//
// The upstream part is compared component by component. Distribution
// packages append a release number after a dash ("3.28.1-1",
// "3.28.3-1build7", "3.28.2-1.fc40") which orders after the bare upstream
// version rather than before it like a semver pre-release would.
type Version struct {
	original string
	epoch    int
	upstream *goversion.Version
	release  string
}

// Parse parses a version string. It returns an error for anything that does
// not start with a numeric component.
func Parse(s string) (*Version, error) {
	original := s
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty version")
	}

	v := &Version{original: original}

	if m := epochPattern.FindStringSubmatch(s); m != nil {
		epoch, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, fmt.Errorf("parsing epoch of %q: %w", original, err)
		}
		v.epoch = epoch
		s = s[len(m[0]):]
	}

	// some versions use an underscore to separate the pre-release
	s = strings.ReplaceAll(s, "_", "")

	if idx := strings.IndexByte(s, '-'); idx > 0 && idx+1 < len(s) && isDigit(s[idx+1]) {
		v.release = s[idx+1:]
		s = s[:idx]
	}

	upstream, err := goversion.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("parsing version %q: %w", original, err)
	}
	v.upstream = upstream

	return v, nil
}

// Valid reports whether s parses as a version.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Compare returns -1, 0 or 1 depending on whether v sorts before, equal to or
// after other.
func (v *Version) Compare(other *Version) int {
	if v.epoch != other.epoch {
		if v.epoch < other.epoch {
			return -1
		}
		return 1
	}
	if c := v.upstream.Compare(other.upstream); c != 0 {
		return c
	}
	return compareRelease(v.release, other.release)
}

// String returns the version as it was given to Parse.
func (v *Version) String() string {
	return v.original
}

// compareRelease compares distribution release suffixes. Digit runs are
// compared numerically and everything else lexically, so "1build10" sorts
// after "1build9".
func compareRelease(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return -1
	case b == "":
		return 1
	}

	ra, rb := splitRuns(a), splitRuns(b)
	for i := 0; i < len(ra) && i < len(rb); i++ {
		if c := compareRun(ra[i], rb[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(ra) < len(rb):
		return -1
	case len(ra) > len(rb):
		return 1
	}
	return 0
}

func compareRun(a, b string) int {
	if isDigit(a[0]) && isDigit(b[0]) {
		na, errA := strconv.ParseUint(a, 10, 64)
		nb, errB := strconv.ParseUint(b, 10, 64)
		if errA == nil && errB == nil {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(a, b)
}

// splitRuns splits s into alternating digit and non-digit runs, dropping
// separators.
func splitRuns(s string) []string {
	var runs []string
	start := -1
	digit := false
	flush := func(end int) {
		if start >= 0 {
			runs = append(runs, s[start:end])
			start = -1
		}
	}
	for i, r := range s {
		if r == '.' || r == '-' || r == '+' || r == '~' {
			flush(i)
			continue
		}
		d := unicode.IsDigit(r)
		if start >= 0 && d != digit {
			flush(i)
		}
		if start < 0 {
			start = i
			digit = d
		}
	}
	flush(len(s))
	return runs
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
