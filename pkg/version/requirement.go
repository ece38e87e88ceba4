// pkg/version/requirement.go
package version

import "strings"

// Operator is the comparator of a Requirement.
type Operator string

const (
	Greater      Operator = ">"
	GreaterEqual Operator = ">="
	Less         Operator = "<"
	LessEqual    Operator = "<="
	Equal        Operator = "=="
)

// operators is ordered so that two-character operators are tried before
// their one-character prefixes.
var operators = []Operator{GreaterEqual, LessEqual, Greater, Less, Equal}

// Requirement constrains the acceptable versions of a dependency, e.g. ">=1.2".
type Requirement struct {
	Op      Operator
	Version string
}

// ParseRequirement splits text into an operator and a version. Text without a
// recognized operator is an exact match on the whole text. ParseRequirement
// never fails; a malformed version simply never matches.
func ParseRequirement(text string) Requirement {
	for _, op := range operators {
		if rest, ok := strings.CutPrefix(text, string(op)); ok {
			return Requirement{Op: op, Version: strings.TrimSpace(rest)}
		}
	}
	return Requirement{Op: Equal, Version: strings.TrimSpace(text)}
}

// Matches reports whether candidate satisfies the requirement. It returns
// false if either the candidate or the required version does not parse.
func (r Requirement) Matches(candidate string) bool {
	have, err := Parse(candidate)
	if err != nil {
		return false
	}
	want, err := Parse(r.Version)
	if err != nil {
		return false
	}

	c := have.Compare(want)
	switch r.Op {
	case Greater:
		return c > 0
	case GreaterEqual:
		return c >= 0
	case Less:
		return c < 0
	case LessEqual:
		return c <= 0
	case Equal:
		return c == 0
	default:
		return false
	}
}

func (r Requirement) String() string {
	return string(r.Op) + r.Version
}
