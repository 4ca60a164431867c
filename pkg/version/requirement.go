package version

import (
	"strings"

	"github.com/samber/lo"
	"golang.org/x/xerrors"
)

type Operator string

const (
	OpEqual          Operator = "="
	OpNotEqual       Operator = "!="
	OpGreater        Operator = ">"
	OpLess           Operator = "<"
	OpGreaterOrEqual Operator = ">="
	OpLessOrEqual    Operator = "<="
	OpPessimistic    Operator = "~>"
)

var (
	ErrMalformedRequirement = xerrors.New("malformed requirement")

	operators = []Operator{
		OpEqual,
		OpNotEqual,
		OpGreater,
		OpLess,
		OpGreaterOrEqual,
		OpLessOrEqual,
		OpPessimistic,
	}
)

// Requirement is a single "<op> <version>" constraint, e.g. "~> 3.1.2".
type Requirement struct {
	op      Operator
	version Version
}

// Parse parses a requirement. The operator defaults to "=".
func Parse(s string) (Requirement, error) {
	s = strings.TrimSpace(s)
	token := strings.TrimRight(s[:len(s)-len(strings.TrimLeft(s, "=!<>~"))], " ")
	rest := strings.TrimSpace(s[len(token):])

	op := OpEqual
	if token != "" {
		op = Operator(token)
		if !lo.Contains(operators, op) {
			return Requirement{}, xerrors.Errorf("unknown operator %q in %q: %w", token, s, ErrMalformedRequirement)
		}
	}

	v, err := NewVersion(rest)
	if err != nil {
		return Requirement{}, xerrors.Errorf("%q: %v: %w", s, err, ErrMalformedRequirement)
	}
	return Requirement{
		op:      op,
		version: v,
	}, nil
}

func MustParse(s string) Requirement {
	r, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Requirement) Operator() Operator {
	return r.op
}

func (r Requirement) Version() Version {
	return r.version
}

// Satisfies reports whether v matches the requirement.
func (r Requirement) Satisfies(v Version) bool {
	c := v.Compare(r.version)
	switch r.op {
	case OpEqual:
		return c == 0
	case OpNotEqual:
		return c != 0
	case OpGreater:
		return c > 0
	case OpLess:
		return c < 0
	case OpGreaterOrEqual:
		return c >= 0
	case OpLessOrEqual:
		return c <= 0
	case OpPessimistic:
		// gem.Constraints bumps its stored version in place on each check.
		return c >= 0 && v.Release().LessThan(r.version.Bump())
	}
	return false
}

func (r Requirement) String() string {
	return string(r.op) + " " + r.version.String()
}

// Constraints is a comma-separated group of requirements that must all hold,
// e.g. ">= 3.0, < 3.1.4".
type Constraints []Requirement

func ParseConstraints(s string) (Constraints, error) {
	if strings.TrimSpace(s) == "" {
		return nil, xerrors.Errorf("empty requirement: %w", ErrMalformedRequirement)
	}

	var cs Constraints
	for _, part := range strings.Split(s, ",") {
		r, err := Parse(part)
		if err != nil {
			return nil, err
		}
		cs = append(cs, r)
	}
	return cs, nil
}

func MustParseConstraints(s string) Constraints {
	cs, err := ParseConstraints(s)
	if err != nil {
		panic(err)
	}
	return cs
}

func (cs Constraints) Satisfies(v Version) bool {
	for _, r := range cs {
		if !r.Satisfies(v) {
			return false
		}
	}
	return true
}

func (cs Constraints) String() string {
	return strings.Join(lo.Map(cs, func(r Requirement, _ int) string {
		return r.String()
	}), ", ")
}

func (cs Constraints) MarshalText() ([]byte, error) {
	return []byte(cs.String()), nil
}

func (cs *Constraints) UnmarshalText(text []byte) error {
	parsed, err := ParseConstraints(string(text))
	if err != nil {
		return err
	}
	*cs = parsed
	return nil
}

// AnySatisfied reports whether v matches at least one of the groups.
func AnySatisfied(groups []Constraints, v Version) bool {
	return lo.ContainsBy(groups, func(cs Constraints) bool {
		return cs.Satisfies(v)
	})
}
