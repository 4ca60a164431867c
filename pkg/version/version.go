package version

import (
	"regexp"
	"strconv"
	"strings"

	gem "github.com/aquasecurity/go-gem-version"
	"golang.org/x/xerrors"
)

// maxAlphaLength bounds a single alphabetic run such as "pre" or "beta".
const maxAlphaLength = 32

var (
	ErrMalformedVersion = xerrors.New("malformed version")

	versionPattern = regexp.MustCompile(`^[0-9]+(\.[0-9a-zA-Z]+)*(-[0-9A-Za-z-]+(\.[0-9A-Za-z-]+)*)?$`)
	segmentPattern = regexp.MustCompile(`[0-9]+|[a-zA-Z]+`)
)

// Version represents a RubyGems version such as "3.2.11" or "4.0.0.beta1".
// Ordering is delegated to go-gem-version; String keeps the input as written.
type Version struct {
	original string
	gem      gem.Version
}

// NewVersion parses the given string.
// A "-" is read as a pre-release marker, so "1.0-rc1" equals "1.0.pre.rc1".
// Empty input, numeric segments beyond uint64 and overlong alphabetic runs are
// rejected, although go-gem-version alone would accept them.
func NewVersion(v string) (Version, error) {
	v = strings.TrimSpace(v)
	if !versionPattern.MatchString(v) {
		return Version{}, xerrors.Errorf("%q: %w", v, ErrMalformedVersion)
	}
	for _, part := range segmentPattern.FindAllString(v, -1) {
		if part[0] >= '0' && part[0] <= '9' {
			if _, err := strconv.ParseUint(part, 10, 64); err != nil {
				return Version{}, xerrors.Errorf("%q: segment %q out of range: %w", v, part, ErrMalformedVersion)
			}
			continue
		}
		if len(part) > maxAlphaLength {
			return Version{}, xerrors.Errorf("%q: segment %q is too long: %w", v, part, ErrMalformedVersion)
		}
	}

	gv, err := gem.NewVersion(v)
	if err != nil {
		return Version{}, xerrors.Errorf("%q: %v: %w", v, err, ErrMalformedVersion)
	}
	return Version{
		original: v,
		gem:      gv,
	}, nil
}

// Must panics if err is not nil.
func Must(v Version, err error) Version {
	if err != nil {
		panic(err)
	}
	return v
}

// Prerelease reports whether the version has any alphabetic segment.
func (v Version) Prerelease() bool {
	return strings.IndexFunc(v.original, func(r rune) bool {
		return r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	}) >= 0
}

// Release returns the version without its pre-release part.
// "3.2.0.rc1" becomes "3.2.0".
func (v Version) Release() Version {
	if !v.Prerelease() {
		return v
	}
	return fromGem(v.gem.Release())
}

// Bump returns the upper bound used by the pessimistic operator.
// "3.1.2" becomes "3.2" and "3.1" becomes "4".
func (v Version) Bump() Version {
	// gem.Version.Bump writes into the segment slice it shares with its
	// receiver, so it only ever runs on a freshly parsed copy.
	fresh, err := gem.NewVersion(v.gem.String())
	if err != nil {
		return v
	}
	return fromGem(fresh.Bump())
}

// Compare returns -1, 0 or 1 when v is lower than, equal to or greater than o.
// Missing segments count as zero.
func (v Version) Compare(o Version) int {
	return v.gem.Compare(o.gem)
}

func (v Version) Equal(o Version) bool {
	return v.gem.Equal(o.gem)
}

func (v Version) LessThan(o Version) bool {
	return v.gem.LessThan(o.gem)
}

func (v Version) GreaterThan(o Version) bool {
	return v.gem.GreaterThan(o.gem)
}

func (v Version) String() string {
	return v.original
}

func fromGem(gv gem.Version) Version {
	return Version{
		original: gv.String(),
		gem:      gv,
	}
}
