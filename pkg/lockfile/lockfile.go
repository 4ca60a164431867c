package lockfile

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/gem-audit/pkg/set"
	"github.com/aquasecurity/gem-audit/pkg/types"
	"github.com/aquasecurity/gem-audit/pkg/utils"
)

var ErrLockfileNotFound = xerrors.New("lockfile not found")

// Candidates are tried in order by Discover.
var Candidates = []string{"gems.locked", "Gemfile.lock"}

var (
	sectionPattern = regexp.MustCompile(`^[A-Z][A-Z ]*$`)
	remotePattern  = regexp.MustCompile(`^ {2}remote: (.+)$`)
	specPattern    = regexp.MustCompile(`^ {4}([^ (]+)(?: \(([^-)]*)(?:-([^)]*))?\))?$`)
)

var sectionTypes = map[string]types.SourceType{
	"GIT":  types.SourceGit,
	"GEM":  types.SourceRegistry,
	"PATH": types.SourcePath,
}

// Lockfile holds the resolved gems of a Gemfile.lock and the sources they
// come from, both in file order.
type Lockfile struct {
	Sources      []types.Source
	Dependencies []types.Dependency
}

// Discover returns the lockfile in dir, preferring gems.locked.
func Discover(dir string) (string, error) {
	for _, name := range Candidates {
		path := filepath.Join(dir, name)
		if ok, _ := utils.Exists(path); ok {
			return path, nil
		}
	}
	return "", xerrors.Errorf("%s: %w", dir, ErrLockfileNotFound)
}

func Load(path string) (Lockfile, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Lockfile{}, xerrors.Errorf("%s: %w", path, ErrLockfileNotFound)
	} else if err != nil {
		return Lockfile{}, oops.With("file_path", path).Wrapf(err, "file open error")
	}
	defer f.Close()

	lf, err := Parse(f)
	if err != nil {
		return Lockfile{}, oops.With("file_path", path).Wrapf(err, "lockfile parse error")
	}
	return lf, nil
}

// Parse reads the GIT, GEM and PATH sections. Other sections are skipped.
func Parse(r io.Reader) (Lockfile, error) {
	var (
		lf      Lockfile
		seen    = set.New[types.Source]()
		section types.SourceType
		current []*types.Source
	)

	s := bufio.NewScanner(r)
	for s.Scan() {
		line := strings.TrimRight(s.Text(), "\r")

		if sectionPattern.MatchString(line) {
			section = sectionTypes[line]
			current = nil
			continue
		}
		if section == "" {
			continue
		}

		if m := remotePattern.FindStringSubmatch(line); m != nil {
			src := types.Source{Type: section, URI: strings.TrimSpace(m[1])}
			current = append(current, &src)
			seen.Append(src)
			continue
		}

		m := specPattern.FindStringSubmatch(line)
		if m == nil || m[2] == "" {
			continue
		}
		dep := types.Dependency{Name: m[1], Version: m[2]}
		// A GEM section with several remotes cannot tell which one served a gem.
		if len(current) == 1 {
			dep.Source = current[0]
		}
		lf.Dependencies = append(lf.Dependencies, dep)
	}
	if err := s.Err(); err != nil {
		return Lockfile{}, xerrors.Errorf("scan error: %w", err)
	}
	if seen.Len() > 0 {
		lf.Sources = seen.Values()
	}
	return lf, nil
}
