package database

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/gem-audit/pkg/advisory"
	"github.com/aquasecurity/gem-audit/pkg/log"
	"github.com/aquasecurity/gem-audit/pkg/utils"
	"github.com/aquasecurity/gem-audit/pkg/version"
)

const (
	gemsDir       = "gems"
	advisoryExt   = ".yml"
	DefaultRemote = "https://github.com/rubysec/ruby-advisory-db.git"
)

var ErrDatabaseNotFound = xerrors.New("advisory database not found")

// Database is a ruby-advisory-db tree laid out as gems/<name>/<id>.yml.
// Records are read lazily, one file at a time.
type Database struct {
	path string
}

func Open(path string) (*Database, error) {
	if !utils.IsDir(path) {
		return nil, xerrors.Errorf("%s: %w", path, ErrDatabaseNotFound)
	}
	return &Database{path: path}, nil
}

func (d *Database) Path() string {
	return d.path
}

// Gems returns the names of the gems having at least one advisory directory, sorted.
func (d *Database) Gems() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(d.path, gemsDir))
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, oops.With("dir_path", d.path).Wrapf(err, "failed to list gems")
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Size counts advisory files without loading them.
func (d *Database) Size() (int, error) {
	files, err := filepath.Glob(filepath.Join(d.path, gemsDir, "*", "*"+advisoryExt))
	if err != nil {
		return 0, xerrors.Errorf("glob error: %w", err)
	}
	return len(files), nil
}

// Advisories calls fn with every valid advisory in the database.
func (d *Database) Advisories(fn func(advisory.Advisory) error) error {
	gems, err := d.Gems()
	if err != nil {
		return err
	}
	for _, gem := range gems {
		if err = d.AdvisoriesFor(gem, fn); err != nil {
			return err
		}
	}
	return nil
}

// AdvisoriesFor calls fn with every valid advisory of the named gem, in file name order.
func (d *Database) AdvisoriesFor(name string, fn func(advisory.Advisory) error) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return nil
	}

	dir := filepath.Join(d.path, gemsDir, name)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return oops.With("dir_path", dir).Wrapf(err, "failed to list advisories")
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == advisoryExt {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	for _, file := range files {
		adv, err := advisory.Load(file)
		if err != nil {
			log.WithPrefix("database").Warn("Skipping invalid advisory", log.FilePath(file), log.Err(err))
			continue
		}
		if err = fn(adv); err != nil {
			return err
		}
	}
	return nil
}

// CheckGem calls fn with each advisory of the named gem that v is vulnerable to.
func (d *Database) CheckGem(name string, v version.Version, fn func(advisory.Advisory) error) error {
	return d.AdvisoriesFor(name, func(adv advisory.Advisory) error {
		if !adv.Vulnerable(v) {
			return nil
		}
		return fn(adv)
	})
}
