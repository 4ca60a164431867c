package pkg

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/gem-audit/pkg/config"
	"github.com/aquasecurity/gem-audit/pkg/database"
	"github.com/aquasecurity/gem-audit/pkg/lockfile"
	"github.com/aquasecurity/gem-audit/pkg/log"
	"github.com/aquasecurity/gem-audit/pkg/report"
	"github.com/aquasecurity/gem-audit/pkg/scanner"
)

func (ac AppConfig) check(c *cli.Context) error {
	ctx := context.Background()
	dir := c.Args().First()
	if dir == "" {
		dir = "."
	}

	m := ac.manager(c)
	if c.Bool("update") {
		if err := ac.runUpdate(ctx, c, m); err != nil {
			return err
		}
	}

	lockPath, err := resolveLockfile(dir, c.String("gemfile-lock"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	lf, err := lockfile.Load(lockPath)
	if err != nil {
		return xerrors.Errorf("lockfile error: %w", err)
	}

	ignore, err := ac.ignoreList(dir, c.String("config"), c.StringSlice("ignore"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	db, err := m.Open(ctx)
	if errors.Is(err, database.ErrDatabaseNotFound) {
		return cli.NewExitError("ruby-advisory-db not found, run `gem-audit update` first", 1)
	} else if err != nil {
		return err
	}
	log.Debug("Using the advisory database", log.DirPath(db.Path()))

	opts := []scanner.Option{scanner.WithIgnore(ignore)}
	if ac.Resolver != nil {
		opts = append(opts, scanner.WithResolver(ac.Resolver))
	}

	var result scanner.Report
	if err = scanner.New(db, opts...).Scan(ctx, lf.Dependencies, lf.Sources, result.Add); err != nil {
		return xerrors.Errorf("scan error: %w", err)
	}

	out := ac.stdout()
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return xerrors.Errorf("failed to create the output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	w, err := report.NewWriter(report.Option{
		Format:  report.Format(c.String("format")),
		Output:  out,
		Verbose: c.Bool("verbose"),
		Quiet:   c.GlobalBool("quiet"),
		Pretty:  isTerminal(out),
		Version: c.App.Version,
		Clock:   ac.clock(),
	})
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if err = w.Write(&result); err != nil {
		return xerrors.Errorf("report error: %w", err)
	}

	if result.Vulnerable() {
		return cli.NewExitError("", 1)
	}
	return nil
}

func resolveLockfile(dir, name string) (string, error) {
	if name == "" {
		return lockfile.Discover(dir)
	}
	if filepath.IsAbs(name) {
		return name, nil
	}
	return filepath.Join(dir, name), nil
}

func (ac AppConfig) ignoreList(dir, configPath string, ids []string) (*config.IgnoreList, error) {
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, _, err = config.Discover(dir)
		if errors.Is(err, config.ErrConfigNotFound) {
			err = nil
		}
	}
	if err != nil {
		return nil, err
	}

	ignore := config.NewIgnoreList(cfg.Ignore, config.WithClock(ac.clock()))
	ignore.Add(ids...)
	return ignore, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}
