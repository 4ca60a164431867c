package pkg

import (
	"io"
	"os"
	"strings"

	"github.com/urfave/cli"
	"k8s.io/utils/clock"

	"github.com/aquasecurity/gem-audit/pkg/database"
	"github.com/aquasecurity/gem-audit/pkg/git"
	"github.com/aquasecurity/gem-audit/pkg/log"
	"github.com/aquasecurity/gem-audit/pkg/report"
	"github.com/aquasecurity/gem-audit/pkg/scanner"
	"github.com/aquasecurity/gem-audit/pkg/utils"
)

// AppConfig holds the collaborators the commands talk to. Zero values fall
// back to the real implementations.
type AppConfig struct {
	Git      git.Runner
	Resolver scanner.Resolver
	Stdout   io.Writer
	Clock    clock.Clock
}

var databaseFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "db-path",
		Usage:  "path of the user's ruby-advisory-db checkout",
		Value:  utils.UserDatabaseDir(),
		EnvVar: "GEM_AUDIT_DB",
	},
	cli.StringFlag{
		Name:   "vendored-db-path",
		Usage:  "path of the ruby-advisory-db snapshot shipped with gem-audit",
		Value:  utils.VendoredDatabaseDir(),
		EnvVar: "GEM_AUDIT_VENDORED_DB",
	},
	cli.StringFlag{
		Name:  "database, D",
		Usage: "use this advisory database and skip choosing between the vendored and user copies",
	},
	cli.StringFlag{
		Name:   "remote",
		Usage:  "git remote of ruby-advisory-db",
		Value:  database.DefaultRemote,
		EnvVar: "GEM_AUDIT_REMOTE",
	},
}

func (ac AppConfig) NewApp(version string) *cli.App {
	app := cli.NewApp()
	app.Name = "gem-audit"
	app.Version = version
	app.Usage = "Patch-level verification for Bundler"
	app.Writer = ac.stdout()

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:   "debug",
			Usage:  "debug mode",
			EnvVar: "GEM_AUDIT_DEBUG",
		},
		cli.BoolFlag{
			Name:  "quiet, q",
			Usage: "suppress informational output",
		},
	}
	app.Before = func(c *cli.Context) error {
		log.InitStderrLogger(c.Bool("debug"), c.Bool("quiet"))
		return nil
	}

	app.Commands = []cli.Command{
		{
			Name:      "check",
			Usage:     "check the Gemfile.lock for insecure dependencies",
			ArgsUsage: "[dir]",
			Action:    ac.check,
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "gemfile-lock, G",
					Usage: "lockfile to audit, relative to dir (default: gems.locked or Gemfile.lock)",
				},
				cli.StringFlag{
					Name:  "config, c",
					Usage: "configuration file (default: .bundler-audit.yml or .bundler-audit.toml in dir)",
				},
				cli.StringSliceFlag{
					Name:  "ignore, i",
					Usage: "advisory ID to ignore, may be repeated",
				},
				cli.BoolFlag{
					Name:  "update, u",
					Usage: "update ruby-advisory-db before checking",
				},
				cli.BoolFlag{
					Name:  "verbose, v",
					Usage: "print advisory descriptions",
				},
				cli.StringFlag{
					Name:  "format, F",
					Usage: "output format (" + strings.Join(report.Formats, ", ") + ")",
					Value: string(report.FormatText),
				},
				cli.StringFlag{
					Name:  "output, o",
					Usage: "write the report to this file",
				},
			}, databaseFlags...),
		},
		{
			Name:   "update",
			Usage:  "clone or update ruby-advisory-db",
			Action: ac.update,
			Flags:  databaseFlags,
		},
		{
			Name:   "stats",
			Usage:  "print the active advisory database and its size",
			Action: ac.stats,
			Flags:  databaseFlags,
		},
		{
			Name:   "export",
			Usage:  "compile the active advisory database into a single BoltDB file",
			Action: ac.export,
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "output-dir, o",
					Usage: "directory the database file is written to",
					Value: ".",
				},
			}, databaseFlags...),
		},
		{
			Name:      "vendor",
			Usage:     "snapshot the active advisory database, recording its commit time",
			ArgsUsage: "[dir]",
			Action:    ac.vendor,
			Flags:     databaseFlags,
		},
	}

	return app
}

func (ac AppConfig) manager(c *cli.Context) *database.Manager {
	opts := []database.Option{
		database.WithUserPath(c.String("db-path")),
		database.WithVendoredPath(c.String("vendored-db-path")),
		database.WithRemote(c.String("remote")),
	}
	if ac.Git != nil {
		opts = append(opts, database.WithGit(ac.Git))
	}
	if path := c.String("database"); path != "" {
		opts = append(opts, database.WithPath(path))
	}
	return database.NewManager(opts...)
}

func (ac AppConfig) stdout() io.Writer {
	if ac.Stdout != nil {
		return ac.Stdout
	}
	return os.Stdout
}

func (ac AppConfig) clock() clock.Clock {
	if ac.Clock != nil {
		return ac.Clock
	}
	return clock.RealClock{}
}
