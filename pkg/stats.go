package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/gem-audit/pkg/database"
	"github.com/aquasecurity/gem-audit/pkg/log"
)

func (ac AppConfig) stats(c *cli.Context) error {
	return ac.printStats(context.Background(), ac.manager(c))
}

func (ac AppConfig) printStats(ctx context.Context, m *database.Manager) error {
	db, err := m.Open(ctx)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	size, err := db.Size()
	if err != nil {
		return xerrors.Errorf("size error: %w", err)
	}
	gems, err := db.Gems()
	if err != nil {
		return xerrors.Errorf("gems error: %w", err)
	}

	out := ac.stdout()
	fmt.Fprintln(out, "ruby-advisory-db:")
	fmt.Fprintf(out, "  path:\t%s\n", db.Path())
	fmt.Fprintf(out, "  advisories:\t%d advisories\n", size)
	fmt.Fprintf(out, "  gems:\t%d gems\n", len(gems))

	if updated, err := m.LastUpdated(ctx); err != nil {
		log.Debug("Unknown last update time", log.Err(err))
	} else {
		fmt.Fprintf(out, "  last updated:\t%s\n", updated.UTC().Format(time.RFC3339))
	}
	if commit, err := m.Commit(ctx); err == nil && commit != "" {
		fmt.Fprintf(out, "  commit:\t%s\n", commit)
	}
	return nil
}
