package pkg

import (
	"context"
	"fmt"

	"github.com/urfave/cli"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/gem-audit/pkg/db"
	"github.com/aquasecurity/gem-audit/pkg/log"
)

func (ac AppConfig) export(c *cli.Context) error {
	ctx := context.Background()
	m := ac.manager(c)

	src, err := m.Open(ctx)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	updatedAt, err := m.LastUpdated(ctx)
	if err != nil {
		log.Warn("Unknown last update time", log.Err(err))
	}
	commit, err := m.Commit(ctx)
	if err != nil {
		log.Debug("Unknown commit", log.Err(err))
	}

	outDir := c.String("output-dir")
	if err = db.Init(outDir); err != nil {
		return xerrors.Errorf("db initialize error: %w", err)
	}
	defer db.Close()

	count, err := db.NewExporter(db.WithClock(ac.clock())).Export(src, updatedAt, commit)
	if err != nil {
		return xerrors.Errorf("export error: %w", err)
	}

	if !c.GlobalBool("quiet") {
		fmt.Fprintf(ac.stdout(), "Exported %d advisories to %s\n", count, db.Path(outDir))
	}
	return nil
}
