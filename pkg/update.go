package pkg

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli"

	"github.com/aquasecurity/gem-audit/pkg/database"
	"github.com/aquasecurity/gem-audit/pkg/log"
)

func (ac AppConfig) update(c *cli.Context) error {
	ctx := context.Background()
	m := ac.manager(c)
	if err := ac.runUpdate(ctx, c, m); err != nil {
		return err
	}
	if c.GlobalBool("quiet") {
		return nil
	}
	return ac.printStats(ctx, m)
}

func (ac AppConfig) runUpdate(ctx context.Context, c *cli.Context, m *database.Manager) error {
	if !c.GlobalBool("quiet") {
		fmt.Fprintln(ac.stdout(), "Updating ruby-advisory-db ...")
	}

	result, err := m.Update(ctx)
	switch {
	case errors.Is(err, database.ErrUpdateToolMissing):
		return cli.NewExitError(err.Error(), 1)
	case err != nil:
		log.Error("Update failed", log.Err(err))
		return cli.NewExitError("Failed updating ruby-advisory-db!", 1)
	case result == database.UpdateSkipped:
		log.Warn("Skipping update, the user database is not a git checkout", log.DirPath(m.UserPath()))
		return nil
	}

	if !c.GlobalBool("quiet") {
		fmt.Fprintln(ac.stdout(), "Updated ruby-advisory-db")
	}
	return nil
}
