package pkg

import (
	"context"
	"fmt"

	"github.com/urfave/cli"
	"golang.org/x/xerrors"
)

func (ac AppConfig) vendor(c *cli.Context) error {
	m := ac.manager(c)
	dst := c.Args().First()
	if dst == "" {
		dst = m.VendoredPath()
	}

	meta, err := m.Vendor(context.Background(), dst)
	if err != nil {
		return xerrors.Errorf("vendor error: %w", err)
	}
	if !c.GlobalBool("quiet") {
		fmt.Fprintf(ac.stdout(), "Vendored %d advisories to %s\n", meta.Advisories, dst)
	}
	return nil
}
