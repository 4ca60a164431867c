package main

import (
	"fmt"
	"os"

	"github.com/aquasecurity/gem-audit/pkg"
)

var (
	version = "0.0.1"
)

func main() {
	app := pkg.AppConfig{}.NewApp(version)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}
