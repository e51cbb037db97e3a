// Package main is the swerve command line tool.
package main

import (
	"os"

	"go.viam.com/holonomic/cli"
	"go.viam.com/holonomic/logging"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		logging.NewLogger("swerve").Fatal(err)
	}
}
