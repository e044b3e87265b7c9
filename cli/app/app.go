package app

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nspcc-dev/rds-go/cli/db"
	"github.com/nspcc-dev/rds-go/cli/value"
	"github.com/nspcc-dev/rds-go/pkg/config"
	"github.com/urfave/cli"
)

func versionPrinter(c *cli.Context) {
	_, _ = fmt.Fprintf(c.App.Writer, "rds\nVersion: %s\nGoVersion: %s\n",
		config.Version,
		runtime.Version(),
	)
}

// New creates an instance of [cli.App] with all commands included.
func New() *cli.App {
	cli.VersionPrinter = versionPrinter
	ctl := cli.NewApp()
	ctl.Name = "rds"
	ctl.Version = config.Version
	ctl.Usage = "Serialized value and lazy-load database tool"
	ctl.ErrWriter = os.Stdout

	ctl.Commands = append(ctl.Commands, value.NewCommands()...)
	ctl.Commands = append(ctl.Commands, db.NewCommands()...)
	return ctl
}
