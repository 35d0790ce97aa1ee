package main

import (
	"fmt"
	"os"

	cli "github.com/urfave/cli/v2"

	"github.com/xmrshop/wallet-scheduler/pkg/version"
)

const serviceName = "wallet-scheduler"

var versionCmd = &cli.Command{
	Name:  "version",
	Usage: "Print version",
	Action: func(c *cli.Context) error {
		fmt.Println(version.Version())
		return nil
	},
}

func main() {
	app := &cli.App{
		Name:  serviceName,
		Usage: "supervise the wallet server and settle order payments",
		Commands: cli.Commands{
			runCmd,
			versionCmd,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
