// ptxembed loads a PTX module embedded in the program, runs its kernel f over three 256×256 int64 channels
// (r, g and b), using 256 blocks of 256 threads, and prints the first 16 pixels.
package main

import (
	"os"

	"github.com/gomlx/goptx/internal/cmdutil"
	"github.com/gomlx/goptx/internal/manifest"
	"github.com/gomlx/goptx/internal/runner"
	"github.com/janpfeifer/must"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:   "ptxembed",
		Usage:  "run kernel f from an embedded PTX module over three 256×256 int64 channels",
		Flags:  []cli.Flag{cmdutil.DeviceFlag, cmdutil.VerbosityFlag},
		Before: cmdutil.InitLogging,
		Action: func(c *cli.Context) error {
			m := must.M1(manifest.EmbeddedDemo())
			m.Device = c.Int(cmdutil.DeviceFlag.Name)
			return cmdutil.RunAndPrint(c.Context, runner.CUDA(), m, os.Stdout)
		},
	}
	cmdutil.Exit(app.Run(os.Args))
}
