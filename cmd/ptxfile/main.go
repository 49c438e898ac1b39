// ptxfile loads a PTX module from a file, runs its kernel f over a 32 × int32 buffer with xs[0] = 42, using
// 1 block of 32 threads, and prints xs[0].
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
		Name:  "ptxfile",
		Usage: "run kernel f from a PTX file over a 32 element int32 buffer",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "ptx",
				Value:   manifest.DefaultPTXFile,
				Usage:   "path to the PTX module file",
				EnvVars: []string{"PTXFILE_PTX"},
			},
			cmdutil.DeviceFlag,
			cmdutil.VerbosityFlag,
		},
		Before: cmdutil.InitLogging,
		Action: func(c *cli.Context) error {
			m := must.M1(manifest.FileDemo(c.String("ptx")))
			m.Device = c.Int(cmdutil.DeviceFlag.Name)
			return cmdutil.RunAndPrint(c.Context, runner.CUDA(), m, os.Stdout)
		},
	}
	cmdutil.Exit(app.Run(os.Args))
}
