// ptxrun runs kernels described by YAML manifests, and lists the available CUDA devices.
//
// Usage:
//
//	ptxrun run [--device N] <manifest.yaml>
//	ptxrun devices
//	ptxrun demo <file|embedded>
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/gomlx/goptx/cuda"
	"github.com/gomlx/goptx/internal/cmdutil"
	"github.com/gomlx/goptx/internal/manifest"
	"github.com/gomlx/goptx/internal/runner"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func main() {
	cmdutil.Exit(newApp(runner.CUDA(), os.Stdout).Run(os.Args))
}

// newApp creates the command line app, running manifests on drv and writing its output to out.
func newApp(drv runner.Driver, out io.Writer) *cli.App {
	return &cli.App{
		Name:   "ptxrun",
		Usage:  "run PTX kernels described by YAML manifests",
		Flags:  []cli.Flag{cmdutil.VerbosityFlag},
		Before: cmdutil.InitLogging,
		Writer: out,
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "run the kernel described by the manifest and print the selected results",
				ArgsUsage: "<manifest.yaml>",
				Flags:     []cli.Flag{cmdutil.DeviceFlag},
				Action: func(c *cli.Context) error {
					m, err := loadManifest(c)
					if err != nil {
						return err
					}
					return cmdutil.RunAndPrint(c.Context, drv, m, out)
				},
			},
			{
				Name:  "devices",
				Usage: "list the CUDA devices and the driver version",
				Action: func(*cli.Context) error {
					return listDevices(out)
				},
			},
			{
				Name:      "demo",
				Usage:     "print the manifest of one of the built-in demos",
				ArgsUsage: "<file|embedded>",
				Action: func(c *cli.Context) error {
					return printDemo(c.Args().First(), out)
				},
			},
		},
	}
}

// loadManifest loads the manifest given as the only argument. --device overrides the manifest's device only
// if given explicitly.
func loadManifest(c *cli.Context) (*manifest.Manifest, error) {
	if c.NArg() != 1 {
		return nil, errors.Errorf("expected exactly one manifest file, got %d arguments", c.NArg())
	}
	m, err := manifest.Load(c.Args().First())
	if err != nil {
		return nil, err
	}
	if c.IsSet(cmdutil.DeviceFlag.Name) {
		m.Device = c.Int(cmdutil.DeviceFlag.Name)
		if m.Device < 0 {
			return nil, errors.Errorf("invalid device ordinal %d", m.Device)
		}
	}
	return m, nil
}

func listDevices(out io.Writer) error {
	if err := cuda.Init(); err != nil {
		return err
	}
	version, err := cuda.DriverGetVersion()
	if err != nil {
		return err
	}
	devices, err := cuda.ListDevices()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "CUDA driver %s, %d device(s):\n", version, len(devices))
	for _, info := range devices {
		fmt.Fprintf(out, "\t%s\n", info)
	}
	return nil
}

func printDemo(name string, out io.Writer) error {
	var m *manifest.Manifest
	var err error
	switch name {
	case "file":
		m, err = manifest.FileDemo("")
	case "embedded":
		m, err = manifest.EmbeddedDemo()
	default:
		return errors.Errorf("unknown demo %q, valid values are \"file\" and \"embedded\"", name)
	}
	if err != nil {
		return err
	}
	contents, err := m.Marshal()
	if err != nil {
		return err
	}
	_, err = out.Write(contents)
	return errors.Wrap(err, "failed to write manifest")
}
