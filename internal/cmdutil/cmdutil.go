// Package cmdutil holds the flags and error handling shared by the command line programs.
package cmdutil

import (
	"context"
	"flag"
	"io"
	"os"
	"strconv"

	"github.com/gomlx/goptx/internal/manifest"
	"github.com/gomlx/goptx/internal/runner"
	"github.com/urfave/cli/v2"
	"k8s.io/klog/v2"
)

// DeviceEnv is the environment variable that selects the device ordinal, if --device is not given.
const DeviceEnv = "CUDA_DEVICE"

// VerbosityFlag controls klog's verbosity: 1 logs each stage of a run, 2 logs each driver call.
var VerbosityFlag = &cli.IntFlag{
	Name:    "v",
	Usage:   "log verbosity: 1 logs each stage of a run, 2 logs each CUDA driver call",
	EnvVars: []string{"GOPTX_VERBOSITY"},
}

// DeviceFlag selects the device ordinal where to run.
var DeviceFlag = &cli.IntFlag{
	Name:    "device",
	Aliases: []string{"d"},
	Value:   0,
	Usage:   "ordinal of the CUDA device to run on",
	EnvVars: []string{DeviceEnv},
}

// InitLogging configures klog from the command line flags. It is meant to be used as cli.App.Before.
func InitLogging(c *cli.Context) error {
	flags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(flags)
	if err := flags.Set("logtostderr", "true"); err != nil {
		return err
	}
	if c.IsSet(VerbosityFlag.Name) {
		if err := flags.Set("v", strconv.Itoa(c.Int(VerbosityFlag.Name))); err != nil {
			return err
		}
	}
	return nil
}

// RunAndPrint runs the manifest on drv and prints the selected results to w.
func RunAndPrint(ctx context.Context, drv runner.Driver, m *manifest.Manifest, w io.Writer) error {
	result, err := runner.Run(ctx, drv, m)
	if err != nil {
		return err
	}
	return result.Print(w)
}

// exit is replaced in tests.
var exit = os.Exit

// Exit logs err, if not nil, with its stack trace to stderr and exits with status 1.
func Exit(err error) {
	if err == nil {
		return
	}
	klog.Errorf("%+v", err)
	klog.Flush()
	exit(1)
}
