package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/infomedia-iot/iot-provisioner/provision"
	"github.com/urfave/cli/v3"
)

const (
	envBasePath    = "IOT_BASE_PATH"
	envUnitDir     = "IOT_UNIT_DIR"
	envUser        = "IOT_USER"
	envSkipUpgrade = "IOT_SKIP_UPGRADE"
	envPackages    = "IOT_PACKAGES"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "iot-installer",
		Usage: "Install IoT products and their services on this device",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (LOG_LEVEL)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "also write logs to this rotating file (LOG_FILE)",
			},
			&cli.StringFlag{
				Name:    "base-path",
				Usage:   "root of the device workspace",
				Value:   provision.DefaultBasePath,
				Sources: cli.EnvVars(envBasePath),
			},
			&cli.StringFlag{
				Name:    "unit-dir",
				Usage:   "directory the service manager loads units from",
				Value:   provision.DefaultUnitDir,
				Sources: cli.EnvVars(envUnitDir),
			},
			&cli.StringFlag{
				Name:    "user",
				Aliases: []string{"u"},
				Usage:   "account that owns graphical sessions (defaults to the user behind sudo)",
				Sources: cli.EnvVars(envUser),
			},
			&cli.BoolFlag{
				Name:    "skip-upgrade",
				Usage:   "do not run apt update/upgrade before installing",
				Sources: cli.EnvVars(envSkipUpgrade),
			},
			&cli.StringSliceFlag{
				Name:    "package",
				Usage:   "OS package that must be present (repeatable, replaces the defaults)",
				Sources: cli.EnvVars(envPackages),
			},
		},
		Before:         setupInstaller,
		After:          closeInstaller,
		ExitErrHandler: reportFailure,
		Commands: []*cli.Command{
			cmdInstall(),
			cmdMenu(),
			cmdActions(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		os.Exit(1)
	}
}
