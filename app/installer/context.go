package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/infomedia-iot/iot-provisioner/common"
	"github.com/infomedia-iot/iot-provisioner/logging"
	"github.com/infomedia-iot/iot-provisioner/prompt"
	"github.com/infomedia-iot/iot-provisioner/provision"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

type installerCtxKey struct{}

type InstallerContext struct {
	Log         *slog.Logger
	Provisioner *provision.Provisioner
	Prompter    prompt.Prompter

	logFile io.WriteCloser
}

func loggingConfig(c *cli.Command) (logging.Config, error) {
	cfg := logging.NewConfigFromEnv()
	if c.IsSet("log-level") {
		lvl, ok := logging.ParseLevel(c.String("log-level"))
		if !ok {
			return cfg, fmt.Errorf("unknown log level %q", c.String("log-level"))
		}
		cfg.Level = lvl
	}
	if c.IsSet("log-file") {
		cfg.File = c.String("log-file")
	}
	return cfg, nil
}

func setupInstaller(ctx context.Context, c *cli.Command) (context.Context, error) {
	cfg, err := loggingConfig(c)
	if err != nil {
		return ctx, err
	}
	logger, logFile := logging.New(cfg)

	settings := provision.DefaultSettings()
	settings.BasePath = c.String("base-path")
	settings.UnitDir = c.String("unit-dir")
	settings.User = c.String("user")
	settings.SkipUpgrade = c.Bool("skip-upgrade")
	if pkgs := c.StringSlice("package"); len(pkgs) > 0 {
		settings.Packages = pkgs
	}

	prompter := prompt.NewTerminal()
	h := &InstallerContext{
		Log:         logger,
		Provisioner: provision.New(settings, common.NewExecRunner(logger), prompter, logger),
		Prompter:    prompter,
		logFile:     logFile,
	}
	return context.WithValue(ctx, installerCtxKey{}, h), nil
}

func closeInstaller(ctx context.Context, c *cli.Command) error {
	if h, ok := ctx.Value(installerCtxKey{}).(*InstallerContext); ok && h.logFile != nil {
		return h.logFile.Close()
	}
	return nil
}

// reportFailure logs a failed command through the configured logger while its file is
// still open. Failures before setup fall back to the default logger.
func reportFailure(ctx context.Context, c *cli.Command, err error) {
	log := slog.Default()
	if h, ok := ctx.Value(installerCtxKey{}).(*InstallerContext); ok {
		log = h.Log
	}
	log.Error("iot-installer failed", slog.Any("error", err))
}

func mustInstaller(ctx context.Context) *InstallerContext {
	h, ok := ctx.Value(installerCtxKey{}).(*InstallerContext)
	if !ok {
		panic("installer context missing")
	}
	return h
}

func isTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
