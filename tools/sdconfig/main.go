package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/infomedia-iot/iot-provisioner/common"
	"github.com/infomedia-iot/iot-provisioner/logging"
	"github.com/infomedia-iot/iot-provisioner/prompt"
	"github.com/urfave/cli/v3"
)

type toolCtxKey struct{}

type ToolContext struct {
	Log      *slog.Logger
	Runner   common.Runner
	Prompter prompt.Prompter

	logFile io.WriteCloser
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "sdconfig",
		Usage: "Flash and configure SD cards for IoT devices",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "debug, info, warn or error (LOG_LEVEL)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "also write logs to this rotating file (LOG_FILE)",
			},
		},
		Before:         setupTool,
		After:          closeTool,
		ExitErrHandler: reportFailure,
		Commands: []*cli.Command{
			cmdConfigure(),
			cmdFlash(),
		},
	}
}

func setupTool(ctx context.Context, c *cli.Command) (context.Context, error) {
	cfg := logging.NewConfigFromEnv()
	if c.IsSet("log-level") {
		lvl, ok := logging.ParseLevel(c.String("log-level"))
		if !ok {
			return ctx, fmt.Errorf("unknown log level %q", c.String("log-level"))
		}
		cfg.Level = lvl
	}
	if c.IsSet("log-file") {
		cfg.File = c.String("log-file")
	}

	logger, logFile := logging.New(cfg)
	return context.WithValue(ctx, toolCtxKey{}, &ToolContext{
		Log:      logger,
		Runner:   common.NewExecRunner(logger),
		Prompter: prompt.NewTerminal(),
		logFile:  logFile,
	}), nil
}

func closeTool(ctx context.Context, c *cli.Command) error {
	if h, ok := ctx.Value(toolCtxKey{}).(*ToolContext); ok && h.logFile != nil {
		return h.logFile.Close()
	}
	return nil
}

func reportFailure(ctx context.Context, c *cli.Command, err error) {
	log := slog.Default()
	if h, ok := ctx.Value(toolCtxKey{}).(*ToolContext); ok {
		log = h.Log
	}
	log.Error("sdconfig failed", slog.Any("error", err))
}

func mustTool(ctx context.Context) *ToolContext {
	h, ok := ctx.Value(toolCtxKey{}).(*ToolContext)
	if !ok {
		panic("tool context missing")
	}
	return h
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		os.Exit(1)
	}
}
