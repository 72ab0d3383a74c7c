package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/infomedia-iot/iot-provisioner/sdcard"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

var errNotConfirmed = errors.New("flash not confirmed")

func cmdFlash() *cli.Command {
	return &cli.Command{
		Name:      "flash",
		Usage:     "Write a raw or .xz image onto a card",
		ArgsUsage: "<image> [device]  # the device is picked from removable disks when omitted",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "do not ask for confirmation",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			h := mustTool(ctx)

			if c.NArg() < 1 || c.NArg() > 2 {
				return errors.New("usage: sdconfig flash <image> [device]")
			}
			image := c.Args().Get(0)
			if _, err := os.Stat(image); err != nil {
				return fmt.Errorf("invalid source image: %w", err)
			}

			destination := c.Args().Get(1)
			description := destination
			if destination == "" {
				if !term.IsTerminal(int(os.Stdin.Fd())) {
					return errors.New("no device given and no terminal to pick one")
				}
				devices, err := sdcard.DiscoverRemovable(sdcard.SysBlock, h.Log)
				if err != nil {
					return err
				}
				device, err := runDeviceSelection(devices)
				if err != nil {
					return err
				}
				destination = device.Path
				description = fmt.Sprintf("%s (%s, %s)", device.Path, sdcard.HumanBytes(int64(device.SizeBytes)), device.Model)
			}

			if !c.Bool("yes") {
				answer, err := h.Prompter.Ask(ctx, fmt.Sprintf("Everything on %s will be erased. Type yes to continue", description))
				if err != nil {
					return err
				}
				if !strings.EqualFold(strings.TrimSpace(answer), "yes") {
					return errNotConfirmed
				}
			}

			n, err := sdcard.Flash(ctx, image, destination, h.Log)
			if err != nil {
				return err
			}
			h.Log.Info("Card flashed, mount it and run sdconfig configure", slog.String("device", destination), slog.String("written", sdcard.HumanBytes(n)))
			return nil
		},
	}
}
