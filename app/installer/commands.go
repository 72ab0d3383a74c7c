package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/infomedia-iot/iot-provisioner/prompt"
	"github.com/infomedia-iot/iot-provisioner/provision"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

const exitOption = "exit"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	noteStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1)
)

func actionNames() string {
	return strings.Join(lo.Map(provision.AllActions(), func(a provision.Action, _ int) string {
		return a.String()
	}), ", ")
}

func cmdInstall() *cli.Command {
	return &cli.Command{
		Name:      "install",
		Usage:     "Install one product and start its service",
		ArgsUsage: "<action>  # one of: " + actionNames(),
		Action: func(ctx context.Context, c *cli.Command) error {
			h := mustInstaller(ctx)

			if c.NArg() != 1 {
				return fmt.Errorf("%w: expected exactly one action (%s)", provision.ErrUnknownAction, actionNames())
			}

			report, err := h.Provisioner.Install(ctx, c.Args().First(), os.Geteuid())
			if err != nil {
				return err
			}
			printReport(h.Log, report)
			return nil
		},
	}
}

func cmdMenu() *cli.Command {
	return &cli.Command{
		Name:  "menu",
		Usage: "Prepare the system once, then pick products to install until exit is chosen",
		Action: func(ctx context.Context, c *cli.Command) error {
			h := mustInstaller(ctx)
			p := h.Provisioner

			if err := provision.EnsureRoot(os.Geteuid()); err != nil {
				return err
			}
			if !p.Settings().SkipUpgrade {
				if err := p.UpgradeSystem(ctx); err != nil {
					return err
				}
			}
			if _, err := p.EnsurePackages(ctx, p.Settings().Packages); err != nil {
				return err
			}

			options := lo.Map(provision.AllActions(), func(a provision.Action, _ int) prompt.Option {
				return prompt.Option{Name: a.String(), Description: a.Description()}
			})
			options = append(options, prompt.Option{Name: exitOption, Description: "Leave the installer"})

			for {
				choice, err := h.Prompter.Choose(ctx, "Select the service to install", options)
				if errors.Is(err, prompt.ErrAborted) || choice == exitOption {
					h.Log.Info("Leaving installer")
					return nil
				}
				if err != nil {
					return err
				}

				action, err := provision.ParseAction(choice)
				if err != nil {
					return err
				}
				report, err := p.Run(ctx, action)
				if err != nil {
					return err
				}
				printReport(h.Log, report)
			}
		},
	}
}

func cmdActions() *cli.Command {
	return &cli.Command{
		Name:  "actions",
		Usage: "List the products that can be installed",
		Action: func(ctx context.Context, c *cli.Command) error {
			type entry struct {
				Name        string `json:"name"`
				Description string `json:"description"`
			}
			entries := lo.Map(provision.AllActions(), func(a provision.Action, _ int) entry {
				return entry{Name: a.String(), Description: a.Description()}
			})

			if !isTTY(os.Stdout) {
				return json.NewEncoder(os.Stdout).Encode(entries)
			}
			for _, e := range entries {
				fmt.Println(titleStyle.Width(16).Render(e.Name) + labelStyle.Render(e.Description))
			}
			return nil
		},
	}
}

func printReport(log *slog.Logger, r *provision.Report) {
	if r == nil {
		return
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("✔ %s", r.Action)))
	if r.Sync != "" {
		fmt.Printf("  %s %s\n", labelStyle.Render("repository:"), r.Sync)
	}
	if len(r.Copied) > 0 {
		fmt.Printf("  %s %s\n", labelStyle.Render("copied:"), strings.Join(r.Copied, ", "))
	}
	if r.Unit != "" {
		fmt.Printf("  %s %s\n", labelStyle.Render("unit:"), r.Unit)
	}
	if r.Autostart != "" {
		fmt.Printf("  %s %s\n", labelStyle.Render("autostart:"), r.Autostart)
	}
	for _, note := range r.Notes {
		fmt.Println(noteStyle.Render(note))
	}

	log.Debug("Action report", slog.String("action", r.Action.String()), slog.Any("copied", r.Copied))
}
