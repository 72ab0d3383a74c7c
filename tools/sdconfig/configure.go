package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/infomedia-iot/iot-provisioner/sdcard"
	"github.com/urfave/cli/v3"
)

var doneStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))

func cmdConfigure() *cli.Command {
	return &cli.Command{
		Name:  "configure",
		Usage: "Write boot configuration and seed the root filesystem of a freshly flashed card",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "profile", Usage: "YAML profile; flags override its values", Sources: cli.EnvVars("SDCONFIG_PROFILE")},
			&cli.StringFlag{Name: "boot", Usage: "mounted boot partition", Sources: cli.EnvVars("SDCONFIG_BOOT")},
			&cli.StringFlag{Name: "image", Usage: "image file or unmounted card to write the boot partition of, instead of --boot", Sources: cli.EnvVars("SDCONFIG_IMAGE")},
			&cli.IntFlag{Name: "boot-partition", Usage: "partition number of the boot filesystem inside --image", Value: sdcard.DefaultBootPartition},
			&cli.StringFlag{Name: "root", Usage: "mounted root partition", Sources: cli.EnvVars("SDCONFIG_ROOT")},
			&cli.StringFlag{Name: "hostname", Usage: "device hostname, asked for when not set", Sources: cli.EnvVars("SDCONFIG_HOSTNAME")},
			&cli.StringFlag{Name: "user", Usage: "account created on first boot", Sources: cli.EnvVars("SDCONFIG_USER")},
			&cli.StringFlag{Name: "password", Usage: "password of the account", Sources: cli.EnvVars("SDCONFIG_PASSWORD")},
			&cli.BoolFlag{Name: "ask-password", Usage: "read the password from the terminal"},
			&cli.StringFlag{Name: "ssid", Usage: "Wi-Fi network; no supplicant config is written without it", Sources: cli.EnvVars("SDCONFIG_WIFI_SSID")},
			&cli.StringFlag{Name: "psk", Usage: "Wi-Fi passphrase", Sources: cli.EnvVars("SDCONFIG_WIFI_PSK")},
			&cli.StringFlag{Name: "country", Usage: "Wi-Fi regulatory country", Sources: cli.EnvVars("SDCONFIG_WIFI_COUNTRY")},
			&cli.StringFlag{Name: "installer", Usage: "installer binary copied into the user's home (default: iot-installer next to sdconfig)", Sources: cli.EnvVars("SDCONFIG_INSTALLER")},
			&cli.StringFlag{Name: "ssh-key", Usage: "authorize this key (private key path, generated when missing)", Sources: cli.EnvVars("SDCONFIG_SSH_KEY")},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			h := mustTool(ctx)

			profile, err := profileFromFlags(ctx, c)
			if err != nil {
				return err
			}

			result, err := sdcard.NewConfigurator(profile, h.Runner, h.Prompter, h.Log).Configure(ctx)
			if err != nil {
				return err
			}

			fmt.Println(doneStyle.Render(fmt.Sprintf("Card configured for %s", result.Hostname)))
			fmt.Printf("  boot:      %s\n", result.Boot)
			fmt.Printf("  installer: %s\n", result.Installer)
			fmt.Printf("  device id: %s\n", result.DeviceID)
			if result.AuthorizedKeys != "" {
				fmt.Printf("  ssh:       %s\n", result.AuthorizedKeys)
			}
			return nil
		},
	}
}

func profileFromFlags(ctx context.Context, c *cli.Command) (sdcard.Profile, error) {
	profile := sdcard.DefaultProfile()
	if path := c.String("profile"); path != "" {
		loaded, err := sdcard.LoadProfile(path)
		if err != nil {
			return profile, err
		}
		profile = loaded
	}

	for flag, field := range map[string]*string{
		"boot":      &profile.Boot,
		"image":     &profile.Image,
		"root":      &profile.Root,
		"hostname":  &profile.Hostname,
		"user":      &profile.Username,
		"password":  &profile.Password,
		"ssid":      &profile.WiFi.SSID,
		"psk":       &profile.WiFi.PSK,
		"country":   &profile.WiFi.Country,
		"installer": &profile.Installer,
		"ssh-key":   &profile.SSH.Key,
	} {
		if c.IsSet(flag) {
			*field = c.String(flag)
		}
	}
	if c.IsSet("boot-partition") {
		profile.BootPartition = int(c.Int("boot-partition"))
	}
	if c.IsSet("ssh-key") {
		profile.SSH.Authorize = true
	}

	if c.Bool("ask-password") {
		password, err := mustTool(ctx).Prompter.Secret(ctx, "Password for "+profile.Username)
		if err != nil {
			return profile, err
		}
		profile.Password = password
	}

	if profile.Installer == "" {
		profile.Installer = defaultInstaller()
	}
	return profile, nil
}

func defaultInstaller() string {
	exe, err := os.Executable()
	if err != nil {
		return sdcard.InstallerName
	}
	return filepath.Join(filepath.Dir(exe), sdcard.InstallerName)
}
