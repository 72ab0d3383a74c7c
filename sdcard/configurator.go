package sdcard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/infomedia-iot/iot-provisioner/common"
	"github.com/infomedia-iot/iot-provisioner/logging"
	"github.com/infomedia-iot/iot-provisioner/prompt"
	"github.com/infomedia-iot/iot-provisioner/provision"
	"golang.org/x/crypto/ssh"
)

// Result lists what Configure wrote.
type Result struct {
	Hostname       string
	Boot           string
	BootFiles      []string
	Installer      string
	DeviceID       string
	AuthorizedKeys string
	KeyGenerated   bool
}

// Configurator prepares a freshly written card: boot configuration on the boot partition,
// device identity and installer on the root partition.
type Configurator struct {
	profile  Profile
	runner   common.Runner
	prompter prompt.Prompter
	log      *slog.Logger
}

func NewConfigurator(profile Profile, runner common.Runner, prompter prompt.Prompter, logger *slog.Logger) *Configurator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Configurator{
		profile:  profile,
		runner:   runner,
		prompter: prompter,
		log:      logger,
	}
}

// Configure runs every step in order and stops at the first failure. Files written before
// the failure stay on the card.
func (c *Configurator) Configure(ctx context.Context) (result *Result, err error) {
	if err := c.profile.Validate(); err != nil {
		return nil, err
	}

	boot, err := c.openBoot()
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := boot.Close(); closeErr != nil {
			err = errors.Join(err, ErrBootWrite, closeErr)
		}
	}()

	if !common.DirExists(c.profile.Root) {
		return nil, fmt.Errorf("%w: root %s", ErrMountMissing, c.profile.Root)
	}
	if !common.FileExists(c.profile.Installer) {
		return nil, fmt.Errorf("%w: %s", ErrInstallerMissing, c.profile.Installer)
	}

	hostname, err := c.hostname(ctx)
	if err != nil {
		return nil, err
	}
	result = &Result{Hostname: hostname, Boot: boot.String()}

	c.log.Info("Hashing password", slog.String("user", c.profile.Username))
	hash, err := HashPassword(ctx, c.runner, c.profile.Password)
	if err != nil {
		return result, err
	}

	if result.BootFiles, err = c.writeBoot(boot, hostname, hash); err != nil {
		return result, err
	}
	c.log.Info("Boot partition configured", slog.String("target", boot.String()), slog.Any("files", result.BootFiles))

	if err := c.seedRoot(result); err != nil {
		return result, err
	}
	c.log.Info("Root partition configured", slog.String("root", c.profile.Root))

	if c.profile.SSH.Authorize {
		if err := c.authorizeKey(result); err != nil {
			return result, err
		}
	}

	return result, nil
}

func (c *Configurator) openBoot() (BootTarget, error) {
	if c.profile.Image != "" {
		return OpenImageTarget(c.profile.Image, c.profile.BootPartition)
	}
	return OpenDirTarget(c.profile.Boot)
}

func (c *Configurator) hostname(ctx context.Context) (string, error) {
	name := c.profile.Hostname
	if name == "" {
		answer, err := c.prompter.Ask(ctx, "Device hostname")
		if err != nil {
			return "", errors.Join(ErrInvalidHostname, err)
		}
		name = strings.TrimSpace(answer)
	}

	if err := ValidateHostname(name); err != nil {
		return "", err
	}
	return name, nil
}

type bootFile struct {
	name string
	data string
}

func (c *Configurator) writeBoot(boot BootTarget, hostname, hash string) ([]string, error) {
	files := []bootFile{
		{"ssh", ""},
		{"vnc.txt", "enabled=1\n"},
		{"userconf", c.profile.Username + ":" + hash + "\n"},
		{"hostname", hostname + "\n"},
	}

	if c.profile.WiFi.SSID == "" {
		c.log.Warn("No Wi-Fi network configured, wpa_supplicant.conf not written")
	} else {
		body, err := RenderWiFi(c.profile.WiFi)
		if err != nil {
			return nil, err
		}
		files = append(files, bootFile{"wpa_supplicant.conf", body})
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		if err := boot.WriteFile(f.name, []byte(f.data)); err != nil {
			return written, errors.Join(ErrBootWrite, fmt.Errorf("%s: %w", f.name, err))
		}
		c.log.Debug("Boot file written", slog.String("file", f.name))
		written = append(written, f.name)
	}
	return written, nil
}

func (c *Configurator) userHome() string {
	return filepath.Join(c.profile.Root, "home", c.profile.Username)
}

func (c *Configurator) seedRoot(result *Result) error {
	home := c.userHome()
	if err := os.MkdirAll(home, 0o755); err != nil {
		return errors.Join(ErrRootWrite, err)
	}

	installer := filepath.Join(home, InstallerName)
	if err := common.CopyFile(c.profile.Installer, installer); err != nil {
		return errors.Join(ErrRootWrite, fmt.Errorf("copy installer: %w", err))
	}
	if err := os.Chmod(installer, 0o755); err != nil {
		return errors.Join(ErrRootWrite, err)
	}
	c.chown(home, installer)
	result.Installer = installer

	deviceDir := filepath.Join(c.profile.Root, provision.DefaultBasePath)
	if err := os.MkdirAll(deviceDir, 0o755); err != nil {
		return errors.Join(ErrRootWrite, err)
	}
	marker := filepath.Join(deviceDir, provision.DeviceIDFile)
	if err := os.WriteFile(marker, []byte(result.Hostname+"\n"), 0o644); err != nil {
		return errors.Join(ErrRootWrite, err)
	}
	result.DeviceID = marker

	return nil
}

func (c *Configurator) authorizeKey(result *Result) error {
	comment := c.profile.Username + "@" + result.Hostname

	pub, generated, err := EnsureKeyPair(c.profile.SSH.Key, comment)
	if err != nil {
		return err
	}
	if generated {
		c.log.Info("SSH key pair generated", slog.String("key", c.profile.SSH.Key))
	}
	result.KeyGenerated = generated

	path, added, err := AuthorizeKey(c.userHome(), pub, comment)
	if err != nil {
		return err
	}
	c.chown(filepath.Dir(path), path)
	result.AuthorizedKeys = path

	if added {
		c.log.Info("SSH key authorized", slog.String("file", path), slog.String("fingerprint", ssh.FingerprintSHA256(pub)))
	} else {
		c.log.Info("SSH key already authorized", slog.String("file", path))
	}
	return nil
}

// chown hands paths on the card to the account userconf creates on first boot. Failing is
// expected when not running as root.
func (c *Configurator) chown(paths ...string) {
	for _, path := range paths {
		if err := os.Lchown(path, c.profile.UID, c.profile.GID); err != nil {
			c.log.Warn("Failed to change ownership", slog.String("path", path), slog.Any("error", err))
		}
	}
}
