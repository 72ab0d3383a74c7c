package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/infomedia-iot/iot-provisioner/common"
	"github.com/infomedia-iot/iot-provisioner/logging"
	"github.com/infomedia-iot/iot-provisioner/prompt"
)

// Provisioner installs products onto the device it runs on. All paths are derived from
// Settings; nothing depends on the process working directory.
type Provisioner struct {
	settings Settings
	runner   common.Runner
	prompter prompt.Prompter
	log      *slog.Logger
}

func New(settings Settings, runner common.Runner, prompter prompt.Prompter, logger *slog.Logger) *Provisioner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Provisioner{
		settings: settings.withDefaults(),
		runner:   runner,
		prompter: prompter,
		log:      logger,
	}
}

func (p *Provisioner) Settings() Settings {
	return p.settings
}

// path joins elements onto the base path.
func (p *Provisioner) path(elem ...string) string {
	return filepath.Join(append([]string{p.settings.BasePath}, elem...)...)
}

func EnsureRoot(euid int) error {
	if euid != 0 {
		return fmt.Errorf("%w (euid %d)", ErrNotRoot, euid)
	}
	return nil
}

// Install validates the action name, then runs the privilege guard, the system upgrade,
// the package ensurer and the action itself, stopping at the first failure.
func (p *Provisioner) Install(ctx context.Context, name string, euid int) (*Report, error) {
	action, err := ParseAction(name)
	if err != nil {
		return nil, err
	}

	if err := EnsureRoot(euid); err != nil {
		return nil, err
	}

	if !p.settings.SkipUpgrade {
		if err := p.UpgradeSystem(ctx); err != nil {
			return nil, err
		}
	}

	if _, err := p.EnsurePackages(ctx, p.settings.Packages); err != nil {
		return nil, err
	}

	return p.Run(ctx, action)
}

func (p *Provisioner) UpgradeSystem(ctx context.Context) error {
	p.log.Info("Updating package lists and upgrading the system")

	if err := p.runner.Run(ctx, "apt", "update"); err != nil {
		return errors.Join(ErrUpgrade, err)
	}
	if err := p.runner.Run(ctx, "apt", "upgrade", "-y"); err != nil {
		return errors.Join(ErrUpgrade, err)
	}

	p.log.Info("System upgraded")
	return nil
}
