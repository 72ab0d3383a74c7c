package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/infomedia-iot/iot-provisioner/common"
)

// RegisterService links unitPath into the unit directory, reloads the service manager,
// then enables and starts the unit. Steps already done are not rolled back when a later
// one fails.
func (p *Provisioner) RegisterService(ctx context.Context, unitPath string) error {
	unitPath = absPath(unitPath)
	if !common.FileExists(unitPath) {
		return fmt.Errorf("%w: %s", ErrUnitMissing, unitPath)
	}

	name := filepath.Base(unitPath)
	link := filepath.Join(p.settings.UnitDir, name)
	l := p.log.With(slog.String("unit", name))

	info, err := os.Stat(unitPath)
	if err != nil {
		return errors.Join(ErrChmod, err)
	}
	if err := os.Chmod(unitPath, info.Mode().Perm()|0o111); err != nil {
		return errors.Join(ErrChmod, err)
	}

	if common.PathExists(link) {
		l.Debug("Removing existing unit link", slog.String("link", link))
		if err := os.Remove(link); err != nil {
			return errors.Join(ErrLink, err)
		}
	}
	if err := os.MkdirAll(p.settings.UnitDir, 0o755); err != nil {
		return errors.Join(ErrLink, err)
	}
	if err := os.Symlink(unitPath, link); err != nil {
		return errors.Join(ErrLink, err)
	}
	l.Info("Unit linked", slog.String("link", link))

	if err := p.runner.Run(ctx, "systemctl", "daemon-reload"); err != nil {
		return errors.Join(ErrDaemonReload, err)
	}
	if err := p.runner.Run(ctx, "systemctl", "enable", name); err != nil {
		return errors.Join(ErrEnable, err)
	}
	if err := p.runner.Run(ctx, "systemctl", "start", name); err != nil {
		return errors.Join(ErrStart, err)
	}

	l.Info("Service registered and started")
	return nil
}
