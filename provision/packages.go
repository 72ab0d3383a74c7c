package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// EnsurePackages installs every package dpkg does not report as installed. The first
// failed install aborts the run; later packages are not looked at.
func (p *Provisioner) EnsurePackages(ctx context.Context, packages []string) ([]string, error) {
	var installed []string

	for _, pkg := range packages {
		l := p.log.With(slog.String("package", pkg))
		l.Debug("Checking package")

		if _, err := p.runner.Output(ctx, "dpkg", "-s", pkg); err == nil {
			l.Info("Package already installed")
			continue
		}

		l.Info("Package missing, installing")
		if err := p.runner.Run(ctx, "apt", "install", "-y", pkg); err != nil {
			return installed, errors.Join(ErrPackageInstall, fmt.Errorf("%s: %w", pkg, err))
		}
		installed = append(installed, pkg)
		l.Info("Package installed")
	}

	return installed, nil
}
