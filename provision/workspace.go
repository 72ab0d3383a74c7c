package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/infomedia-iot/iot-provisioner/common"
)

// EnsureWorkspace creates the base directory on first run and records the device name
// the operator enters. An existing base directory is left alone: no prompt and the
// identity marker is not touched.
func (p *Provisioner) EnsureWorkspace(ctx context.Context) (bool, error) {
	base := p.settings.BasePath

	if common.PathExists(base) {
		p.log.Info("Base directory already exists", slog.String("path", base))
		return false, nil
	}

	// ask before creating anything so an aborted prompt leaves no half initialized base
	name, err := p.prompter.Ask(ctx, "Device name")
	if err != nil {
		return false, errors.Join(ErrDeviceName, err)
	}

	if err := os.MkdirAll(base, 0o755); err != nil {
		return false, errors.Join(ErrWorkspace, err)
	}
	p.log.Info("Base directory created", slog.String("path", base))

	marker := p.path(DeviceIDFile)
	if err := os.WriteFile(marker, []byte(name+"\n"), 0o644); err != nil {
		return true, errors.Join(ErrWorkspace, fmt.Errorf("write %s: %w", marker, err))
	}
	p.log.Info("Device identity recorded", slog.String("path", marker), slog.String("device", name))

	return true, nil
}

// DeviceName returns the content of the identity marker.
func (p *Provisioner) DeviceName() (string, error) {
	data, err := os.ReadFile(p.path(DeviceIDFile))
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// CreateDirectories creates each directory below the base path unless it exists.
func (p *Provisioner) CreateDirectories(dirs ...string) error {
	for _, dir := range dirs {
		path := p.path(dir)
		if common.DirExists(path) {
			p.log.Debug("Directory already exists", slog.String("path", path))
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return errors.Join(ErrWorkspace, err)
		}
		p.log.Info("Directory created", slog.String("path", path))
	}
	return nil
}
