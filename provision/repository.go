package provision

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/infomedia-iot/iot-provisioner/common"
)

type SyncResult string

const (
	SyncCloned  SyncResult = "cloned"
	SyncUpdated SyncResult = "updated"
	SyncSkipped SyncResult = "skipped" // path exists but is not a git checkout
)

// SyncRepository clones url into relPath below the base path, or pulls when relPath is
// already a checkout. A path that exists without .git is reported and left alone.
func (p *Provisioner) SyncRepository(ctx context.Context, relPath, url string) (SyncResult, error) {
	path := p.path(relPath)
	l := p.log.With(slog.String("path", path))

	if !common.PathExists(path) {
		l.Info("Cloning repository", slog.String("url", url))
		if err := p.runner.Run(ctx, "git", "clone", url, path); err != nil {
			return "", errors.Join(ErrClone, err)
		}
		l.Info("Repository cloned")
		return SyncCloned, nil
	}

	if !common.PathExists(filepath.Join(path, ".git")) {
		l.Warn("Path exists but is not a git repository, nothing synchronized")
		return SyncSkipped, nil
	}

	l.Info("Updating repository")
	if err := p.runner.Run(ctx, "git", "-C", path, "pull"); err != nil {
		return "", errors.Join(ErrPull, err)
	}
	l.Info("Repository updated")
	return SyncUpdated, nil
}
