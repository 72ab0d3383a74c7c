package provision

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/infomedia-iot/iot-provisioner/common"
)

// CopyFiles copies the listed paths (relative to src) into dst, creating parent
// directories as needed. Files missing at the source are skipped with a warning.
// It returns the relative paths that were copied.
func (p *Provisioner) CopyFiles(files []string, src, dst string) ([]string, error) {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, errors.Join(ErrMaterialize, err)
	}

	copied := make([]string, 0, len(files))
	for _, name := range files {
		from := filepath.Join(src, name)
		to := filepath.Join(dst, name)

		if !common.FileExists(from) {
			p.log.Warn("Source file missing, skipping", slog.String("file", name), slog.String("source", src))
			continue
		}

		if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
			return copied, errors.Join(ErrMaterialize, err)
		}
		if err := common.CopyFile(from, to); err != nil {
			return copied, errors.Join(ErrMaterialize, fmt.Errorf("copy %s to %s: %w", from, to, err))
		}

		p.log.Info("File copied", slog.String("src", from), slog.String("dst", to))
		copied = append(copied, name)
	}

	return copied, nil
}

// CopyTree recursively copies src into dst, overwriting what is already there.
func (p *Provisioner) CopyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return errors.Join(ErrMaterialize, err)
	}
	if !info.IsDir() {
		return errors.Join(ErrMaterialize, fmt.Errorf("%s is not a directory", src))
	}

	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			if err := os.RemoveAll(target); err != nil {
				return err
			}
			return os.Symlink(link, target)
		default:
			if common.PathExists(target) && !common.FileExists(target) {
				// a directory or dangling link in the way of a regular file
				if err := os.RemoveAll(target); err != nil {
					return err
				}
			}
			return common.CopyFile(path, target)
		}
	})
	if err != nil {
		return errors.Join(ErrMaterialize, fmt.Errorf("copy tree %s to %s: %w", src, dst, err))
	}

	p.log.Info("Directory copied", slog.String("src", src), slog.String("dst", dst))
	return nil
}
