package provision

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"gopkg.in/ini.v1"
)

func init() {
	// desktop entries are read by parsers that do not tolerate padded "Key = Value"
	ini.PrettyFormat = false
}

// AutostartEntry is a freedesktop Desktop Entry started with the graphical session.
type AutostartEntry struct {
	Name    string // file name without .desktop
	Title   string
	Comment string
	Exec    string
}

// AutostartPath returns the location of the entry in the runtime user's session.
func (p *Provisioner) AutostartPath(name string) string {
	return filepath.Join(p.settings.Home, ".config", "autostart", name+".desktop")
}

// WriteAutostart writes the entry and hands ownership to the runtime user when that user
// can be resolved.
func (p *Provisioner) WriteAutostart(entry AutostartEntry) (string, error) {
	if entry.Name == "" || entry.Exec == "" {
		return "", errors.Join(ErrAutostart, errors.New("entry needs a name and a command"))
	}

	dst := p.AutostartPath(entry.Name)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", errors.Join(ErrAutostart, err)
	}

	cfg := ini.Empty()
	section, err := cfg.NewSection("Desktop Entry")
	if err != nil {
		return "", errors.Join(ErrAutostart, err)
	}
	title := entry.Title
	if title == "" {
		title = entry.Name
	}
	for _, kv := range [][2]string{
		{"Type", "Application"},
		{"Name", title},
		{"Comment", entry.Comment},
		{"Exec", entry.Exec},
		{"X-GNOME-Autostart-enabled", "true"},
		{"NoDisplay", "false"},
	} {
		if kv[1] == "" {
			continue
		}
		if _, err := section.NewKey(kv[0], kv[1]); err != nil {
			return "", errors.Join(ErrAutostart, err)
		}
	}

	if err := cfg.SaveTo(dst); err != nil {
		return "", errors.Join(ErrAutostart, fmt.Errorf("write %s: %w", dst, err))
	}

	p.chownToUser(filepath.Dir(dst), dst)
	p.log.Info("Autostart entry written", slog.String("path", dst))
	return dst, nil
}

func (p *Provisioner) chownToUser(paths ...string) {
	u, err := user.Lookup(p.settings.User)
	if err != nil {
		p.log.Warn("Cannot resolve runtime user, ownership left unchanged", slog.String("user", p.settings.User), slog.Any("error", err))
		return
	}
	uid, errUID := strconv.Atoi(u.Uid)
	gid, errGID := strconv.Atoi(u.Gid)
	if errUID != nil || errGID != nil {
		p.log.Warn("Runtime user has non-numeric ids, ownership left unchanged", slog.String("user", p.settings.User))
		return
	}

	for _, path := range paths {
		if err := os.Lchown(path, uid, gid); err != nil {
			p.log.Warn("Failed to change ownership", slog.String("path", path), slog.Any("error", err))
		}
	}
}
