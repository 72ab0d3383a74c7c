package provision

import (
	"os"
	"os/user"
	"path/filepath"
)

const (
	DefaultBasePath = "/usr/local/device"
	DefaultUnitDir  = "/etc/systemd/system"

	DeviceIDFile = "device.id"
)

var DefaultPackages = []string{"git", "nodejs", "npm", "python3-dateutil"}

type Settings struct {
	BasePath    string
	UnitDir     string
	User        string // account that owns graphical sessions and user units
	Home        string // home directory of User
	Packages    []string
	SkipUpgrade bool
}

func DefaultSettings() Settings {
	return Settings{
		BasePath: DefaultBasePath,
		UnitDir:  DefaultUnitDir,
		Packages: append([]string(nil), DefaultPackages...),
	}
}

// RuntimeUser returns the account that invoked the installer. Under sudo this is the
// original user rather than root.
func RuntimeUser() string {
	if u := os.Getenv("SUDO_USER"); u != "" {
		return u
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}

// HomeOf resolves the home directory of username, falling back to the usual layout.
func HomeOf(username string) string {
	if u, err := user.Lookup(username); err == nil && u.HomeDir != "" {
		return u.HomeDir
	}
	if username == "root" {
		return "/root"
	}
	return filepath.Join("/home", username)
}

// withDefaults fills zero fields and makes the directories absolute, since unit links
// are resolved from the unit directory.
func (s Settings) withDefaults() Settings {
	if s.BasePath == "" {
		s.BasePath = DefaultBasePath
	}
	if s.UnitDir == "" {
		s.UnitDir = DefaultUnitDir
	}
	s.BasePath = absPath(s.BasePath)
	s.UnitDir = absPath(s.UnitDir)
	if s.User == "" {
		s.User = RuntimeUser()
	}
	if s.Home == "" {
		s.Home = HomeOf(s.User)
	}
	if s.Packages == nil {
		s.Packages = append([]string(nil), DefaultPackages...)
	}
	return s
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
