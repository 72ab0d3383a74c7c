package sdcard

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultUsername = "infomedia"
	DefaultPassword = "iotmedia"
	DefaultCountry  = "CO"

	// first account created from userconf on Raspberry Pi OS
	DefaultUID = 1000
	DefaultGID = 1000

	DefaultBootPartition = 1
	InstallerName        = "iot-installer"
)

type WiFi struct {
	SSID    string `yaml:"ssid"`
	PSK     string `yaml:"psk"`
	Country string `yaml:"country"`
}

type SSH struct {
	Authorize bool   `yaml:"authorize"`
	Key       string `yaml:"key"` // private key path, the public half is <key>.pub
}

// Profile describes how a freshly written card is configured.
type Profile struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	UID      int    `yaml:"uid"`
	GID      int    `yaml:"gid"`
	Hostname string `yaml:"hostname"`

	Boot          string `yaml:"boot"`           // mounted boot partition
	Image         string `yaml:"image"`          // raw image or block device, used instead of Boot
	BootPartition int    `yaml:"boot_partition"` // 1-based, only with Image
	Root          string `yaml:"root"`           // mounted root partition

	Installer string `yaml:"installer"`

	WiFi WiFi `yaml:"wifi"`
	SSH  SSH  `yaml:"ssh"`
}

func DefaultProfile() Profile {
	return Profile{
		Username:      DefaultUsername,
		Password:      DefaultPassword,
		UID:           DefaultUID,
		GID:           DefaultGID,
		BootPartition: DefaultBootPartition,
		WiFi:          WiFi{Country: DefaultCountry},
	}
}

// LoadProfile reads a YAML profile over the defaults. Unknown keys are rejected.
func LoadProfile(path string) (Profile, error) {
	profile := DefaultProfile()

	data, err := os.ReadFile(path)
	if err != nil {
		return profile, errors.Join(ErrProfile, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&profile); err != nil {
		return profile, errors.Join(ErrProfile, fmt.Errorf("%s: %w", path, err))
	}
	return profile, nil
}

var usernamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_-]{0,31}$`)

// Validate checks the fields that do not depend on the card being present.
func (p Profile) Validate() error {
	var errs []error

	if !usernamePattern.MatchString(p.Username) {
		errs = append(errs, fmt.Errorf("username %q is not a valid account name", p.Username))
	}
	if p.Password == "" {
		errs = append(errs, errors.New("password is empty"))
	}
	if p.Boot == "" && p.Image == "" {
		errs = append(errs, errors.New("either a boot mount or an image is required"))
	}
	if p.Image != "" && p.BootPartition < 1 {
		errs = append(errs, fmt.Errorf("boot partition %d out of range", p.BootPartition))
	}
	if p.Root == "" {
		errs = append(errs, errors.New("root mount is required"))
	}
	if p.SSH.Authorize && p.SSH.Key == "" {
		errs = append(errs, errors.New("ssh key path is required to authorize a key"))
	}
	if p.Hostname != "" {
		if err := ValidateHostname(p.Hostname); err != nil {
			errs = append(errs, err)
		}
	}
	if p.WiFi.SSID != "" {
		if err := p.WiFi.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(ErrProfile, errors.Join(errs...))
	}
	return nil
}

// ValidateHostname accepts a single RFC 1123 label.
func ValidateHostname(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidHostname)
	case len(name) > 63:
		return fmt.Errorf("%w: %q is longer than 63 characters", ErrInvalidHostname, name)
	case strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-"):
		return fmt.Errorf("%w: %q starts or ends with a hyphen", ErrInvalidHostname, name)
	}

	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			continue
		}
		return fmt.Errorf("%w: %q contains %q", ErrInvalidHostname, name, r)
	}
	return nil
}
