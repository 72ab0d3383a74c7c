package sdcard

import "errors"

var (
	ErrProfile          = errors.New("invalid profile")
	ErrMountMissing     = errors.New("mount path does not exist")
	ErrInstallerMissing = errors.New("installer binary not found")
	ErrInvalidHostname  = errors.New("invalid hostname")
	ErrPasswordHash     = errors.New("failed to hash password")
	ErrWiFi             = errors.New("invalid wi-fi configuration")
	ErrBootWrite        = errors.New("failed to write boot configuration")
	ErrRootWrite        = errors.New("failed to seed root filesystem")
	ErrSSHKey           = errors.New("failed to install ssh key")

	ErrFlash      = errors.New("failed to flash image")
	ErrSameTarget = errors.New("source and destination are the same file")
	ErrNoDevices  = errors.New("no removable block devices detected")
)
