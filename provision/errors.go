package provision

import "errors"

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrNotRoot       = errors.New("must be run as root")

	ErrUpgrade        = errors.New("failed to upgrade the system")
	ErrPackageInstall = errors.New("failed to install package")

	ErrWorkspace  = errors.New("failed to prepare workspace")
	ErrDeviceName = errors.New("failed to obtain device name")

	ErrClone = errors.New("failed to clone repository")
	ErrPull  = errors.New("failed to update repository")

	ErrMaterialize  = errors.New("failed to copy files")
	ErrDependencies = errors.New("failed to install runtime dependencies")

	ErrTemplate = errors.New("failed to render unit")

	ErrUnitMissing  = errors.New("unit file does not exist")
	ErrChmod        = errors.New("failed to mark unit executable")
	ErrLink         = errors.New("failed to link unit")
	ErrDaemonReload = errors.New("failed to reload service manager")
	ErrEnable       = errors.New("failed to enable unit")
	ErrStart        = errors.New("failed to start unit")

	ErrAutostart = errors.New("failed to write autostart entry")
)
