package sdcard

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/infomedia-iot/iot-provisioner/logging"
)

const SysBlock = "/sys/block"

// Device is a removable block device a card can be flashed to.
type Device struct {
	Name      string
	Path      string
	SizeBytes uint64
	Model     string
}

// DiscoverRemovable lists removable disks under sysBlock, skipping loop and ram devices
// and empty card readers.
func DiscoverRemovable(sysBlock string, logger *slog.Logger) ([]Device, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	paths, err := filepath.Glob(filepath.Join(sysBlock, "*", "removable"))
	if err != nil {
		return nil, fmt.Errorf("failed to list block devices: %w", err)
	}

	var devices []Device
	for _, removablePath := range paths {
		if strings.TrimSpace(readSysfsValue(removablePath)) != "1" {
			continue
		}

		dir := filepath.Dir(removablePath)
		name := filepath.Base(dir)
		if strings.HasPrefix(name, "loop") || strings.HasPrefix(name, "ram") {
			continue
		}

		size := readBlockSizeBytes(dir)
		if size == 0 {
			logger.Debug("Skipping device without medium", slog.String("device", name))
			continue
		}

		devices = append(devices, Device{
			Name:      name,
			Path:      filepath.Join("/dev", name),
			SizeBytes: size,
			Model:     strings.TrimSpace(readSysfsValue(filepath.Join(dir, "device", "model"))),
		})
	}

	if len(devices) == 0 {
		return nil, ErrNoDevices
	}
	return devices, nil
}

func readSysfsValue(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

func readBlockSizeBytes(dir string) uint64 {
	sectors, err := strconv.ParseUint(strings.TrimSpace(readSysfsValue(filepath.Join(dir, "size"))), 10, 64)
	if err != nil {
		return 0
	}
	return sectors * 512 // sysfs counts 512-byte sectors
}
