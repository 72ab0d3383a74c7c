package sdcard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/disk"
	"github.com/diskfs/go-diskfs/filesystem"
	"github.com/infomedia-iot/iot-provisioner/common"
)

// BootTarget receives the boot configuration files. Names are relative to the root of
// the boot partition.
type BootTarget interface {
	WriteFile(name string, data []byte) error
	String() string
	Close() error
}

// DirTarget writes into a mounted boot partition.
type DirTarget struct {
	Dir string
}

func OpenDirTarget(dir string) (*DirTarget, error) {
	if !common.DirExists(dir) {
		return nil, fmt.Errorf("%w: boot %s", ErrMountMissing, dir)
	}
	return &DirTarget{Dir: dir}, nil
}

func (t *DirTarget) WriteFile(name string, data []byte) error {
	return os.WriteFile(filepath.Join(t.Dir, name), data, 0o644)
}

func (t *DirTarget) String() string {
	return t.Dir
}

func (t *DirTarget) Close() error {
	return nil
}

// ImageTarget writes into the FAT boot partition of a raw image or an unmounted card,
// without mounting it.
type ImageTarget struct {
	path string
	disk *disk.Disk
	fs   filesystem.FileSystem
}

// OpenImageTarget opens partition (1-based) of the image at path.
func OpenImageTarget(path string, partition int) (*ImageTarget, error) {
	if !common.PathExists(path) {
		return nil, fmt.Errorf("%w: image %s", ErrMountMissing, path)
	}

	d, err := diskfs.Open(path, diskfs.WithOpenMode(diskfs.ReadWrite))
	if err != nil {
		return nil, errors.Join(ErrMountMissing, fmt.Errorf("open image %s: %w", path, err))
	}

	fs, err := d.GetFilesystem(partition)
	if err != nil {
		d.Close()
		return nil, errors.Join(ErrMountMissing, fmt.Errorf("partition %d of %s: %w", partition, path, err))
	}
	if fs.Type() != filesystem.TypeFat32 {
		fs.Close()
		d.Close()
		return nil, fmt.Errorf("%w: partition %d of %s is not a FAT filesystem", ErrMountMissing, partition, path)
	}

	return &ImageTarget{path: path, disk: d, fs: fs}, nil
}

func (t *ImageTarget) WriteFile(name string, data []byte) error {
	f, err := t.fs.OpenFile("/"+name, os.O_RDWR|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (t *ImageTarget) String() string {
	return t.path
}

func (t *ImageTarget) Close() error {
	return errors.Join(t.fs.Close(), t.disk.Close())
}
