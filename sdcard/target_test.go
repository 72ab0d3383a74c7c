package sdcard

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/disk"
	"github.com/diskfs/go-diskfs/filesystem"
	"github.com/diskfs/go-diskfs/partition/mbr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	imageSize      = 48 << 20
	partitionStart = 2048
)

// newBootImage creates a raw image with a single FAT32 partition, like a freshly
// flashed card.
func newBootImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "card.img")

	d, err := diskfs.Create(path, imageSize, diskfs.SectorSizeDefault)
	require.NoError(t, err)

	require.NoError(t, d.Partition(&mbr.Table{
		LogicalSectorSize:  512,
		PhysicalSectorSize: 512,
		Partitions: []*mbr.Partition{{
			Bootable: true,
			Type:     mbr.Fat32LBA,
			Start:    partitionStart,
			Size:     uint32(imageSize/512 - partitionStart),
		}},
	}))

	fs, err := d.CreateFilesystem(disk.FilesystemSpec{
		Partition:   1,
		FSType:      filesystem.TypeFat32,
		VolumeLabel: "bootfs",
	})
	require.NoError(t, err)
	require.NoError(t, fs.Close())
	require.NoError(t, d.Close())
	return path
}

func readImageFile(t *testing.T, image, name string) string {
	t.Helper()
	d, err := diskfs.Open(image, diskfs.WithOpenMode(diskfs.ReadOnly))
	require.NoError(t, err)
	defer d.Close()

	fs, err := d.GetFilesystem(1)
	require.NoError(t, err)
	f, err := fs.OpenFile("/"+name, os.O_RDONLY)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	return string(data)
}

func TestImageTargetWritesBootPartition(t *testing.T) {
	image := newBootImage(t)

	target, err := OpenImageTarget(image, 1)
	require.NoError(t, err)
	assert.Equal(t, image, target.String())
	require.NoError(t, target.WriteFile("hostname", []byte("a-much-longer-hostname\n")))
	require.NoError(t, target.WriteFile("hostname", []byte("short\n")))
	require.NoError(t, target.Close())

	// rewriting truncates the previous content
	assert.Equal(t, "short\n", readImageFile(t, image, "hostname"))
}

func TestImageTargetMissingPartition(t *testing.T) {
	image := newBootImage(t)

	_, err := OpenImageTarget(image, 3)
	require.ErrorIs(t, err, ErrMountMissing)
}

func TestConfigureIntoImage(t *testing.T) {
	c := newCard(t)
	c.profile.Boot = ""
	c.profile.Image = newBootImage(t)

	result, err := c.configure(t, "kiosk-09")
	require.NoError(t, err)
	assert.Equal(t, c.profile.Image, result.Boot)

	assert.Equal(t, "kiosk-09\n", readImageFile(t, c.profile.Image, "hostname"))
	assert.Equal(t, "enabled=1\n", readImageFile(t, c.profile.Image, "vnc.txt"))
	assert.Equal(t, "infomedia:"+fakeHash+"\n", readImageFile(t, c.profile.Image, "userconf"))
	assert.Equal(t, "kiosk-09\n", readString(t, filepath.Join(c.root, "usr", "local", "device", "device.id")))
}
