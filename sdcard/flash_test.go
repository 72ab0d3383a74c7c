package sdcard

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"golang.org/x/crypto/ssh"
)

func testImage() []byte {
	return bytes.Repeat([]byte("iot-image-block\x00"), 64<<10)
}

func TestFlashRawImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "card.img")
	dst := filepath.Join(dir, "out.img")
	require.NoError(t, os.WriteFile(src, testImage(), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("stale content that is longer than nothing"), 0o644))

	n, err := Flash(context.Background(), src, dst, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(len(testImage())), n)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, testImage(), got)
}

func TestFlashDecompressesXZ(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "card.img.xz")
	dst := filepath.Join(dir, "out.img")

	var compressed bytes.Buffer
	w, err := xz.NewWriter(&compressed)
	require.NoError(t, err)
	_, err = w.Write(testImage())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(src, compressed.Bytes(), 0o644))

	n, err := Flash(context.Background(), src, dst, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(len(testImage())), n)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, testImage(), got)
}

func TestFlashRefusesSameFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "card.img")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))
	link := filepath.Join(dir, "alias.img")
	require.NoError(t, os.Symlink(src, link))

	_, err := Flash(context.Background(), src, link, nil)
	require.ErrorIs(t, err, ErrSameTarget)
}

func TestFlashHonoursCancellation(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "card.img")
	require.NoError(t, os.WriteFile(src, testImage(), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Flash(ctx, src, filepath.Join(dir, "out.img"), nil)
	require.ErrorIs(t, err, ErrFlash)
	require.ErrorIs(t, err, context.Canceled)
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512 B", HumanBytes(512))
	assert.Equal(t, "1.5 KiB", HumanBytes(1536))
	assert.Equal(t, "64.0 MiB", HumanBytes(64<<20))
	assert.Equal(t, "7.5 GiB", HumanBytes(7680<<20))
}

func TestDiscoverRemovable(t *testing.T) {
	sys := t.TempDir()
	device := func(name, removable, size, model string) {
		dir := filepath.Join(sys, name)
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "device"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "removable"), []byte(removable+"\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "size"), []byte(size+"\n"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "device", "model"), []byte(model+"\n"), 0o644))
	}
	device("sda", "0", "1000215216", "Internal SSD")
	device("sdb", "1", "62333952", "SD/MMC")
	device("sdc", "1", "0", "Empty Reader")
	device("loop0", "1", "2048", "")

	devices, err := DiscoverRemovable(sys, nil)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, Device{Name: "sdb", Path: "/dev/sdb", SizeBytes: 62333952 * 512, Model: "SD/MMC"}, devices[0])

	_, err = DiscoverRemovable(t.TempDir(), nil)
	require.ErrorIs(t, err, ErrNoDevices)
}

func TestAuthorizeKeyKeepsExistingEntries(t *testing.T) {
	home := t.TempDir()
	keyPath := filepath.Join(t.TempDir(), "id_ed25519")

	pub, generated, err := EnsureKeyPair(keyPath, "op@kiosk")
	require.NoError(t, err)
	assert.True(t, generated)

	info, err := os.Stat(keyPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	other, _, err := EnsureKeyPair(filepath.Join(t.TempDir(), "other"), "")
	require.NoError(t, err)

	sshDir := filepath.Join(home, ".ssh")
	require.NoError(t, os.MkdirAll(sshDir, 0o755))
	existing := "# managed by hand\n" + string(bytes.TrimSpace(ssh.MarshalAuthorizedKey(other)))
	require.NoError(t, os.WriteFile(filepath.Join(sshDir, "authorized_keys"), []byte(existing), 0o644))

	path, added, err := AuthorizeKey(home, pub, "op@kiosk")
	require.NoError(t, err)
	assert.True(t, added)

	_, added, err = AuthorizeKey(home, pub, "op@kiosk")
	require.NoError(t, err)
	assert.False(t, added)

	content := readString(t, path)
	assert.Contains(t, content, existing+"\n")
	assert.Equal(t, 1, bytes.Count([]byte(content), bytes.TrimSpace(ssh.MarshalAuthorizedKey(pub))))

	dirInfo, err := os.Stat(sshDir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())
	fileInfo, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fileInfo.Mode().Perm())
}

func TestEnsureKeyPairRejectsLoneKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(keyPath, []byte("private"), 0o600))

	_, _, err := EnsureKeyPair(keyPath, "")
	require.ErrorIs(t, err, ErrSSHKey)
}

func TestDirTarget(t *testing.T) {
	dir := t.TempDir()
	target, err := OpenDirTarget(dir)
	require.NoError(t, err)
	require.NoError(t, target.WriteFile("ssh", nil))
	assert.FileExists(t, filepath.Join(dir, "ssh"))
	assert.Equal(t, dir, target.String())
	assert.NoError(t, target.Close())

	_, err = OpenDirTarget(filepath.Join(dir, "missing"))
	require.ErrorIs(t, err, ErrMountMissing)
}

func TestImageTargetRejectsNonImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blank.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 1<<20), 0o644))

	_, err := OpenImageTarget(path, 1)
	require.ErrorIs(t, err, ErrMountMissing)
}
