package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infomedia-iot/iot-provisioner/prompt"
	"github.com/infomedia-iot/iot-provisioner/sdcard"
)

func TestConfigureChecksInstallerBeforeWriting(t *testing.T) {
	dir := t.TempDir()
	boot := filepath.Join(dir, "bootfs")
	root := filepath.Join(dir, "rootfs")
	require.NoError(t, os.MkdirAll(boot, 0o755))
	require.NoError(t, os.MkdirAll(root, 0o755))

	err := newApp().Run(context.Background(), []string{
		"sdconfig", "--log-level", "error", "configure",
		"--boot", boot, "--root", root,
		"--hostname", "kiosk-01",
		"--installer", filepath.Join(dir, "missing"),
	})
	require.ErrorIs(t, err, sdcard.ErrInstallerMissing)

	entries, err := os.ReadDir(boot)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConfigureProfileFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	profile := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(profile, []byte("boot: /nonexistent/boot\nroot: /nonexistent/root\nhostname: from-file\n"), 0o644))

	err := newApp().Run(context.Background(), []string{
		"sdconfig", "--log-level", "error", "configure",
		"--profile", profile,
		"--boot", filepath.Join(dir, "also-missing"),
	})
	require.ErrorIs(t, err, sdcard.ErrMountMissing)
	assert.Contains(t, err.Error(), "also-missing")
}

func TestFlashRefusesSameFile(t *testing.T) {
	img := filepath.Join(t.TempDir(), "card.img")
	require.NoError(t, os.WriteFile(img, []byte("image"), 0o644))

	err := newApp().Run(context.Background(), []string{"sdconfig", "--log-level", "error", "flash", "--yes", img, img})
	require.ErrorIs(t, err, sdcard.ErrSameTarget)
}

func TestFlashNeedsImage(t *testing.T) {
	err := newApp().Run(context.Background(), []string{"sdconfig", "--log-level", "error", "flash"})
	require.Error(t, err)
}

func TestDeviceModelSelects(t *testing.T) {
	devices := []sdcard.Device{
		{Name: "sdb", Path: "/dev/sdb", SizeBytes: 32 << 30, Model: "Card A"},
		{Name: "sdc", Path: "/dev/sdc", SizeBytes: 64 << 30, Model: "Card B"},
	}

	var m tea.Model = newDeviceModel(devices)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	assert.Contains(t, m.View(), "Card A")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	dm := m.(deviceModel)
	require.NotNil(t, dm.selected)
	assert.Equal(t, "/dev/sdc", dm.selected.Path)
}

func TestDeviceModelAbort(t *testing.T) {
	var m tea.Model = newDeviceModel([]sdcard.Device{{Name: "sdb", Path: "/dev/sdb"}})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.ErrorIs(t, m.(deviceModel).err, prompt.ErrAborted)
}
