package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infomedia-iot/iot-provisioner/provision"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	base := filepath.Join(t.TempDir(), "device")
	argv := append([]string{"iot-installer", "--base-path", base, "--log-level", "error"}, args...)
	err := newApp().Run(context.Background(), argv)
	assert.NoDirExists(t, base)
	return err
}

func TestInstallNeedsAnAction(t *testing.T) {
	require.ErrorIs(t, run(t, "install"), provision.ErrUnknownAction)
}

func TestInstallRejectsUnknownAction(t *testing.T) {
	require.ErrorIs(t, run(t, "install", "toaster"), provision.ErrUnknownAction)
}

func TestFailureIsWrittenToLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "var", "log", "iot", "installer.log")
	t.Setenv("LOG_FORMAT", "json")

	require.ErrorIs(t, run(t, "--log-file", logFile, "install", "toaster"), provision.ErrUnknownAction)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"iot-installer failed"`)
	assert.Contains(t, string(data), "toaster")
}

func TestLogDirectoryIsCreatedOnlyWhenLogging(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "var", "log", "iot")

	require.NoError(t, run(t, "--log-file", filepath.Join(logDir, "installer.log"), "actions"))
	assert.NoDirExists(t, logDir)
}

func TestInstallRequiresRoot(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root")
	}
	require.ErrorIs(t, run(t, "install", "ipc.control"), provision.ErrNotRoot)
}

func TestRejectsUnknownLogLevel(t *testing.T) {
	err := newApp().Run(context.Background(), []string{"iot-installer", "--log-level", "loud", "actions"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loud")
}

func TestPrintReportAcceptsNil(t *testing.T) {
	assert.NotPanics(t, func() { printReport(nil, nil) })
}
