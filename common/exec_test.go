package common

import (
	"bytes"
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunnerOutput(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	r := &ExecRunner{}
	out, err := r.Output(context.Background(), "sh", "-c", "echo '  hello  '")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestExecRunnerFailureCarriesExitCodeAndStderr(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	var stderr bytes.Buffer
	r := &ExecRunner{Stderr: &stderr}
	err := r.Run(context.Background(), "sh", "-c", "echo broken >&2; exit 3")
	require.ErrorIs(t, err, ErrCommandFailed)
	assert.Contains(t, err.Error(), "exited with code 3")
	assert.Contains(t, err.Error(), "broken")
	assert.Contains(t, stderr.String(), "broken")
}

func TestExecRunnerMissingBinary(t *testing.T) {
	r := &ExecRunner{}
	err := r.Run(context.Background(), "definitely-not-a-real-binary-4711")
	require.ErrorIs(t, err, ErrCommandNotFound)
}

func TestExecRunnerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &ExecRunner{}
	_, err := r.Output(ctx, "sh", "-c", "true")
	require.ErrorIs(t, err, context.Canceled)
}

func TestExecRunnerInput(t *testing.T) {
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	r := &ExecRunner{}
	out, err := r.Input(context.Background(), "secret\n", "cat")
	require.NoError(t, err)
	assert.Equal(t, "secret", out)
}
