package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Runner invokes external programs. Every call blocks until the program exits.
type Runner interface {
	// Run executes the command with its output attached to the runner's writers.
	Run(ctx context.Context, name string, args ...string) error
	// Output executes the command and returns its trimmed standard output.
	Output(ctx context.Context, name string, args ...string) (string, error)
	// Input feeds input to the command's standard input and returns its trimmed standard
	// output. The input is never logged.
	Input(ctx context.Context, input string, name string, args ...string) (string, error)
}

type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
	Log    *slog.Logger
}

// NewExecRunner returns a runner that streams command output to the terminal.
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	return &ExecRunner{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Log:    logger,
	}
}

func (r *ExecRunner) command(ctx context.Context, name string, args []string) (*exec.Cmd, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return nil, errors.Join(ErrCommandNotFound, fmt.Errorf("%s: %w", name, err))
	}

	if r.Log != nil {
		r.Log.Debug("Executing command", slog.String("command", name), slog.Any("args", args))
	}
	return exec.CommandContext(ctx, path, args...), nil
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd, err := r.command(ctx, name, args)
	if err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd.Stdout = r.Stdout
	cmd.Stderr = &stderr
	if r.Stderr != nil {
		cmd.Stderr = io.MultiWriter(r.Stderr, &stderr)
	}

	return commandError(name, args, cmd.Run(), stderr.String())
}

func (r *ExecRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	return r.Input(ctx, "", name, args...)
}

func (r *ExecRunner) Input(ctx context.Context, input string, name string, args ...string) (string, error) {
	cmd, err := r.command(ctx, name, args)
	if err != nil {
		return "", err
	}
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := commandError(name, args, cmd.Run(), stderr.String()); err != nil {
		return "", err
	}
	return strings.TrimSpace(stdout.String()), nil
}

func commandError(name string, args []string, err error, stderr string) error {
	if err == nil {
		return nil
	}

	line := strings.TrimSpace(strings.Join(append([]string{name}, args...), " "))
	stderr = strings.TrimSpace(stderr)

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if stderr != "" {
			return errors.Join(ErrCommandFailed, fmt.Errorf("'%s' exited with code %d: %s", line, exitErr.ExitCode(), stderr))
		}
		return errors.Join(ErrCommandFailed, fmt.Errorf("'%s' exited with code %d", line, exitErr.ExitCode()))
	}
	return errors.Join(ErrCommandFailed, fmt.Errorf("'%s': %w", line, err))
}
