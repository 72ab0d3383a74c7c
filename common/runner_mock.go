package common

import (
	"context"
	"errors"
	"strings"
)

// MockRunner records every command instead of executing it.
// Commands are matched by prefix of their space joined command line.
type MockRunner struct {
	Calls      []string
	InputSizes []int

	// Fail makes matching commands return ErrCommandFailed.
	Fail []string
	// Outputs maps a command prefix to the stdout returned by Output.
	Outputs map[string]string
	// Hook, when set, runs after a command is recorded and before failures are evaluated.
	Hook func(args []string) error
}

func NewMockRunner() *MockRunner {
	return &MockRunner{
		Outputs: map[string]string{},
	}
}

func (m *MockRunner) Run(ctx context.Context, name string, args ...string) error {
	_, err := m.call(name, args)
	return err
}

func (m *MockRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	return m.call(name, args)
}

// Input records the command like Output. The input itself is kept only as its length.
func (m *MockRunner) Input(ctx context.Context, input string, name string, args ...string) (string, error) {
	m.InputSizes = append(m.InputSizes, len(input))
	return m.call(name, args)
}

func (m *MockRunner) call(name string, args []string) (string, error) {
	full := append([]string{name}, args...)
	line := strings.Join(full, " ")
	m.Calls = append(m.Calls, line)

	if m.Hook != nil {
		if err := m.Hook(full); err != nil {
			return "", err
		}
	}

	for _, prefix := range m.Fail {
		if strings.HasPrefix(line, prefix) {
			return "", errors.Join(ErrCommandFailed, errors.New(line))
		}
	}

	for prefix, out := range m.Outputs {
		if strings.HasPrefix(line, prefix) {
			return out, nil
		}
	}
	return "", nil
}

// Count returns how many recorded commands start with prefix.
func (m *MockRunner) Count(prefix string) int {
	n := 0
	for _, c := range m.Calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}
