package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

var (
	ErrEmptyAnswer = errors.New("empty answer")
	ErrAborted     = errors.New("aborted by operator")
	ErrNoOptions   = errors.New("no options to choose from")
)

type Option struct {
	Name        string
	Description string
}

// Prompter asks the operator for input. Implementations reject empty answers with ErrEmptyAnswer.
type Prompter interface {
	Ask(ctx context.Context, question string) (string, error)
	Secret(ctx context.Context, question string) (string, error)
	Choose(ctx context.Context, title string, options []Option) (string, error)
}

// Terminal prompts on the controlling terminal. When In is not a terminal it falls back
// to plain line reading so the tools can be driven from scripts.
type Terminal struct {
	In  *os.File
	Out io.Writer

	reader *bufio.Reader
}

func NewTerminal() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stdout}
}

func (t *Terminal) interactive() bool {
	return t.In != nil && term.IsTerminal(int(t.In.Fd()))
}

func (t *Terminal) line() (string, error) {
	if t.reader == nil {
		t.reader = bufio.NewReader(t.In)
	}
	s, err := t.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func (t *Terminal) Ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var answer string
	var err error
	if t.interactive() {
		answer, err = runTextInput(t.In, t.Out, question)
	} else {
		fmt.Fprintf(t.Out, "%s: ", question)
		answer, err = t.line()
	}
	if err != nil {
		return "", err
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}

func (t *Terminal) Secret(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprintf(t.Out, "%s: ", question)
	var answer string
	if t.interactive() {
		b, err := term.ReadPassword(int(t.In.Fd()))
		fmt.Fprintln(t.Out)
		if err != nil {
			return "", err
		}
		answer = string(b)
	} else {
		s, err := t.line()
		if err != nil {
			return "", err
		}
		answer = s
	}

	if answer == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}

func (t *Terminal) Choose(ctx context.Context, title string, options []Option) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(options) == 0 {
		return "", ErrNoOptions
	}

	if t.interactive() {
		return runList(t.In, t.Out, title, options)
	}

	fmt.Fprintln(t.Out, title)
	fmt.Fprintln(t.Out)
	for i, o := range options {
		fmt.Fprintf(t.Out, "%d. %s\n", i+1, o.Name)
	}

	for {
		fmt.Fprint(t.Out, "Option number: ")
		s, err := t.line()
		if err != nil {
			return "", err
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > len(options) {
			fmt.Fprintf(t.Out, "Enter a number between 1 and %d.\n", len(options))
			continue
		}
		return options[n-1].Name, nil
	}
}
