package prompt

import (
	"context"
	"errors"
	"strings"
)

// Scripted answers prompts from a fixed queue. Used by tests and non-interactive runs.
type Scripted struct {
	Answers []string
	Asked   []string
}

func NewScripted(answers ...string) *Scripted {
	return &Scripted{Answers: answers}
}

func (s *Scripted) next(question string) (string, error) {
	s.Asked = append(s.Asked, question)
	if len(s.Answers) == 0 {
		return "", errors.New("no scripted answer for: " + question)
	}
	answer := strings.TrimSpace(s.Answers[0])
	s.Answers = s.Answers[1:]
	if answer == "" {
		return "", ErrEmptyAnswer
	}
	return answer, nil
}

func (s *Scripted) Ask(ctx context.Context, question string) (string, error) {
	return s.next(question)
}

func (s *Scripted) Secret(ctx context.Context, question string) (string, error) {
	return s.next(question)
}

func (s *Scripted) Choose(ctx context.Context, title string, options []Option) (string, error) {
	if len(options) == 0 {
		return "", ErrNoOptions
	}
	return s.next(title)
}
