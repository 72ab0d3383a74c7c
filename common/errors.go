package common

import "errors"

var (
	ErrCommandNotFound = errors.New("required command not found")
	ErrCommandFailed   = errors.New("command failed")
)
