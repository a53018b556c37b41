package app

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned by Run while another Run is active.
	ErrAlreadyRunning = errors.New("application already running")

	// ErrNoBoard is returned by Run when the application was created without
	// a board.
	ErrNoBoard = errors.New("no board")

	// ErrLintIssues is wrapped by Check errors for payloads that have issues.
	ErrLintIssues = errors.New("payload issues found")
)

// PayloadError is a failure to run or check one payload.
type PayloadError struct {
	Op      string // "run" or "check"
	Payload string
	Err     error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Payload, e.Err)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// StartupError is a failure to bring up one part of the device.
type StartupError struct {
	Component string // config, hid, selector, board
	Step      string
	Err       error
}

func (e *StartupError) Error() string {
	if e.Step == "" {
		return fmt.Sprintf("%s: %v", e.Component, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Component, e.Step, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

func startupError(component, step string, err error) error {
	return &StartupError{Component: component, Step: step, Err: err}
}
