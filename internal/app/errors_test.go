package app

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestPayloadError(t *testing.T) {
	tests := []struct {
		err      *PayloadError
		expected string
	}{
		{&PayloadError{Op: "run", Payload: "payload.dd", Err: fs.ErrNotExist}, "run payload.dd: file does not exist"},
		{&PayloadError{Op: "check", Payload: "payload2.dd", Err: fmt.Errorf("2 issues: %w", ErrLintIssues)}, "check payload2.dd: 2 issues: payload issues found"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.expected {
			t.Errorf("Error() = %q, expected %q", got, tt.expected)
		}
	}

	if !errors.Is(tests[1].err, ErrLintIssues) {
		t.Error("expected errors.Is to reach ErrLintIssues")
	}
}

func TestStartupError(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{startupError("board", "open gpio", errors.New("no pin")), "board: open gpio: no pin"},
		{startupError("hid", "", errors.New("busy")), "hid: busy"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.expected {
			t.Errorf("Error() = %q, expected %q", got, tt.expected)
		}
	}

	wrapped := fmt.Errorf("startup: %w", startupError("hid", "open", fs.ErrPermission))
	if !errors.Is(wrapped, fs.ErrPermission) {
		t.Error("expected errors.Is to reach through StartupError")
	}
	var serr *StartupError
	if !errors.As(wrapped, &serr) || serr.Component != "hid" {
		t.Errorf("errors.As() = %v, expected hid component", serr)
	}
}

func TestCheckErrorsJoin(t *testing.T) {
	err := errors.Join(
		&PayloadError{Op: "check", Payload: "a.dd", Err: fmt.Errorf("1 issues: %w", ErrLintIssues)},
		&PayloadError{Op: "check", Payload: "b.dd", Err: fs.ErrNotExist},
	)
	if !errors.Is(err, ErrLintIssues) || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("joined error %v does not expose both causes", err)
	}
	var perr *PayloadError
	if !errors.As(err, &perr) || perr.Payload != "a.dd" {
		t.Errorf("errors.As() = %v, expected a.dd first", perr)
	}
}
