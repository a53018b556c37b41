package interpreter

import (
	"errors"
	"fmt"
)

// Runner errors.
var (
	// ErrOpen indicates a payload could not be opened.
	ErrOpen = errors.New("unable to open payload")

	// ErrRead indicates a payload could not be read to the end.
	ErrRead = errors.New("unable to read payload")

	// ErrEncoding indicates a payload line is not valid UTF-8.
	ErrEncoding = errors.New("payload is not valid UTF-8")

	// ErrImportDepth indicates IMPORTs nested deeper than the runner allows.
	ErrImportDepth = errors.New("import depth exceeded")
)

// ScriptError is an error tied to a payload and, when known, a line in it.
type ScriptError struct {
	Script string
	Line   int // 1-based; 0 when the error is not tied to a line
	Err    error
}

func (e *ScriptError) Error() string {
	if e == nil {
		return ""
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Script, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Script, e.Err)
}

func (e *ScriptError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
