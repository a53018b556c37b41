// Package watcher watches the payload directory and re-lints payloads as they
// are edited, so mistakes show up in the log before the button is pressed.
//
// DirWatcher turns fsnotify events for one directory into payload Events,
// Debouncer coalesces the bursts editors produce on save, and PayloadLinter
// consumes the result.
package watcher

import (
	"errors"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotDir is returned when the payload path is not a directory.
var ErrNotDir = errors.New("not a directory")

// PayloadExt is the payload file extension.
const PayloadExt = ".dd"

// IsPayload reports whether name is a payload file.
func IsPayload(name string) bool {
	return strings.EqualFold(filepath.Ext(name), PayloadExt)
}

// Change is what happened to a payload.
type Change uint8

const (
	// Written means the payload was created or its contents changed.
	Written Change = iota + 1
	// Removed means the payload was deleted or renamed away.
	Removed
)

func (c Change) String() string {
	switch c {
	case Written:
		return "written"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Event reports a change to one payload.
type Event struct {
	// Name is the payload file name relative to the watched directory.
	Name   string
	Change Change
	At     time.Time
}

// Source delivers payload events until it is closed. Both channels are
// closed by Close.
type Source interface {
	Events() <-chan Event
	Errors() <-chan error
	Close() error
}
