package hid

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dshills/keyducky/internal/input/keycode"
)

// Op is the kind of a recorded keyboard call.
type Op uint8

const (
	OpPress Op = iota + 1
	OpReleaseAll
	OpWrite
)

// Event is one recorded keyboard call.
type Event struct {
	Op   Op
	Keys []keycode.Keycode
	Text string
}

// String formats the event the way dry runs log it.
func (e Event) String() string {
	switch e.Op {
	case OpPress:
		names := make([]string, len(e.Keys))
		for i, k := range e.Keys {
			names[i] = k.String()
		}
		return "press " + strings.Join(names, "+")
	case OpReleaseAll:
		return "release"
	case OpWrite:
		return fmt.Sprintf("type %q", e.Text)
	default:
		return "unknown"
	}
}

// Recorder is a keyboard that records calls instead of sending reports.
// It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event

	// OnEvent, when set, is called for each recorded event.
	OnEvent func(Event)
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Press records a press of keys.
func (r *Recorder) Press(keys ...keycode.Keycode) error {
	held := make([]keycode.Keycode, len(keys))
	copy(held, keys)
	r.record(Event{Op: OpPress, Keys: held})
	return nil
}

// ReleaseAll records a release.
func (r *Recorder) ReleaseAll() error {
	r.record(Event{Op: OpReleaseAll})
	return nil
}

// Write records typed text.
func (r *Recorder) Write(text string) error {
	r.record(Event{Op: OpWrite, Text: text})
	return nil
}

func (r *Recorder) record(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	fn := r.OnEvent
	r.mu.Unlock()

	if fn != nil {
		fn(e)
	}
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Presses returns the key sets of every recorded press, in order.
func (r *Recorder) Presses() [][]keycode.Keycode {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out [][]keycode.Keycode
	for _, e := range r.events {
		if e.Op == OpPress {
			out = append(out, e.Keys)
		}
	}
	return out
}

// Reset discards recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
