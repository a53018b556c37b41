package hid

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/dshills/keyducky/internal/input/keycode"
)

// DefaultCharDelay is the pause after each typed character.
const DefaultCharDelay = 5 * time.Millisecond

// UnsupportedRuneError lists runes Write could not type with the layout.
type UnsupportedRuneError struct {
	Layout string
	Runes  []rune
}

func (e *UnsupportedRuneError) Error() string {
	quoted := make([]string, len(e.Runes))
	for i, r := range e.Runes {
		quoted[i] = fmt.Sprintf("%q", r)
	}
	return fmt.Sprintf("layout %s cannot type %s", e.Layout, strings.Join(quoted, ", "))
}

// Keyboard sends keyboard reports to a HID device.
type Keyboard struct {
	mu        sync.Mutex
	w         io.Writer
	layout    Layout
	report    Report
	charDelay time.Duration
	sleep     func(time.Duration)
}

// KeyboardOption configures a Keyboard.
type KeyboardOption func(*Keyboard)

// WithLayout sets the layout used by Write. Defaults to US.
func WithLayout(l Layout) KeyboardOption {
	return func(k *Keyboard) {
		k.layout = l
	}
}

// WithCharDelay sets the pause after each character typed by Write.
func WithCharDelay(d time.Duration) KeyboardOption {
	return func(k *Keyboard) {
		k.charDelay = d
	}
}

// withSleep replaces time.Sleep, for tests.
func withSleep(fn func(time.Duration)) KeyboardOption {
	return func(k *Keyboard) {
		k.sleep = fn
	}
}

// NewKeyboard creates a keyboard that writes reports to w.
func NewKeyboard(w io.Writer, opts ...KeyboardOption) *Keyboard {
	k := &Keyboard{
		w:         w,
		layout:    US,
		charDelay: DefaultCharDelay,
		sleep:     time.Sleep,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Press adds keys to the held set and sends one report.
// If the keys do not fit in a report nothing is sent and ErrRollover is
// returned.
func (k *Keyboard) Press(keys ...keycode.Keycode) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	next := k.report
	for _, key := range keys {
		if err := next.Add(key); err != nil {
			return err
		}
	}
	k.report = next
	return k.send()
}

// ReleaseAll releases every held key.
func (k *Keyboard) ReleaseAll() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.report.Clear()
	return k.send()
}

// Write types text character by character through the layout.
// Characters the layout cannot produce are skipped and reported together in
// an *UnsupportedRuneError once the rest of the text has been typed.
func (k *Keyboard) Write(text string) error {
	var unsupported []rune
	for _, r := range norm.NFC.String(text) {
		stroke, ok := k.layout.Stroke(r)
		if !ok {
			unsupported = append(unsupported, r)
			continue
		}
		if err := k.typeStroke(stroke); err != nil {
			return err
		}
	}
	if len(unsupported) > 0 {
		return &UnsupportedRuneError{Layout: k.layout.Name(), Runes: unsupported}
	}
	return nil
}

func (k *Keyboard) typeStroke(s Stroke) error {
	keys := append(s.Modifiers(), s.Key)
	if err := k.Press(keys...); err != nil {
		return err
	}
	if err := k.ReleaseAll(); err != nil {
		return err
	}
	if k.charDelay > 0 {
		k.sleep(k.charDelay)
	}
	return nil
}

// send writes the current report. The caller holds k.mu.
func (k *Keyboard) send() error {
	if _, err := k.w.Write(k.report[:]); err != nil {
		return fmt.Errorf("hid write: %w", err)
	}
	return nil
}
