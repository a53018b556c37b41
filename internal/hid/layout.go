package hid

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/keyducky/internal/input/keycode"
)

// Stroke is the key and modifiers that type one character.
type Stroke struct {
	Key   keycode.Keycode
	Shift bool
	AltGr bool
}

// Modifiers returns the modifier keys held for the stroke.
func (s Stroke) Modifiers() []keycode.Keycode {
	var mods []keycode.Keycode
	if s.Shift {
		mods = append(mods, keycode.LeftShift)
	}
	if s.AltGr {
		mods = append(mods, keycode.RightAlt)
	}
	return mods
}

// Layout maps characters to keystrokes for a host keyboard layout.
type Layout interface {
	// Name returns the short layout name, e.g. "us".
	Name() string
	// Stroke returns the keystroke for r. ok is false when the layout has no
	// way to type r.
	Stroke(r rune) (s Stroke, ok bool)
	// Key returns the key that produces the letter named by k, so that a
	// keystroke line's Z presses the host's Z. Non-letters are returned
	// unchanged.
	Key(k keycode.Keycode) keycode.Keycode
}

type tableLayout struct {
	name    string
	strokes map[rune]Stroke
}

func (l *tableLayout) Name() string {
	return l.name
}

func (l *tableLayout) Stroke(r rune) (Stroke, bool) {
	s, ok := l.strokes[r]
	return s, ok
}

func (l *tableLayout) Key(k keycode.Keycode) keycode.Keycode {
	if k < keycode.A || k > keycode.Z {
		return k
	}
	s, ok := l.strokes[rune('a'+int(k-keycode.A))]
	if !ok || s.Shift || s.AltGr {
		return k
	}
	return s.Key
}

// builder collects strokes for a layout table.
type builder map[rune]Stroke

func (b builder) plain(r rune, k keycode.Keycode)   { b[r] = Stroke{Key: k} }
func (b builder) shifted(r rune, k keycode.Keycode) { b[r] = Stroke{Key: k, Shift: true} }
func (b builder) altgr(r rune, k keycode.Keycode)   { b[r] = Stroke{Key: k, AltGr: true} }

// pairs registers an unshifted and a shifted character on the same key.
func (b builder) pairs(k keycode.Keycode, lower, upper rune) {
	b.plain(lower, k)
	b.shifted(upper, k)
}

// common registers the characters shared by every supported layout: letters
// (except y and z), digits and whitespace.
func (b builder) common() {
	for k := keycode.A; k <= keycode.Z; k++ {
		r := rune('a' + int(k-keycode.A))
		if r == 'y' || r == 'z' {
			continue
		}
		b.pairs(k, r, r-'a'+'A')
	}
	digits := []keycode.Keycode{
		keycode.Zero, keycode.One, keycode.Two, keycode.Three, keycode.Four,
		keycode.Five, keycode.Six, keycode.Seven, keycode.Eight, keycode.Nine,
	}
	for i, k := range digits {
		b.plain(rune('0'+i), k)
	}
	b.plain(' ', keycode.Space)
	b.plain('\n', keycode.Enter)
	b.plain('\t', keycode.Tab)
}

// US is the United States layout.
var US Layout = newUS()

func newUS() *tableLayout {
	b := builder{}
	b.common()
	b.pairs(keycode.Y, 'y', 'Y')
	b.pairs(keycode.Z, 'z', 'Z')

	shiftedDigits := map[rune]keycode.Keycode{
		'!': keycode.One, '@': keycode.Two, '#': keycode.Three, '$': keycode.Four,
		'%': keycode.Five, '^': keycode.Six, '&': keycode.Seven, '*': keycode.Eight,
		'(': keycode.Nine, ')': keycode.Zero,
	}
	for r, k := range shiftedDigits {
		b.shifted(r, k)
	}

	b.pairs(keycode.Minus, '-', '_')
	b.pairs(keycode.Equals, '=', '+')
	b.pairs(keycode.LeftBracket, '[', '{')
	b.pairs(keycode.RightBracket, ']', '}')
	b.pairs(keycode.Backslash, '\\', '|')
	b.pairs(keycode.Semicolon, ';', ':')
	b.pairs(keycode.Quote, '\'', '"')
	b.pairs(keycode.Grave, '`', '~')
	b.pairs(keycode.Comma, ',', '<')
	b.pairs(keycode.Period, '.', '>')
	b.pairs(keycode.Slash, '/', '?')

	return &tableLayout{name: "us", strokes: b}
}

// DE is the German (Windows) QWERTZ layout. Dead keys (^, ´, `) are not
// typeable.
var DE Layout = newDE()

func newDE() *tableLayout {
	b := builder{}
	b.common()
	b.pairs(keycode.Z, 'y', 'Y')
	b.pairs(keycode.Y, 'z', 'Z')

	shiftedDigits := map[rune]keycode.Keycode{
		'!': keycode.One, '"': keycode.Two, '§': keycode.Three, '$': keycode.Four,
		'%': keycode.Five, '&': keycode.Six, '/': keycode.Seven, '(': keycode.Eight,
		')': keycode.Nine, '=': keycode.Zero,
	}
	for r, k := range shiftedDigits {
		b.shifted(r, k)
	}

	b.pairs(keycode.Minus, 'ß', '?')
	b.pairs(keycode.LeftBracket, 'ü', 'Ü')
	b.pairs(keycode.RightBracket, '+', '*')
	b.pairs(keycode.NonUSPound, '#', '\'')
	b.pairs(keycode.Semicolon, 'ö', 'Ö')
	b.pairs(keycode.Quote, 'ä', 'Ä')
	b.shifted('°', keycode.Grave)
	b.pairs(keycode.Comma, ',', ';')
	b.pairs(keycode.Period, '.', ':')
	b.pairs(keycode.Slash, '-', '_')
	b.pairs(keycode.NonUSBslash, '<', '>')

	b.altgr('@', keycode.Q)
	b.altgr('€', keycode.E)
	b.altgr('µ', keycode.M)
	b.altgr('²', keycode.Two)
	b.altgr('³', keycode.Three)
	b.altgr('{', keycode.Seven)
	b.altgr('[', keycode.Eight)
	b.altgr(']', keycode.Nine)
	b.altgr('}', keycode.Zero)
	b.altgr('\\', keycode.Minus)
	b.altgr('~', keycode.RightBracket)
	b.altgr('|', keycode.NonUSBslash)

	return &tableLayout{name: "de", strokes: b}
}

var layouts = map[string]Layout{
	"us": US,
	"de": DE,
}

// LayoutByName returns the layout registered under name (case-insensitive).
func LayoutByName(name string) (Layout, error) {
	l, ok := layouts[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown keyboard layout %q (available: %s)", name, strings.Join(LayoutNames(), ", "))
	}
	return l, nil
}

// LayoutNames returns the registered layout names in sorted order.
func LayoutNames() []string {
	out := make([]string, 0, len(layouts))
	for n := range layouts {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
