package keycode

import "fmt"

// Keycode is a USB HID keyboard usage id.
type Keycode uint8

// Letters.
const (
	A Keycode = 0x04 + iota
	B
	C
	D
	E
	F
	G
	H
	I
	J
	K
	L
	M
	N
	O
	P
	Q
	R
	S
	T
	U
	V
	W
	X
	Y
	Z
)

// Digits on the top row.
const (
	One Keycode = 0x1E + iota
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Zero
)

// Special keys.
const (
	Enter        Keycode = 0x28
	Escape       Keycode = 0x29
	Backspace    Keycode = 0x2A
	Tab          Keycode = 0x2B
	Space        Keycode = 0x2C
	Minus        Keycode = 0x2D // - and _
	Equals       Keycode = 0x2E // = and +
	LeftBracket  Keycode = 0x2F // [ and {
	RightBracket Keycode = 0x30 // ] and }
	Backslash    Keycode = 0x31 // \ and |
	NonUSPound   Keycode = 0x32
	Semicolon    Keycode = 0x33 // ; and :
	Quote        Keycode = 0x34 // ' and "
	Grave        Keycode = 0x35 // ` and ~
	Comma        Keycode = 0x36 // , and <
	Period       Keycode = 0x37 // . and >
	Slash        Keycode = 0x38 // / and ?
	CapsLock     Keycode = 0x39
)

// Function keys.
const (
	F1 Keycode = 0x3A + iota
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12
)

// System and navigation keys.
const (
	PrintScreen Keycode = 0x46
	ScrollLock  Keycode = 0x47
	Pause       Keycode = 0x48
	Insert      Keycode = 0x49
	Home        Keycode = 0x4A
	PageUp      Keycode = 0x4B
	Delete      Keycode = 0x4C
	End         Keycode = 0x4D
	PageDown    Keycode = 0x4E
	RightArrow  Keycode = 0x4F
	LeftArrow   Keycode = 0x50
	DownArrow   Keycode = 0x51
	UpArrow     Keycode = 0x52
	NumLock     Keycode = 0x53
	NonUSBslash Keycode = 0x64 // < and > on ISO keyboards
	Application Keycode = 0x65
)

// Modifier keys.
const (
	LeftControl  Keycode = 0xE0
	LeftShift    Keycode = 0xE1
	LeftAlt      Keycode = 0xE2
	LeftGUI      Keycode = 0xE3
	RightControl Keycode = 0xE4
	RightShift   Keycode = 0xE5
	RightAlt     Keycode = 0xE6
	RightGUI     Keycode = 0xE7

	Control = LeftControl
	Shift   = LeftShift
	Alt     = LeftAlt
	GUI     = LeftGUI
)

// IsModifier returns true if the keycode is one of the eight modifier keys.
func (k Keycode) IsModifier() bool {
	return k >= LeftControl && k <= RightGUI
}

// ModifierBit returns the bit this key occupies in the report modifier byte.
// Returns 0 for non-modifier keys.
func (k Keycode) ModifierBit() uint8 {
	if !k.IsModifier() {
		return 0
	}
	return 1 << (k - LeftControl)
}

// String returns the canonical name for the keycode.
func (k Keycode) String() string {
	if name, ok := canonicalNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Keycode(0x%02X)", uint8(k))
}

var canonicalNames = map[Keycode]string{
	Enter: "ENTER", Escape: "ESCAPE", Backspace: "BACKSPACE", Tab: "TAB",
	Space: "SPACE", CapsLock: "CAPSLOCK", PrintScreen: "PRINTSCREEN",
	ScrollLock: "SCROLLLOCK", Pause: "PAUSE", Insert: "INSERT", Home: "HOME",
	PageUp: "PAGEUP", Delete: "DELETE", End: "END", PageDown: "PAGEDOWN",
	RightArrow: "RIGHTARROW", LeftArrow: "LEFTARROW", DownArrow: "DOWNARROW",
	UpArrow: "UPARROW", NumLock: "NUMLOCK", Application: "APP",
	LeftControl: "CONTROL", LeftShift: "SHIFT", LeftAlt: "ALT", LeftGUI: "GUI",
	RightControl: "RIGHTCONTROL", RightShift: "RIGHTSHIFT", RightAlt: "RIGHTALT",
	RightGUI: "RIGHTGUI",
}

func init() {
	for k := A; k <= Z; k++ {
		canonicalNames[k] = string(rune('A' + int(k-A)))
	}
	for k := F1; k <= F12; k++ {
		canonicalNames[k] = fmt.Sprintf("F%d", int(k-F1)+1)
	}
}
