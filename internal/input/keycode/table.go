package keycode

import (
	"sort"
	"strings"
)

// names maps upper-case script key names to keycodes.
var names = map[string]Keycode{
	"WINDOWS": GUI, "GUI": GUI,
	"APP": Application, "MENU": Application,
	"SHIFT": Shift, "ALT": Alt,
	"CONTROL": Control, "CTRL": Control,

	"DOWNARROW": DownArrow, "DOWN": DownArrow,
	"LEFTARROW": LeftArrow, "LEFT": LeftArrow,
	"RIGHTARROW": RightArrow, "RIGHT": RightArrow,
	"UPARROW": UpArrow, "UP": UpArrow,

	"BREAK": Pause, "PAUSE": Pause,
	"CAPSLOCK": CapsLock, "DELETE": Delete, "END": End,
	"ESC": Escape, "ESCAPE": Escape,
	"HOME": Home, "INSERT": Insert, "NUMLOCK": NumLock,
	"PAGEUP": PageUp, "PAGEDOWN": PageDown,
	"PRINTSCREEN": PrintScreen, "ENTER": Enter,
	"SCROLLLOCK": ScrollLock, "SPACE": Space, "TAB": Tab,
	"BACKSPACE": Backspace,

	"F1": F1, "F2": F2, "F3": F3, "F4": F4, "F5": F5, "F6": F6,
	"F7": F7, "F8": F8, "F9": F9, "F10": F10, "F11": F11, "F12": F12,
}

func init() {
	for k := A; k <= Z; k++ {
		names[string(rune('A'+int(k-A)))] = k
	}
}

// Lookup resolves a script key name. The name is matched case-insensitively.
// The second result is false when the name is not part of the vocabulary.
func Lookup(name string) (Keycode, bool) {
	k, ok := names[strings.ToUpper(name)]
	return k, ok
}

// Names returns every recognised key name in sorted order.
func Names() []string {
	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
