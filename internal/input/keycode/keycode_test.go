package keycode

import (
	"strings"
	"testing"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		expected Keycode
	}{
		{"GUI", GUI},
		{"WINDOWS", GUI},
		{"APP", Application},
		{"MENU", Application},
		{"CTRL", Control},
		{"CONTROL", Control},
		{"DOWN", DownArrow},
		{"DOWNARROW", DownArrow},
		{"BREAK", Pause},
		{"PAUSE", Pause},
		{"ESC", Escape},
		{"ESCAPE", Escape},
		{"A", A},
		{"R", R},
		{"Z", Z},
		{"F1", F1},
		{"F12", F12},
	}

	for _, tt := range tests {
		got, ok := Lookup(tt.name)
		if !ok {
			t.Errorf("Lookup(%q) not found", tt.name)
			continue
		}
		if got != tt.expected {
			t.Errorf("Lookup(%q) = %v, expected %v", tt.name, got, tt.expected)
		}
	}
}

func TestLookup_CaseInsensitive(t *testing.T) {
	for _, name := range Names() {
		upper, ok := Lookup(name)
		if !ok {
			t.Fatalf("Lookup(%q) not found", name)
		}
		lower, ok := Lookup(strings.ToLower(name))
		if !ok {
			t.Errorf("Lookup(%q) not found", strings.ToLower(name))
			continue
		}
		if upper != lower {
			t.Errorf("Lookup(%q) = %v, Lookup(%q) = %v", name, upper, strings.ToLower(name), lower)
		}
	}
}

func TestLookup_Unknown(t *testing.T) {
	for _, name := range []string{"", "FOO", "F13", "CTRL+ALT", "1"} {
		if k, ok := Lookup(name); ok {
			t.Errorf("Lookup(%q) = %v, expected not found", name, k)
		}
	}
}

func TestNames_Sorted(t *testing.T) {
	n := Names()
	if len(n) != 34+26+12 {
		t.Errorf("len(Names()) = %d, expected %d", len(n), 34+26+12)
	}
	for i := 1; i < len(n); i++ {
		if n[i-1] >= n[i] {
			t.Fatalf("Names() not sorted at %d: %q >= %q", i, n[i-1], n[i])
		}
	}
}

func TestKeycode_Modifier(t *testing.T) {
	tests := []struct {
		key      Keycode
		modifier bool
		bit      uint8
	}{
		{LeftControl, true, 0x01},
		{LeftShift, true, 0x02},
		{LeftAlt, true, 0x04},
		{LeftGUI, true, 0x08},
		{RightAlt, true, 0x40},
		{RightGUI, true, 0x80},
		{A, false, 0},
		{Enter, false, 0},
	}

	for _, tt := range tests {
		if got := tt.key.IsModifier(); got != tt.modifier {
			t.Errorf("%v.IsModifier() = %v, expected %v", tt.key, got, tt.modifier)
		}
		if got := tt.key.ModifierBit(); got != tt.bit {
			t.Errorf("%v.ModifierBit() = 0x%02X, expected 0x%02X", tt.key, got, tt.bit)
		}
	}
}

func TestKeycode_String(t *testing.T) {
	tests := []struct {
		key      Keycode
		expected string
	}{
		{A, "A"},
		{Z, "Z"},
		{F10, "F10"},
		{Control, "CONTROL"},
		{DownArrow, "DOWNARROW"},
		{Keycode(0x99), "Keycode(0x99)"},
	}

	for _, tt := range tests {
		if got := tt.key.String(); got != tt.expected {
			t.Errorf("Keycode(0x%02X).String() = %q, expected %q", uint8(tt.key), got, tt.expected)
		}
	}
}
