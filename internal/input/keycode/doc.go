// Package keycode defines USB HID keyboard usage ids and the symbolic key
// vocabulary understood by payload scripts.
//
// A Keycode is the usage id from the HID Keyboard/Keypad usage page (0x07).
// Modifier keys are keycodes in the 0xE0-0xE7 range; report builders turn
// them into modifier bits.
//
// # Key Names
//
// Script key names are looked up case-insensitively:
//
//   - Modifiers: SHIFT, CONTROL/CTRL, ALT, GUI/WINDOWS
//   - Navigation: UP/UPARROW, DOWN/DOWNARROW, LEFT/LEFTARROW, RIGHT/RIGHTARROW,
//     HOME, END, PAGEUP, PAGEDOWN, INSERT, DELETE
//   - Editing and locks: BACKSPACE, ENTER, TAB, SPACE, ESC/ESCAPE, CAPSLOCK,
//     NUMLOCK, SCROLLLOCK
//   - System: PRINTSCREEN, PAUSE/BREAK, APP/MENU
//   - Letters A-Z and function keys F1-F12
//
// Synonyms resolve to the same keycode. Names outside the vocabulary are not
// errors; Lookup reports them with ok == false and callers skip them.
package keycode
