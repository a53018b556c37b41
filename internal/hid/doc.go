// Package hid emits keystrokes as USB HID boot-protocol keyboard reports.
//
// Keyboard writes 8-byte reports to any io.Writer, typically the Linux USB
// gadget device /dev/hidg0:
//
//	byte 0   modifier bits (LeftCtrl, LeftShift, LeftAlt, LeftGUI, Right...)
//	byte 1   reserved
//	byte 2-7 up to six pressed key usages
//
// Text is typed through a Layout, which maps runes to the key and modifiers
// that produce them on the host's keyboard layout. Recorder captures the same
// calls without a device, for dry runs and tests.
package hid
