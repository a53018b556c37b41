package hid

import (
	"errors"

	"github.com/dshills/keyducky/internal/input/keycode"
)

// ReportSize is the size of a boot-protocol keyboard report.
const ReportSize = 8

// MaxKeys is the number of non-modifier keys a report can hold.
const MaxKeys = 6

// ErrRollover is returned when more than MaxKeys non-modifier keys are held.
var ErrRollover = errors.New("too many keys pressed")

// Report is a boot-protocol keyboard input report.
type Report [ReportSize]byte

// Add presses k in the report. Modifier keys set their modifier bit; other
// keys take the first free slot. Keys already present are ignored.
func (r *Report) Add(k keycode.Keycode) error {
	if k.IsModifier() {
		r[0] |= k.ModifierBit()
		return nil
	}
	free := -1
	for i := 2; i < ReportSize; i++ {
		if r[i] == byte(k) {
			return nil
		}
		if r[i] == 0 && free < 0 {
			free = i
		}
	}
	if free < 0 {
		return ErrRollover
	}
	r[free] = byte(k)
	return nil
}

// Clear releases every key.
func (r *Report) Clear() {
	*r = Report{}
}
