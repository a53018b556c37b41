package script

import (
	"strings"

	"github.com/dshills/keyducky/internal/input/keycode"
)

// Tokenize converts a keystroke line into the keycodes to press together.
//
// Groups are separated by single spaces; empty groups are dropped. A group
// containing "+" is split and each part resolved on its own. Names that do not
// resolve are returned in unknown, upper-cased, in the order they appeared.
// The resolvable keys keep their left-to-right order.
func Tokenize(line string) (keys []keycode.Keycode, unknown []string) {
	for _, group := range strings.Split(line, " ") {
		if group == "" {
			continue
		}

		parts := []string{group}
		if strings.Contains(group, "+") {
			parts = strings.Split(group, "+")
		}

		for _, part := range parts {
			name := strings.ToUpper(part)
			if k, ok := keycode.Lookup(name); ok {
				keys = append(keys, k)
			} else {
				unknown = append(unknown, name)
			}
		}
	}
	return keys, unknown
}
