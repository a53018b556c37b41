// Package selector chooses which payload a trigger press runs.
package selector

// Inputs is the number of payload selector switches.
const Inputs = 4

// Selector picks a payload name from the asserted state of the selector
// switches. asserted[i] is true when switch i is closed.
type Selector interface {
	Select(asserted [Inputs]bool) string
}

// DefaultNames are the payload names used when none are configured.
var DefaultNames = [Inputs]string{"payload.dd", "payload2.dd", "payload3.dd", "payload4.dd"}

// Fixed selects by switch priority: the lowest numbered asserted switch wins.
// With no switch asserted the first name is returned.
type Fixed struct {
	Names [Inputs]string
}

// NewFixed creates a Fixed selector for names.
func NewFixed(names [Inputs]string) Fixed {
	return Fixed{Names: names}
}

// Select implements Selector.
func (f Fixed) Select(asserted [Inputs]bool) string {
	for i, on := range asserted {
		if on {
			return f.Names[i]
		}
	}
	return f.Names[0]
}
