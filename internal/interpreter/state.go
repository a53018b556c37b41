package interpreter

import "time"

// State is the interpreter state shared by every payload run on a Runner,
// including nested IMPORTs. DefaultDelay and Indicator live as long as the
// process; Previous is cleared when a top-level run starts.
//
// Only DEFAULT_DELAY and LED lines mutate DefaultDelay and Indicator. The
// runner updates Previous after every line that is not a REPEAT.
type State struct {
	// DefaultDelay is slept after every line.
	DefaultDelay time.Duration

	// Previous is the last non-REPEAT line, replayed by REPEAT.
	Previous string

	// HasPrevious is false until the first line has executed.
	HasPrevious bool

	// Indicator is flipped by each LED line.
	Indicator bool
}

// remember records line as the line REPEAT replays.
func (s *State) remember(line string) {
	s.Previous = line
	s.HasPrevious = true
}

func (s *State) forget() {
	s.Previous = ""
	s.HasPrevious = false
}
