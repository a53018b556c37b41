package board

import "time"

// SelectorCount is the number of payload selector switches.
const SelectorCount = 4

// Input is a digital input.
type Input interface {
	// Value returns true when the line is electrically high.
	Value() bool
}

// Output is a digital output.
type Output interface {
	SetValue(on bool)
}

// Dimmer is an output with continuous brightness.
type Dimmer interface {
	// SetDutyCycle sets brightness from 0 (off) to MaxDuty (full).
	SetDutyCycle(duty uint16)
}

// MaxDuty is full brightness for a Dimmer.
const MaxDuty = 0xFFFF

// Board is the set of peripherals the daemon uses.
type Board interface {
	// Name identifies the board in logs.
	Name() string
	// Button is the trigger button input.
	Button() Input
	// Selectors are the payload selector switches in priority order.
	Selectors() [SelectorCount]Input
	// Programming is the programming-mode switch, or nil if not fitted.
	Programming() Input
	// Indicator is the status indicator as an on/off output.
	Indicator() Output
	// Dimmer is the status indicator with brightness control, or nil when
	// the board can only switch it on and off.
	Dimmer() Dimmer
	// Close releases the peripherals.
	Close() error
}

// Asserted reports whether an active-low input is asserted. A nil input is
// never asserted.
func Asserted(in Input) bool {
	return in != nil && !in.Value()
}

// ReadSelectors returns the asserted state of every selector switch.
func ReadSelectors(b Board) [SelectorCount]bool {
	var out [SelectorCount]bool
	for i, in := range b.Selectors() {
		out[i] = Asserted(in)
	}
	return out
}

// DefaultDebounceInterval is how long a level must hold before the debouncer
// accepts it.
const DefaultDebounceInterval = 10 * time.Millisecond

// Debouncer filters a noisy input into clean edges. Call Update once per poll;
// Fell and Rose report the edge detected by the most recent Update.
type Debouncer struct {
	in       Input
	interval time.Duration
	now      func() time.Time

	stable     bool
	unstable   bool
	lastChange time.Time
	changed    bool
}

// DebouncerOption configures a Debouncer.
type DebouncerOption func(*Debouncer)

// WithInterval sets the settle interval.
func WithInterval(d time.Duration) DebouncerOption {
	return func(db *Debouncer) {
		db.interval = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) DebouncerOption {
	return func(db *Debouncer) {
		db.now = now
	}
}

// NewDebouncer creates a debouncer seeded with the input's current level.
func NewDebouncer(in Input, opts ...DebouncerOption) *Debouncer {
	db := &Debouncer{
		in:       in,
		interval: DefaultDebounceInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(db)
	}
	db.stable = in.Value()
	db.unstable = db.stable
	db.lastChange = db.now()
	return db
}

// Update samples the input.
func (db *Debouncer) Update() {
	db.changed = false
	now := db.now()
	v := db.in.Value()

	if v != db.unstable {
		db.unstable = v
		db.lastChange = now
		return
	}
	if db.unstable != db.stable && now.Sub(db.lastChange) >= db.interval {
		db.stable = db.unstable
		db.changed = true
	}
}

// Value returns the debounced level.
func (db *Debouncer) Value() bool {
	return db.stable
}

// Fell reports a high to low edge on the last Update.
func (db *Debouncer) Fell() bool {
	return db.changed && !db.stable
}

// Rose reports a low to high edge on the last Update.
func (db *Debouncer) Rose() bool {
	return db.changed && db.stable
}
