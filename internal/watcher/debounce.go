package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceDelay is the quiet period used when none is given.
const DefaultDebounceDelay = 200 * time.Millisecond

// Debouncer delivers one event per payload once it has been quiet for the
// delay. The last change seen wins, so a save that writes and then renames a
// temporary file over the payload is reported as Written.
type Debouncer struct {
	src   Source
	delay time.Duration

	events chan Event
	errors chan error

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// Debounce wraps src. Closing the Debouncer closes src.
func Debounce(src Source, delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	d := &Debouncer{
		src:    src,
		delay:  delay,
		events: make(chan Event, queueSize),
		errors: make(chan error, queueSize),
		done:   make(chan struct{}),
	}
	d.wg.Add(1)
	go d.loop()
	return d
}

// Events implements Source.
func (d *Debouncer) Events() <-chan Event {
	return d.events
}

// Errors implements Source.
func (d *Debouncer) Errors() <-chan error {
	return d.errors
}

// Close stops the debouncer and closes the wrapped source. Pending events
// are dropped.
func (d *Debouncer) Close() error {
	var err error
	d.once.Do(func() {
		close(d.done)
		d.wg.Wait()
		err = d.src.Close()
	})
	return err
}

func (d *Debouncer) loop() {
	defer d.wg.Done()
	defer close(d.errors)
	defer close(d.events)

	pending := make(map[string]Event)
	due := make(map[string]time.Time)
	timer := time.NewTimer(d.delay)
	timer.Stop()
	defer timer.Stop()
	var fire <-chan time.Time

	in, errs := d.src.Events(), d.src.Errors()
	for {
		select {
		case <-d.done:
			return

		case ev, ok := <-in:
			if !ok {
				// source gone: deliver what is left
				for name := range pending {
					if !d.send(pending[name]) {
						return
					}
				}
				return
			}
			pending[ev.Name] = ev
			due[ev.Name] = time.Now().Add(d.delay)
			fire = arm(timer, due)

		case now := <-fire:
			for name, at := range due {
				if at.After(now) {
					continue
				}
				if !d.send(pending[name]) {
					return
				}
				delete(pending, name)
				delete(due, name)
			}
			fire = arm(timer, due)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			select {
			case d.errors <- err:
			default:
			}
		}
	}
}

// send reports false when the debouncer was closed before ev was taken.
func (d *Debouncer) send(ev Event) bool {
	select {
	case d.events <- ev:
		return true
	case <-d.done:
		return false
	}
}

// arm resets timer to the earliest deadline in due. It returns nil when
// nothing is pending.
func arm(timer *time.Timer, due map[string]time.Time) <-chan time.Time {
	timer.Stop()
	if len(due) == 0 {
		return nil
	}
	var next time.Time
	for _, at := range due {
		if next.IsZero() || at.Before(next) {
			next = at
		}
	}
	timer.Reset(time.Until(next))
	return timer.C
}

var _ Source = (*Debouncer)(nil)
