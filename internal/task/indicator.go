package task

import (
	"context"
	"time"

	"github.com/dshills/keyducky/internal/board"
)

// Pulse timing.
const (
	PulseTicks    = 100
	PulseRampFrom = 50
	PulseTick     = 10 * time.Millisecond
)

// BlinkPeriod is the on and off time of BlinkIndicator.
const BlinkPeriod = 500 * time.Millisecond

// PulseIndicator fades a dimmable indicator in and out. Each phase is
// PulseTicks ticks; the fade-out phase ramps down over its second half and the
// fade-in phase ramps up over its first half. Fade-out runs first.
type PulseIndicator struct {
	out  board.Dimmer
	tick time.Duration
}

// NewPulseIndicator creates a pulse animation on out.
func NewPulseIndicator(out board.Dimmer) *PulseIndicator {
	return &PulseIndicator{out: out, tick: PulseTick}
}

// Run animates until ctx is done.
func (p *PulseIndicator) Run(ctx context.Context, h *Handle) error {
	rising := false
	for {
		for i := 0; i < PulseTicks; i++ {
			if duty, ok := pulseDuty(rising, i); ok {
				p.out.SetDutyCycle(duty)
			}
			if err := h.Sleep(ctx, p.tick); err != nil {
				return err
			}
		}
		rising = !rising
		if err := h.Yield(ctx); err != nil {
			return err
		}
	}
}

// pulseDuty is the brightness at tick i of a phase, or false when the tick
// holds the previous brightness.
func pulseDuty(rising bool, i int) (uint16, bool) {
	if rising {
		if i >= PulseRampFrom {
			return 0, false
		}
		return uint16(i * 2 * board.MaxDuty / PulseTicks), true
	}
	if i < PulseRampFrom {
		return 0, false
	}
	return uint16(board.MaxDuty - (i-PulseRampFrom)*2*board.MaxDuty/PulseTicks), true
}

// BlinkIndicator toggles an on/off indicator every BlinkPeriod, starting off.
type BlinkIndicator struct {
	out    board.Output
	period time.Duration
}

// NewBlinkIndicator creates a blink animation on out.
func NewBlinkIndicator(out board.Output) *BlinkIndicator {
	return &BlinkIndicator{out: out, period: BlinkPeriod}
}

// Run animates until ctx is done.
func (b *BlinkIndicator) Run(ctx context.Context, h *Handle) error {
	on := false
	for {
		b.out.SetValue(on)
		if err := h.Sleep(ctx, b.period); err != nil {
			return err
		}
		on = !on
	}
}
