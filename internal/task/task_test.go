package task

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/keyducky/internal/board"
	"github.com/dshills/keyducky/internal/logging"
	"github.com/dshills/keyducky/internal/selector"
)

type pin struct {
	mu   sync.Mutex
	high bool
}

func (p *pin) Value() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.high
}

func (p *pin) set(high bool) {
	p.mu.Lock()
	p.high = high
	p.mu.Unlock()
}

type testBoard struct {
	button    *pin
	selectors [board.SelectorCount]*pin
	program   *pin
	lamp      *lamp
}

func newTestBoard() *testBoard {
	b := &testBoard{button: &pin{high: true}, lamp: &lamp{}}
	for i := range b.selectors {
		b.selectors[i] = &pin{high: true}
	}
	return b
}

func (b *testBoard) Name() string            { return "test" }
func (b *testBoard) Button() board.Input     { return b.button }
func (b *testBoard) Indicator() board.Output { return b.lamp }
func (b *testBoard) Dimmer() board.Dimmer    { return b.lamp }
func (b *testBoard) Close() error            { return nil }

func (b *testBoard) Selectors() [board.SelectorCount]board.Input {
	var out [board.SelectorCount]board.Input
	for i, p := range b.selectors {
		out[i] = p
	}
	return out
}

func (b *testBoard) Programming() board.Input {
	if b.program == nil {
		return nil
	}
	return b.program
}

type lamp struct {
	mu     sync.Mutex
	values []bool
	duties []uint16
}

func (l *lamp) SetValue(on bool) {
	l.mu.Lock()
	l.values = append(l.values, on)
	l.mu.Unlock()
}

func (l *lamp) SetDutyCycle(d uint16) {
	l.mu.Lock()
	l.duties = append(l.duties, d)
	l.mu.Unlock()
}

type runCall struct {
	name string
	log  *logging.Logger
}

type fakeRunner struct {
	calls []runCall
	err   error
}

func (r *fakeRunner) RunWith(_ context.Context, name string, log *logging.Logger) error {
	r.calls = append(r.calls, runCall{name, log})
	return r.err
}

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

// press drives a full debounced press and release through m.
func press(t *testing.T, m *TriggerMonitor, b *testBoard, c *clock) {
	t.Helper()
	for _, high := range []bool{false, true} {
		b.button.set(high)
		for i := 0; i < 3; i++ {
			if err := m.Poll(context.Background()); err != nil {
				t.Fatalf("Poll() error = %v", err)
			}
			c.t = c.t.Add(6 * time.Millisecond)
		}
	}
}

func newMonitor(b *testBoard, r Runner, logs *bytes.Buffer) (*TriggerMonitor, *clock) {
	c := &clock{t: time.Unix(0, 0)}
	db := board.NewDebouncer(b.Button(), board.WithClock(c.now))
	m := NewTriggerMonitor(b, selector.NewFixed(selector.DefaultNames), r,
		WithDebouncer(db),
		WithMonitorLogger(logging.New(logging.Config{Output: logs})))
	m.newID = func() string { return "run-1" }
	return m, c
}

func TestTriggerMonitor_RunsOnRelease(t *testing.T) {
	b := newTestBoard()
	r := &fakeRunner{}
	var logs bytes.Buffer
	m, c := newMonitor(b, r, &logs)

	b.button.set(false)
	for i := 0; i < 3; i++ {
		_ = m.Poll(context.Background())
		c.t = c.t.Add(6 * time.Millisecond)
	}
	if len(r.calls) != 0 {
		t.Fatalf("payload ran on press, expected release")
	}

	b.button.set(true)
	for i := 0; i < 3; i++ {
		_ = m.Poll(context.Background())
		c.t = c.t.Add(6 * time.Millisecond)
	}
	if len(r.calls) != 1 {
		t.Fatalf("runs = %d, expected 1", len(r.calls))
	}
	if r.calls[0].name != "payload.dd" {
		t.Errorf("payload = %q, expected payload.dd", r.calls[0].name)
	}
	if !strings.Contains(logs.String(), "run=run-1") {
		t.Errorf("expected run id in logs: %s", logs.String())
	}
}

func TestTriggerMonitor_SelectsBySwitch(t *testing.T) {
	b := newTestBoard()
	b.selectors[2].set(false)
	b.selectors[3].set(false)
	r := &fakeRunner{}
	m, c := newMonitor(b, r, &bytes.Buffer{})

	press(t, m, b, c)

	if len(r.calls) != 1 || r.calls[0].name != "payload3.dd" {
		t.Errorf("calls = %v, expected payload3.dd", r.calls)
	}
}

func TestTriggerMonitor_RunErrorContinues(t *testing.T) {
	b := newTestBoard()
	r := &fakeRunner{err: errors.New("missing")}
	var logs bytes.Buffer
	m, c := newMonitor(b, r, &logs)

	var hooked []string
	m.onRun = func(name string, err error) { hooked = append(hooked, name) }

	press(t, m, b, c)
	press(t, m, b, c)

	if len(r.calls) != 2 {
		t.Errorf("runs = %d, expected 2", len(r.calls))
	}
	if len(hooked) != 2 {
		t.Errorf("hook calls = %d, expected 2", len(hooked))
	}
	if !strings.Contains(logs.String(), "missing") {
		t.Errorf("expected run error in logs: %s", logs.String())
	}
}

func TestTriggerMonitor_ProgrammingMode(t *testing.T) {
	b := newTestBoard()
	b.program = &pin{high: false}
	r := &fakeRunner{}
	m, c := newMonitor(b, r, &bytes.Buffer{})

	press(t, m, b, c)
	if len(r.calls) != 0 {
		t.Errorf("payload ran in programming mode")
	}

	b.program.set(true)
	press(t, m, b, c)
	if len(r.calls) != 1 {
		t.Errorf("runs = %d after leaving programming mode, expected 1", len(r.calls))
	}
}

func TestTriggerMonitor_RiseWithoutPressIgnored(t *testing.T) {
	b := newTestBoard()
	b.button.set(false)
	r := &fakeRunner{}
	m, c := newMonitor(b, r, &bytes.Buffer{})

	// the debouncer starts low, so only a rise is seen
	b.button.set(true)
	for i := 0; i < 3; i++ {
		_ = m.Poll(context.Background())
		c.t = c.t.Add(6 * time.Millisecond)
	}
	if len(r.calls) != 0 {
		t.Errorf("payload ran on a release with no press")
	}
}

func TestPulseDuty(t *testing.T) {
	tests := []struct {
		rising bool
		tick   int
		duty   uint16
		ok     bool
	}{
		{true, 0, 0, true},
		{true, 25, 32767, true},
		{true, 49, 64224, true},
		{true, 50, 0, false},
		{false, 0, 0, false},
		{false, 49, 0, false},
		{false, 50, 65535, true},
		{false, 99, 1311, true},
	}
	for _, tt := range tests {
		duty, ok := pulseDuty(tt.rising, tt.tick)
		if duty != tt.duty || ok != tt.ok {
			t.Errorf("pulseDuty(%v, %d) = %d, %v, expected %d, %v",
				tt.rising, tt.tick, duty, ok, tt.duty, tt.ok)
		}
	}
}

func TestBlinkIndicator(t *testing.T) {
	l := &lamp{}
	blink := NewBlinkIndicator(l)
	blink.period = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(ctx)
	s.Go("blink", func(ctx context.Context, h *Handle) error {
		return blink.Run(ctx, h)
	})
	time.Sleep(20 * time.Millisecond)
	cancel()
	if err := s.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.values) < 2 {
		t.Fatalf("values = %v, expected several toggles", l.values)
	}
	if l.values[0] || !l.values[1] {
		t.Errorf("values = %v, expected off then on", l.values[:2])
	}
}

func TestScheduler_OneTaskAtATime(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewScheduler(ctx)

	var running, overlap int32
	body := func(ctx context.Context, h *Handle) error {
		for i := 0; i < 50; i++ {
			if atomic.AddInt32(&running, 1) > 1 {
				atomic.StoreInt32(&overlap, 1)
			}
			time.Sleep(10 * time.Microsecond)
			atomic.AddInt32(&running, -1)
			if err := h.Yield(ctx); err != nil {
				return err
			}
		}
		return nil
	}
	for _, name := range []string{"a", "b", "c"} {
		s.Go(name, body)
	}
	if err := s.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if atomic.LoadInt32(&overlap) != 0 {
		t.Error("two tasks ran at the same time")
	}
}

func TestScheduler_LongTaskBlocksOthers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := NewScheduler(ctx)

	var mu sync.Mutex
	var order []string
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	started := make(chan struct{})
	s.Go("payload", func(ctx context.Context, h *Handle) error {
		close(started)
		record("payload start")
		// holds the turn: a payload run never yields
		time.Sleep(20 * time.Millisecond)
		record("payload end")
		return nil
	})
	<-started
	s.Go("indicator", func(ctx context.Context, h *Handle) error {
		record("indicator")
		return nil
	})
	if err := s.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	expected := []string{"payload start", "payload end", "indicator"}
	if strings.Join(order, ",") != strings.Join(expected, ",") {
		t.Errorf("order = %v, expected %v", order, expected)
	}
}

func TestScheduler_ErrorStopsOthers(t *testing.T) {
	s := NewScheduler(context.Background())
	boom := errors.New("boom")

	s.Go("forever", func(ctx context.Context, h *Handle) error {
		for {
			if err := h.Sleep(ctx, time.Millisecond); err != nil {
				return err
			}
		}
	})
	s.Go("fails", func(ctx context.Context, h *Handle) error {
		return boom
	})

	if err := s.Wait(); !errors.Is(err, boom) {
		t.Errorf("Wait() = %v, expected %v", err, boom)
	}
}
