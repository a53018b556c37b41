package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/keyducky/internal/board"
	"github.com/dshills/keyducky/internal/logging"
	"github.com/dshills/keyducky/internal/selector"
)

// DefaultPollInterval is how often the trigger monitor samples the button.
const DefaultPollInterval = time.Millisecond

// Runner runs a payload by name.
type Runner interface {
	RunWith(ctx context.Context, name string, log *logging.Logger) error
}

type monitorState int

const (
	stateIdle monitorState = iota
	statePressed
)

// TriggerMonitor runs the selected payload when the button is released after
// a press.
type TriggerMonitor struct {
	board    board.Board
	button   *board.Debouncer
	selector selector.Selector
	runner   Runner
	log      *logging.Logger
	poll     time.Duration
	newID    func() string
	onRun    func(name string, err error)

	state monitorState
}

// MonitorOption configures a TriggerMonitor.
type MonitorOption func(*TriggerMonitor)

// WithPollInterval sets the sampling interval. Zero yields between samples
// without sleeping.
func WithPollInterval(d time.Duration) MonitorOption {
	return func(m *TriggerMonitor) {
		m.poll = d
	}
}

// WithDebouncer replaces the default debouncer on the board's button.
func WithDebouncer(db *board.Debouncer) MonitorOption {
	return func(m *TriggerMonitor) {
		m.button = db
	}
}

// WithMonitorLogger sets the logger.
func WithMonitorLogger(l *logging.Logger) MonitorOption {
	return func(m *TriggerMonitor) {
		m.log = l
	}
}

// WithRunHook registers fn to be called after each payload run.
func WithRunHook(fn func(name string, err error)) MonitorOption {
	return func(m *TriggerMonitor) {
		m.onRun = fn
	}
}

// NewTriggerMonitor creates a monitor for b's button.
func NewTriggerMonitor(b board.Board, sel selector.Selector, r Runner, opts ...MonitorOption) *TriggerMonitor {
	m := &TriggerMonitor{
		board:    b,
		selector: sel,
		runner:   r,
		log:      logging.Nop(),
		poll:     DefaultPollInterval,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.button == nil {
		m.button = board.NewDebouncer(b.Button())
	}
	return m
}

// Run polls the button until ctx is done.
func (m *TriggerMonitor) Run(ctx context.Context, h *Handle) error {
	for {
		if err := m.Poll(ctx); err != nil {
			return err
		}
		if err := h.Sleep(ctx, m.poll); err != nil {
			return err
		}
	}
}

// Poll samples the button once and runs a payload on a completed press.
// Only context errors are returned.
func (m *TriggerMonitor) Poll(ctx context.Context) error {
	m.button.Update()

	switch m.state {
	case stateIdle:
		if m.button.Fell() {
			m.state = statePressed
		}
	case statePressed:
		if m.button.Rose() {
			m.state = stateIdle
			return m.trigger(ctx)
		}
	}
	return nil
}

func (m *TriggerMonitor) trigger(ctx context.Context) error {
	if board.Asserted(m.board.Programming()) {
		m.log.Info("programming mode, button press ignored")
		return nil
	}

	name := m.selector.Select(board.ReadSelectors(m.board))
	log := m.log.WithField("run", m.newID())
	log.Info("running %s", name)

	start := time.Now()
	err := m.runner.RunWith(ctx, name, log)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if err != nil {
		log.Warn("payload %s failed: %v", name, err)
	} else {
		log.Info("finished %s in %v", name, time.Since(start).Round(time.Millisecond))
	}

	if m.onRun != nil {
		m.onRun(name, err)
	}
	return nil
}
