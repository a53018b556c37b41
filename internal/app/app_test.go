package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keyducky/internal/board"
	"github.com/dshills/keyducky/internal/config"
	"github.com/dshills/keyducky/internal/hid"
	"github.com/dshills/keyducky/internal/input/keycode"
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

type lamp struct {
	mu     sync.Mutex
	on     bool
	duty   uint16
	closed bool
}

func (l *lamp) SetValue(on bool) {
	l.mu.Lock()
	l.on = on
	l.mu.Unlock()
}

func (l *lamp) SetDutyCycle(d uint16) {
	l.mu.Lock()
	l.duty = d
	l.mu.Unlock()
}

type fakeBoard struct {
	button    *pin
	selectors [board.SelectorCount]*pin
	lamp      *lamp
	dimmable  bool
}

func newFakeBoard() *fakeBoard {
	b := &fakeBoard{button: &pin{high: true}, lamp: &lamp{}}
	for i := range b.selectors {
		b.selectors[i] = &pin{high: true}
	}
	return b
}

func (b *fakeBoard) Name() string             { return "fake" }
func (b *fakeBoard) Button() board.Input      { return b.button }
func (b *fakeBoard) Programming() board.Input { return nil }
func (b *fakeBoard) Indicator() board.Output  { return b.lamp }

func (b *fakeBoard) Selectors() [board.SelectorCount]board.Input {
	var out [board.SelectorCount]board.Input
	for i, p := range b.selectors {
		out[i] = p
	}
	return out
}

func (b *fakeBoard) Dimmer() board.Dimmer {
	if !b.dimmable {
		return nil
	}
	return b.lamp
}

func (b *fakeBoard) Close() error {
	b.lamp.mu.Lock()
	b.lamp.closed = true
	b.lamp.mu.Unlock()
	return nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Device.HID = config.DryRunDevice
	cfg.Device.DwellMs = 0
	cfg.Board.IndicatorMode = config.IndicatorDigital
	cfg.Watch.Enabled = false
	return cfg
}

func newTestApp(t *testing.T, files fstest.MapFS, opts Options) (*Application, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	if opts.Config == nil {
		opts.Config = testConfig()
	}
	opts.Payloads = files
	opts.LogOutput = &logs
	app, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = app.Shutdown() })
	return app, &logs
}

func TestRunOnce_DryRun(t *testing.T) {
	files := fstest.MapFS{
		"payload.dd": {Data: []byte("GUI r\nSTRING hi\nLED\n")},
	}
	b := newFakeBoard()
	app, logs := newTestApp(t, files, Options{Board: b})

	if err := app.RunOnce(context.Background(), "payload.dd"); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	events := app.Recorder().Events()
	if len(events) < 3 {
		t.Fatalf("events = %v", events)
	}
	if events[0].String() != "press GUI+R" {
		t.Errorf("first event = %q, expected press GUI+R", events[0])
	}
	if !strings.Contains(logs.String(), `type "hi"`) {
		t.Errorf("expected dry-run log of STRING, logs: %s", logs.String())
	}
	if !b.lamp.on {
		t.Error("LED directive did not switch the indicator on")
	}
}

func TestRunOnce_MissingPayload(t *testing.T) {
	app, _ := newTestApp(t, fstest.MapFS{}, Options{NoBoard: true})

	err := app.RunOnce(context.Background(), "nope.dd")
	var perr *PayloadError
	if !errors.As(err, &perr) || perr.Payload != "nope.dd" || perr.Op != "run" {
		t.Errorf("RunOnce() = %v, expected run *PayloadError for nope.dd", err)
	}
}

func TestCheck(t *testing.T) {
	files := fstest.MapFS{
		"payload.dd":  {Data: []byte("ENTER\n")},
		"payload2.dd": {Data: []byte("DELAY x\nFOO\n")},
		"payload3.dd": {Data: []byte("REM ok\n")},
	}
	app, _ := newTestApp(t, files, Options{NoBoard: true})

	results, err := app.Check()
	if !errors.Is(err, ErrLintIssues) {
		t.Errorf("Check() error = %v, expected ErrLintIssues", err)
	}
	if len(results) != 4 {
		t.Fatalf("results = %d, expected 4", len(results))
	}
	if len(results[0].Issues) != 0 || results[0].Err != nil {
		t.Errorf("payload.dd result = %+v, expected clean", results[0])
	}
	if len(results[1].Issues) != 2 {
		t.Errorf("payload2.dd issues = %v, expected 2", results[1].Issues)
	}
	if results[3].Err == nil {
		t.Error("payload4.dd is missing, expected an error")
	}
}

func TestNew_Errors(t *testing.T) {
	cfg := testConfig()
	cfg.Device.HID = "/nonexistent/hidg0"
	_, err := New(Options{Config: cfg, NoBoard: true, LogOutput: &bytes.Buffer{}})
	var serr *StartupError
	if !errors.As(err, &serr) || serr.Component != "hid" {
		t.Errorf("New() = %v, expected hid StartupError", err)
	}

	cfg = testConfig()
	cfg.Payloads.Dir = t.TempDir()
	cfg.Payloads.SelectorScript = "missing.lua"
	_, err = New(Options{Config: cfg, NoBoard: true, LogOutput: &bytes.Buffer{}})
	if !errors.As(err, &serr) || serr.Component != "selector" {
		t.Errorf("New() = %v, expected selector StartupError", err)
	}

	cfg = testConfig()
	_, err = New(Options{Config: cfg, LogLevel: "chatty", NoBoard: true})
	if !errors.Is(err, config.ErrValidationFailed) {
		t.Errorf("New() = %v, expected validation failure", err)
	}
}

func TestNew_WritesReportsToDevice(t *testing.T) {
	cfg := testConfig()
	cfg.Device.HID = "/dev/hidg0"
	cfg.Device.CharDelayMs = 0
	var dev bytes.Buffer
	app, _ := newTestApp(t, fstest.MapFS{"payload.dd": {Data: []byte("CTRL c\n")}},
		Options{Config: cfg, HID: &dev, NoBoard: true})

	if err := app.RunOnce(context.Background(), "payload.dd"); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if app.Recorder() != nil {
		t.Error("Recorder() != nil when writing to a device")
	}

	reports := dev.Bytes()
	if len(reports) != 2*hid.ReportSize {
		t.Fatalf("wrote %d bytes, expected two reports", len(reports))
	}
	if reports[0] != keycode.LeftControl.ModifierBit() || reports[2] != byte(keycode.C) {
		t.Errorf("press report = % x", reports[:hid.ReportSize])
	}
	for _, b := range reports[hid.ReportSize:] {
		if b != 0 {
			t.Errorf("release report = % x, expected zeros", reports[hid.ReportSize:])
			break
		}
	}
}

func TestRun_ButtonRunsSelectedPayload(t *testing.T) {
	files := fstest.MapFS{
		"payload.dd":  {Data: []byte("A\n")},
		"payload2.dd": {Data: []byte("B\n")},
	}
	b := newFakeBoard()
	b.selectors[1].set(false)
	app, logs := newTestApp(t, files, Options{Board: b})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	b.button.set(false)
	time.Sleep(40 * time.Millisecond)
	b.button.set(true)

	deadline := time.Now().Add(2 * time.Second)
	for len(app.Recorder().Presses()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	presses := app.Recorder().Presses()
	if len(presses) != 1 || presses[0][0] != keycode.B {
		t.Errorf("presses = %v, expected [[B]]", presses)
	}
	if !strings.Contains(logs.String(), "running payload2.dd") {
		t.Errorf("expected run log, logs: %s", logs.String())
	}
}

func TestRun_Errors(t *testing.T) {
	app, _ := newTestApp(t, fstest.MapFS{}, Options{NoBoard: true})
	if err := app.Run(context.Background()); !errors.Is(err, ErrNoBoard) {
		t.Errorf("Run() without board = %v, expected ErrNoBoard", err)
	}
}

func TestRun_SimulatorQuit(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	app, _ := newTestApp(t, fstest.MapFS{}, Options{Sim: true, Screen: screen})

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for !app.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	_ = screen.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone))

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("simulator quit did not stop Run")
	}
}

func TestShutdown_Idempotent(t *testing.T) {
	b := newFakeBoard()
	app, _ := newTestApp(t, fstest.MapFS{}, Options{Board: b})

	if err := app.Shutdown(); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if err := app.Shutdown(); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
	if !b.lamp.closed {
		t.Error("board not closed")
	}
}

func TestSetIndicator_Dimmer(t *testing.T) {
	b := newFakeBoard()
	b.dimmable = true
	cfg := testConfig()
	cfg.Board.IndicatorMode = config.IndicatorPWM
	app, _ := newTestApp(t, fstest.MapFS{}, Options{Config: cfg, Board: b})

	app.setIndicator(true)
	if b.lamp.duty != board.MaxDuty {
		t.Errorf("duty = %d, expected %d", b.lamp.duty, board.MaxDuty)
	}
	app.setIndicator(false)
	if b.lamp.duty != 0 {
		t.Errorf("duty = %d, expected 0", b.lamp.duty)
	}
}
