// Package app wires the keyducky components together and manages the daemon
// lifecycle: configuration, board, keyboard, interpreter, payload selection,
// the scheduled tasks and the payload watcher.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keyducky/internal/board"
	"github.com/dshills/keyducky/internal/config"
	"github.com/dshills/keyducky/internal/hid"
	"github.com/dshills/keyducky/internal/interpreter"
	"github.com/dshills/keyducky/internal/logging"
	"github.com/dshills/keyducky/internal/script"
	"github.com/dshills/keyducky/internal/selector"
	"github.com/dshills/keyducky/internal/task"
	"github.com/dshills/keyducky/internal/watcher"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string

	// LogLevel overrides logging.level when set.
	LogLevel string

	// Sim forces the terminal simulator board.
	Sim bool

	// DryRun records keystrokes instead of writing to the HID device.
	DryRun bool

	// NoBoard skips opening the board, for one-shot runs and checks.
	NoBoard bool

	// LogOutput is where logs go. Defaults to stderr, or the simulator
	// status line while the simulator runs.
	LogOutput io.Writer

	// The fields below replace real devices, mainly for tests.

	// Config is used instead of loading ConfigPath.
	Config *config.Config
	// Board is used instead of opening one from the configuration.
	Board board.Board
	// Screen is the terminal for the simulator board.
	Screen tcell.Screen
	// HID receives keyboard reports instead of device.hid.
	HID io.Writer
	// Payloads is read instead of payloads.dir.
	Payloads fs.FS
}

// Application is the keyducky daemon.
type Application struct {
	opts Options
	cfg  *config.Config
	log  *logging.Logger

	board    board.Board
	sim      *board.SimBoard
	kbd      interpreter.Keyboard
	layout   hid.Layout
	recorder *hid.Recorder
	closers  []io.Closer

	payloads fs.FS
	runner   *interpreter.Runner
	selector selector.Selector
	lua      *selector.Lua

	mu       sync.Mutex
	cancel   context.CancelFunc
	running  atomic.Bool
	shutdown sync.Once
}

// New creates an Application. Startup failures are returned as
// *StartupError.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts}

	if err := app.bootstrap(); err != nil {
		app.Shutdown()
		return nil, err
	}
	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Config
	cfg := app.opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(app.opts.ConfigPath); err != nil {
			return startupError("config", "load", err)
		}
	}
	if app.opts.LogLevel != "" {
		cfg.Logging.Level = app.opts.LogLevel
	}
	if app.opts.Sim {
		cfg.Board.Kind = config.BoardSim
	}
	if app.opts.DryRun {
		cfg.Device.HID = config.DryRunDevice
	}
	if err := cfg.Validate(); err != nil {
		return startupError("config", "validate", err)
	}
	app.cfg = cfg

	// 2. Logging
	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.Logging.Level)
	if app.opts.LogOutput != nil {
		logCfg.Output = app.opts.LogOutput
	}
	app.log = logging.New(logCfg)

	// 3. Keyboard
	if err := app.openKeyboard(); err != nil {
		return err
	}

	// 4. Interpreter
	app.payloads = app.opts.Payloads
	if app.payloads == nil {
		app.payloads = os.DirFS(cfg.Payloads.Dir)
	}
	app.runner = interpreter.New(app.payloads, app.kbd,
		interpreter.WithDwell(cfg.Dwell()),
		interpreter.WithMaxImportDepth(cfg.Payloads.MaxImportDepth),
		interpreter.WithKeyLayout(app.layout),
		interpreter.WithLogger(app.log.WithComponent("interpreter")),
		interpreter.WithIndicatorHook(app.setIndicator),
	)

	// 5. Selector
	if err := app.openSelector(); err != nil {
		return err
	}

	// 6. Board
	if app.opts.NoBoard {
		return nil
	}
	return app.openBoard()
}

func (app *Application) openKeyboard() error {
	layout, err := hid.LayoutByName(app.cfg.Device.Layout)
	if err != nil {
		return startupError("hid", "layout", err)
	}
	app.layout = layout

	if app.cfg.DryRun() {
		rec := hid.NewRecorder()
		log := app.log.WithComponent("dry-run")
		rec.OnEvent = func(e hid.Event) {
			log.Info("%s", e)
		}
		app.recorder = rec
		app.kbd = rec
		return nil
	}

	w := app.opts.HID
	if w == nil {
		f, err := os.OpenFile(app.cfg.Device.HID, os.O_WRONLY, 0)
		if err != nil {
			return startupError("hid", "open "+app.cfg.Device.HID, err)
		}
		app.closers = append(app.closers, f)
		w = f
	}

	app.kbd = hid.NewKeyboard(w,
		hid.WithLayout(layout),
		hid.WithCharDelay(app.cfg.CharDelay()),
	)
	return nil
}

func (app *Application) openSelector() error {
	var names [selector.Inputs]string
	copy(names[:], app.cfg.Payloads.Files)
	fixed := selector.NewFixed(names)
	app.selector = fixed

	path := app.cfg.SelectorScriptPath()
	if path == "" {
		return nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return startupError("selector", "read "+path, err)
	}
	lua, err := selector.NewLua(string(src), fixed, app.log.WithComponent("selector"))
	if err != nil {
		return startupError("selector", "load "+path, err)
	}
	app.lua = lua
	app.selector = lua
	return nil
}

func (app *Application) openBoard() error {
	if app.opts.Board != nil {
		app.board = app.opts.Board
		return nil
	}

	bc := app.cfg.Board
	switch bc.Kind {
	case config.BoardSim:
		screen := app.opts.Screen
		if screen == nil {
			var err error
			if screen, err = tcell.NewScreen(); err != nil {
				return startupError("board", "create screen", err)
			}
		}
		simOpts := []board.SimOption{board.WithQuit(app.requestQuit)}
		if bc.IndicatorMode == config.IndicatorPWM {
			simOpts = append(simOpts, board.WithDimmer())
		}
		app.sim = board.NewSimBoard(screen, simOpts...)
		app.board = app.sim

	default:
		gcfg := board.GPIOConfig{
			Button:      bc.Button,
			Programming: bc.Programming,
			Indicator:   bc.Indicator,
			PWM:         bc.IndicatorMode == config.IndicatorPWM,
		}
		copy(gcfg.Selectors[:], bc.Selectors)
		b, err := board.OpenGPIO(gcfg)
		if err != nil {
			return startupError("board", "open gpio", err)
		}
		app.board = b
	}
	return nil
}

// Run starts the trigger monitor, the indicator and the payload watcher and
// blocks until ctx is done, the simulator quits, or Shutdown is called.
func (app *Application) Run(ctx context.Context) error {
	if app.board == nil {
		return ErrNoBoard
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	app.mu.Lock()
	app.cancel = cancel
	app.mu.Unlock()

	if app.sim != nil {
		if err := app.sim.Start(); err != nil {
			return startupError("board", "start simulator", err)
		}
		if app.opts.LogOutput == nil {
			app.log.SetOutput(statusWriter{app.sim})
			defer app.log.SetOutput(os.Stderr)
		}
	}

	app.log.Info("keyducky started on %s board, payloads in %s", app.board.Name(), app.cfg.Payloads.Dir)
	app.lintAll()

	if app.cfg.Watch.Enabled {
		if stop, err := app.startWatcher(ctx); err != nil {
			app.log.Warn("payload watcher disabled: %v", err)
		} else {
			defer stop()
		}
	}

	sched := task.NewScheduler(ctx)
	sched.Go("trigger", app.newMonitor().Run)
	sched.Go("indicator", app.newIndicator())

	err := sched.Wait()
	app.log.Info("keyducky stopped")
	return err
}

func (app *Application) newMonitor() *task.TriggerMonitor {
	db := board.NewDebouncer(app.board.Button(),
		board.WithInterval(app.cfg.DebounceInterval()))

	opts := []task.MonitorOption{
		task.WithDebouncer(db),
		task.WithPollInterval(app.cfg.PollInterval()),
		task.WithMonitorLogger(app.log.WithComponent("trigger")),
	}
	if app.sim != nil {
		sim := app.sim
		opts = append(opts, task.WithRunHook(func(name string, err error) {
			if err != nil {
				sim.SetStatus(fmt.Sprintf("%s failed: %v", name, err))
				return
			}
			sim.SetStatus(name + " done")
		}))
	}
	return task.NewTriggerMonitor(app.board, app.selector, app.runner, opts...)
}

func (app *Application) newIndicator() task.Func {
	if d := app.board.Dimmer(); d != nil && app.cfg.Board.IndicatorMode == config.IndicatorPWM {
		return task.NewPulseIndicator(d).Run
	}
	return task.NewBlinkIndicator(app.board.Indicator()).Run
}

func (app *Application) startWatcher(ctx context.Context) (stop func(), err error) {
	dir, err := watcher.NewDirWatcher(app.cfg.Payloads.Dir)
	if err != nil {
		return nil, err
	}
	dw := watcher.Debounce(dir, app.cfg.WatchDebounce())
	log := app.log.WithComponent("watcher")
	log.Debug("watching %s for payload changes", dir.Dir())
	linter := watcher.NewPayloadLinter(app.payloads, dw, watcher.WithLinterLogger(log))

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := linter.Run(ctx); err != nil {
			app.log.Warn("payload watcher stopped: %v", err)
		}
	}()

	return func() {
		_ = dw.Close()
		<-done
	}, nil
}

// setIndicator follows the LED directive.
func (app *Application) setIndicator(on bool) {
	if app.board == nil {
		return
	}
	if d := app.board.Dimmer(); d != nil && app.cfg.Board.IndicatorMode == config.IndicatorPWM {
		var duty uint16
		if on {
			duty = board.MaxDuty
		}
		d.SetDutyCycle(duty)
		return
	}
	app.board.Indicator().SetValue(on)
}

func (app *Application) requestQuit() {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.cancel != nil {
		app.cancel()
	}
}

// RunOnce runs one payload immediately.
func (app *Application) RunOnce(ctx context.Context, name string) error {
	if err := app.runner.Run(ctx, name); err != nil {
		return &PayloadError{Op: "run", Payload: name, Err: err}
	}
	return nil
}

// LintResult is the outcome of linting one payload.
type LintResult struct {
	Payload string
	Issues  []script.Issue
	Err     error
}

// Check lints every configured payload. The error wraps ErrLintIssues when
// any payload has issues or cannot be read.
func (app *Application) Check() ([]LintResult, error) {
	var (
		results []LintResult
		errs    []error
	)
	seen := make(map[string]bool)

	for _, name := range app.cfg.Payloads.Files {
		if seen[name] {
			continue
		}
		seen[name] = true

		issues, err := script.LintFile(app.payloads, name)
		results = append(results, LintResult{Payload: name, Issues: issues, Err: err})
		switch {
		case err != nil:
			errs = append(errs, &PayloadError{Op: "check", Payload: name, Err: err})
		case len(issues) > 0:
			errs = append(errs, &PayloadError{
				Op:      "check",
				Payload: name,
				Err:     fmt.Errorf("%d issues: %w", len(issues), ErrLintIssues),
			})
		}
	}
	return results, errors.Join(errs...)
}

func (app *Application) lintAll() {
	results, _ := app.Check()
	log := app.log.WithComponent("check")
	for _, r := range results {
		if r.Err != nil {
			log.Warn("payload %s: %v", r.Payload, r.Err)
		}
		for _, issue := range r.Issues {
			log.Warn("payload %s: %s", r.Payload, issue)
		}
	}
}

// Recorder returns the dry-run recorder, or nil when writing to a device.
func (app *Application) Recorder() *hid.Recorder {
	return app.recorder
}

// Config returns the effective configuration.
func (app *Application) Config() *config.Config {
	return app.cfg
}

// Shutdown stops Run and releases every device. It is safe to call more
// than once.
func (app *Application) Shutdown() error {
	var errs []error
	app.shutdown.Do(func() {
		app.requestQuit()

		if app.lua != nil {
			app.lua.Close()
		}
		if app.board != nil {
			errs = append(errs, app.board.Close())
		}
		for _, c := range app.closers {
			errs = append(errs, c.Close())
		}
	})
	return errors.Join(errs...)
}

// IsRunning returns true while Run is active.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// statusWriter shows log lines on the simulator status line.
type statusWriter struct {
	sim *board.SimBoard
}

func (w statusWriter) Write(p []byte) (int, error) {
	w.sim.SetStatus(strings.TrimRight(string(p), "\r\n"))
	return len(p), nil
}
