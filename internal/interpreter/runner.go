package interpreter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"
	"unicode/utf8"

	"github.com/dshills/keyducky/internal/input/keycode"
	"github.com/dshills/keyducky/internal/logging"
	"github.com/dshills/keyducky/internal/script"
)

// Defaults for Runner options.
const (
	DefaultDwell          = 100 * time.Millisecond
	DefaultMaxImportDepth = 16
)

// Keyboard is the keystroke emitter a Runner drives.
type Keyboard interface {
	// Press holds keys down together.
	Press(keys ...keycode.Keycode) error
	// ReleaseAll releases every held key.
	ReleaseAll() error
	// Write types text literally through the host layout.
	Write(text string) error
}

// KeyLayout maps a key name's keycode to the key that produces it on the
// host layout, e.g. Z to the key labelled Z on a German keyboard.
type KeyLayout interface {
	Key(k keycode.Keycode) keycode.Keycode
}

// SleepFunc pauses for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Runner executes payload scripts.
//
// A Runner is not safe for concurrent use; runs are expected to happen one at
// a time from the trigger monitor.
type Runner struct {
	fsys   fs.FS
	kbd    Keyboard
	layout KeyLayout
	state  *State
	log    *logging.Logger

	dwell       time.Duration
	maxDepth    int
	sleep       SleepFunc
	onIndicator func(on bool)
}

// Option configures a Runner.
type Option func(*Runner)

// WithDwell sets how long a keystroke line is held before release.
func WithDwell(d time.Duration) Option {
	return func(r *Runner) {
		r.dwell = d
	}
}

// WithKeyLayout resolves keystroke-line key names through l.
func WithKeyLayout(l KeyLayout) Option {
	return func(r *Runner) {
		r.layout = l
	}
}

// WithMaxImportDepth bounds IMPORT nesting.
func WithMaxImportDepth(n int) Option {
	return func(r *Runner) {
		r.maxDepth = n
	}
}

// WithSleep replaces the sleep used for DELAY, the default delay and the
// keystroke dwell.
func WithSleep(fn SleepFunc) Option {
	return func(r *Runner) {
		r.sleep = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) {
		r.log = l
	}
}

// WithState makes the runner use s instead of a fresh State.
func WithState(s *State) Option {
	return func(r *Runner) {
		r.state = s
	}
}

// WithIndicatorHook registers fn to be called with the new indicator state
// after each LED line.
func WithIndicatorHook(fn func(on bool)) Option {
	return func(r *Runner) {
		r.onIndicator = fn
	}
}

// New creates a runner that opens payloads from fsys and types on kbd.
func New(fsys fs.FS, kbd Keyboard, opts ...Option) *Runner {
	r := &Runner{
		fsys:     fsys,
		kbd:      kbd,
		state:    &State{},
		log:      logging.Nop(),
		dwell:    DefaultDwell,
		maxDepth: DefaultMaxImportDepth,
		sleep:    Sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the interpreter state.
func (r *Runner) State() *State {
	return r.state
}

// Run executes the named payload to completion.
//
// Failures to open or read the payload are logged and returned; they never
// affect later runs. The returned error is nil when every line was attempted.
func (r *Runner) Run(ctx context.Context, name string) error {
	return r.RunWith(ctx, name, r.log)
}

// RunWith is Run with log lines written through base, typically a logger
// carrying a run id.
func (r *Runner) RunWith(ctx context.Context, name string, base *logging.Logger) error {
	r.state.forget()
	return r.run(ctx, base, name, 0)
}

// Exec performs one classified line outside of any payload, as the first
// line of a run would. A REPEAT line is a no-op here since it needs a
// payload's line history to mean anything. Errors other than context errors
// are returned rather than logged.
func (r *Runner) Exec(ctx context.Context, line script.Line) error {
	if line.Kind == script.KindRepeat {
		return nil
	}
	if err := r.dispatch(ctx, r.log, r.log, line, 0); err != nil {
		return err
	}
	r.state.remember(line.Raw)
	return nil
}

func (r *Runner) run(ctx context.Context, base *logging.Logger, name string, depth int) error {
	log := base.WithField("script", name)

	if depth > r.maxDepth {
		log.Warn("import of %s nested deeper than %d", name, r.maxDepth)
		return &ScriptError{Script: name, Err: ErrImportDepth}
	}

	f, err := r.fsys.Open(name)
	if err != nil {
		log.Warn("Unable to open file %s", name)
		return &ScriptError{Script: name, Err: fmt.Errorf("%w: %w", ErrOpen, err)}
	}
	defer f.Close()

	log.Debug("running payload (depth %d)", depth)

	err = script.Lines(f, func(n int, text string) error {
		if !utf8.ValidString(text) {
			log.Warn("line %d: %v", n, ErrEncoding)
			return &ScriptError{Script: name, Line: n, Err: ErrEncoding}
		}
		if err := r.step(ctx, base, log, text, n, depth); err != nil {
			return err
		}
		return r.sleep(ctx, r.state.DefaultDelay)
	})

	var rerr *script.ReadError
	if errors.As(err, &rerr) {
		log.Warn("line %d: %v", rerr.Line, rerr.Err)
		return &ScriptError{Script: name, Line: rerr.Line, Err: fmt.Errorf("%w: %w", ErrRead, rerr.Err)}
	}
	return err
}

// step handles one physical line. Only context errors are returned.
func (r *Runner) step(ctx context.Context, base, log *logging.Logger, text string, n, depth int) error {
	line, err := script.Parse(text)
	if err != nil {
		log.Warn("line %d: %v", n, err)
		return nil
	}

	if line.Kind != script.KindRepeat {
		if err := r.exec(ctx, base, log, line, n, depth); err != nil {
			return err
		}
		r.state.remember(line.Raw)
		return nil
	}

	if !r.state.HasPrevious {
		log.Debug("line %d: REPEAT with nothing to repeat", n)
		return nil
	}

	for i := 0; i < line.Count; i++ {
		prev, err := script.Parse(r.state.Previous)
		if err != nil {
			log.Warn("line %d: %v", n, err)
			return nil
		}
		if err := r.exec(ctx, base, log, prev, n, depth); err != nil {
			return err
		}
		if err := r.sleep(ctx, r.state.DefaultDelay); err != nil {
			return err
		}
	}
	return nil
}

// exec performs a classified line. Errors other than context errors are
// logged and swallowed; keyboard failures are logged as errors.
func (r *Runner) exec(ctx context.Context, base, log *logging.Logger, line script.Line, n, depth int) error {
	err := r.dispatch(ctx, base, log, line, depth)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if line.Kind == script.KindKeys || line.Kind == script.KindString {
		log.Error("line %d: %s: %v", n, line.Kind, err)
		return nil
	}
	log.Warn("line %d: %s: %v", n, line.Kind, err)
	return nil
}

func (r *Runner) dispatch(ctx context.Context, base, log *logging.Logger, line script.Line, depth int) error {
	switch line.Kind {
	case script.KindComment:
		return nil

	case script.KindDelay:
		return r.sleep(ctx, line.Delay)

	case script.KindString:
		return r.kbd.Write(line.Text)

	case script.KindPrint:
		log.Info("[SCRIPT]: %s", line.Text)
		return nil

	case script.KindImport:
		err := r.run(ctx, base, line.Text, depth+1)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		// already reported by the nested run
		return nil

	case script.KindDefaultDelay:
		r.state.DefaultDelay = line.Delay
		return nil

	case script.KindLED:
		r.state.Indicator = !r.state.Indicator
		if r.onIndicator != nil {
			r.onIndicator(r.state.Indicator)
		}
		return nil

	case script.KindKeys:
		return r.keystroke(ctx, log, line.Text)

	case script.KindRepeat:
		// handled by step; a replayed REPEAT is never recorded
		return nil

	default:
		return fmt.Errorf("unhandled line kind %s", line.Kind)
	}
}

// keystroke presses every key on the line together, holds them for the dwell
// and releases them.
func (r *Runner) keystroke(ctx context.Context, log *logging.Logger, text string) error {
	keys, unknown := script.Tokenize(text)
	for _, name := range unknown {
		log.Warn("Unknown key: <%s>", name)
	}
	if r.layout != nil {
		for i, k := range keys {
			keys[i] = r.layout.Key(k)
		}
	}

	if len(keys) == 0 {
		return r.kbd.ReleaseAll()
	}

	if err := r.kbd.Press(keys...); err != nil {
		_ = r.kbd.ReleaseAll()
		return err
	}
	if err := r.sleep(ctx, r.dwell); err != nil {
		_ = r.kbd.ReleaseAll()
		return err
	}
	return r.kbd.ReleaseAll()
}
