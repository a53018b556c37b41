package board

import (
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
)

// PressHold is how long a simulated button press holds the line low.
// Terminals do not report key release, so each space bar press is a
// press followed by a release after PressHold.
const PressHold = 50 * time.Millisecond

// SimBoard is a Board drawn in a terminal.
type SimBoard struct {
	screen   tcell.Screen
	dimmable bool
	onQuit   func()
	now      func() time.Time

	mu          sync.Mutex
	releaseAt   time.Time
	switches    [SelectorCount]bool
	programming bool
	lit         bool
	duty        uint16
	status      string
	closed      bool
}

// SimOption configures a SimBoard.
type SimOption func(*SimBoard)

// WithDimmer gives the simulated indicator brightness control.
func WithDimmer() SimOption {
	return func(b *SimBoard) {
		b.dimmable = true
	}
}

// WithQuit sets the callback run when the user quits.
func WithQuit(fn func()) SimOption {
	return func(b *SimBoard) {
		b.onQuit = fn
	}
}

// WithSimClock replaces time.Now.
func WithSimClock(now func() time.Time) SimOption {
	return func(b *SimBoard) {
		b.now = now
	}
}

// NewSimBoard creates a simulator on screen. The screen is initialised by
// Start.
func NewSimBoard(screen tcell.Screen, opts ...SimOption) *SimBoard {
	b := &SimBoard{
		screen: screen,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start initialises the screen and begins reading key events.
func (b *SimBoard) Start() error {
	if err := b.screen.Init(); err != nil {
		return fmt.Errorf("sim: init screen: %w", err)
	}
	b.mu.Lock()
	b.draw()
	b.mu.Unlock()

	go b.loop()
	return nil
}

func (b *SimBoard) loop() {
	for {
		ev := b.screen.PollEvent()
		if ev == nil {
			return
		}
		b.handleEvent(ev)
	}
}

func (b *SimBoard) handleEvent(ev tcell.Event) {
	var quit bool

	b.mu.Lock()
	switch ev := ev.(type) {
	case *tcell.EventKey:
		quit = b.handleKey(ev)
	case *tcell.EventResize:
		if b.screen != nil {
			b.screen.Sync()
		}
	}
	b.draw()
	b.mu.Unlock()

	if quit && b.onQuit != nil {
		b.onQuit()
	}
}

// handleKey applies a key press. Caller holds mu.
func (b *SimBoard) handleKey(ev *tcell.EventKey) (quit bool) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
	default:
		return false
	}

	switch r := ev.Rune(); r {
	case ' ':
		b.releaseAt = b.now().Add(PressHold)
	case '1', '2', '3', '4':
		i := int(r - '1')
		b.switches[i] = !b.switches[i]
	case 'p', 'P':
		b.programming = !b.programming
	case 'q', 'Q':
		return true
	}
	return false
}

// SetStatus shows a message under the board.
func (b *SimBoard) SetStatus(msg string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.status = msg
	b.draw()
}

// Name implements Board.
func (b *SimBoard) Name() string {
	return "sim"
}

// Button implements Board.
func (b *SimBoard) Button() Input {
	return simButton{b}
}

// Selectors implements Board.
func (b *SimBoard) Selectors() [SelectorCount]Input {
	var out [SelectorCount]Input
	for i := range out {
		out[i] = simSwitch{b: b, index: i}
	}
	return out
}

// Programming implements Board.
func (b *SimBoard) Programming() Input {
	return simSwitch{b: b, index: -1}
}

// Indicator implements Board.
func (b *SimBoard) Indicator() Output {
	return simIndicator{b}
}

// Dimmer implements Board.
func (b *SimBoard) Dimmer() Dimmer {
	if !b.dimmable {
		return nil
	}
	return simIndicator{b}
}

// Close restores the terminal.
func (b *SimBoard) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if b.screen != nil {
		b.screen.Fini()
	}
	return nil
}

var (
	styleLabel = tcell.StyleDefault
	styleOn    = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleOff   = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// draw renders the board. Caller holds mu.
func (b *SimBoard) draw() {
	if b.screen == nil || b.closed {
		return
	}
	b.screen.Clear()

	y := 0
	drawText(b.screen, 0, y, styleLabel, "keyducky simulator  [space] button  [1-4] switches  [p] program  [q] quit")
	y += 2

	pressed := b.now().Before(b.releaseAt)
	drawText(b.screen, 0, y, styleLabel, "button:    ")
	drawText(b.screen, 11, y, onOff(pressed), label(pressed, "PRESSED", "released"))
	y++

	for i, closed := range b.switches {
		drawText(b.screen, 0, y, styleLabel, fmt.Sprintf("switch %d:  ", i+1))
		drawText(b.screen, 11, y, onOff(closed), label(closed, "ON", "off"))
		y++
	}
	drawText(b.screen, 0, y, styleLabel, "program:   ")
	drawText(b.screen, 11, y, onOff(b.programming), label(b.programming, "ON", "off"))
	y += 2

	if b.dimmable {
		level := int(b.duty) * 100 / MaxDuty
		bar := make([]rune, 20)
		for i := range bar {
			bar[i] = '░'
			if i < level/5 {
				bar[i] = '█'
			}
		}
		drawText(b.screen, 0, y, styleLabel, "indicator: ")
		drawText(b.screen, 11, y, onOff(level > 0), fmt.Sprintf("%s %3d%%", string(bar), level))
	} else {
		drawText(b.screen, 0, y, styleLabel, "indicator: ")
		drawText(b.screen, 11, y, onOff(b.lit), label(b.lit, "●", "○"))
	}
	y += 2

	if b.status != "" {
		drawText(b.screen, 0, y, styleLabel, b.status)
	}
	b.screen.Show()
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

func onOff(on bool) tcell.Style {
	if on {
		return styleOn
	}
	return styleOff
}

func label(on bool, yes, no string) string {
	if on {
		return yes
	}
	return no
}

type simButton struct {
	b *SimBoard
}

// Value is low while the simulated press holds.
func (in simButton) Value() bool {
	in.b.mu.Lock()
	defer in.b.mu.Unlock()
	return !in.b.now().Before(in.b.releaseAt)
}

// simSwitch is a selector switch, or the programming switch when index is -1.
type simSwitch struct {
	b     *SimBoard
	index int
}

func (in simSwitch) Value() bool {
	in.b.mu.Lock()
	defer in.b.mu.Unlock()
	if in.index < 0 {
		return !in.b.programming
	}
	return !in.b.switches[in.index]
}

type simIndicator struct {
	b *SimBoard
}

func (out simIndicator) SetValue(on bool) {
	out.b.mu.Lock()
	defer out.b.mu.Unlock()
	if out.b.lit == on {
		return
	}
	out.b.lit = on
	out.b.draw()
}

func (out simIndicator) SetDutyCycle(duty uint16) {
	out.b.mu.Lock()
	defer out.b.mu.Unlock()
	if out.b.duty == duty {
		return
	}
	out.b.duty = duty
	out.b.draw()
}
