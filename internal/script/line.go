package script

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/keyducky/internal/input/keycode"
)

// Kind identifies what a script line does.
type Kind uint8

const (
	// KindKeys is a keystroke line.
	KindKeys Kind = iota
	// KindComment is a REM line.
	KindComment
	// KindDelay is a DELAY line.
	KindDelay
	// KindString is a STRING line.
	KindString
	// KindPrint is a PRINT line.
	KindPrint
	// KindImport is an IMPORT line.
	KindImport
	// KindDefaultDelay is a DEFAULT_DELAY or DEFAULTDELAY line.
	KindDefaultDelay
	// KindLED is an LED line.
	KindLED
	// KindRepeat is a REPEAT line.
	KindRepeat
)

// String returns the directive keyword for the kind.
func (k Kind) String() string {
	switch k {
	case KindKeys:
		return "KEYS"
	case KindComment:
		return "REM"
	case KindDelay:
		return "DELAY"
	case KindString:
		return "STRING"
	case KindPrint:
		return "PRINT"
	case KindImport:
		return "IMPORT"
	case KindDefaultDelay:
		return "DEFAULT_DELAY"
	case KindLED:
		return "LED"
	case KindRepeat:
		return "REPEAT"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// DefaultDelayUnit is the scale of the DEFAULT_DELAY argument.
const DefaultDelayUnit = 10 * time.Millisecond

// directives are matched as line prefixes, first match wins.
var directives = []struct {
	prefix string
	kind   Kind
}{
	{"REM", KindComment},
	{"DELAY", KindDelay},
	{"STRING", KindString},
	{"PRINT", KindPrint},
	{"IMPORT", KindImport},
	{"DEFAULT_DELAY", KindDefaultDelay},
	{"DEFAULTDELAY", KindDefaultDelay},
	{"LED", KindLED},
	{"REPEAT", KindRepeat},
}

// classify returns the directive kind of raw and its argument, which starts
// one character past the prefix. A line whose first key name resolves, such
// as PRINTSCREEN, stays a keystroke line.
func classify(raw string) (Kind, string, bool) {
	for _, d := range directives {
		if !strings.HasPrefix(raw, d.prefix) {
			continue
		}
		if isKeyName(raw) {
			return KindKeys, "", false
		}
		arg := ""
		if len(raw) > len(d.prefix)+1 {
			arg = raw[len(d.prefix)+1:]
		}
		return d.kind, arg, true
	}
	return KindKeys, "", false
}

func isKeyName(raw string) bool {
	first, _, _ := strings.Cut(raw, " ")
	first, _, _ = strings.Cut(first, "+")
	_, ok := keycode.Lookup(strings.ToUpper(first))
	return ok
}

// Line is a classified script line.
type Line struct {
	Kind Kind

	// Raw is the line as read, trailing whitespace removed.
	Raw string

	// Text is the argument for STRING, PRINT and IMPORT lines, and the whole
	// line for keystroke lines.
	Text string

	// Count is the REPEAT count.
	Count int

	// Delay is the DELAY duration, or the scaled DEFAULT_DELAY value.
	Delay time.Duration
}

// Parse errors
var (
	ErrMissingArgument = errors.New("missing argument")
	ErrInvalidNumber   = errors.New("invalid number")
	ErrNegativeNumber  = errors.New("negative number")
)

// SyntaxError describes a line that was classified but whose argument could
// not be parsed.
type SyntaxError struct {
	Kind Kind
	Arg  string
	Err  error
}

func (e *SyntaxError) Error() string {
	if e.Arg == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v %q", e.Kind, e.Err, e.Arg)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Parse classifies a single line. Trailing whitespace is removed before
// classification.
//
// When the line is a directive with a malformed numeric argument the returned
// Line still carries its Kind and Raw text, and the error is a *SyntaxError.
func Parse(raw string) (Line, error) {
	raw = strings.TrimRightFunc(raw, isSpace)

	kind, arg, ok := classify(raw)
	if !ok {
		return Line{Kind: KindKeys, Raw: raw, Text: raw}, nil
	}

	line := Line{Kind: kind, Raw: raw}

	switch kind {
	case KindComment, KindLED:
		// no argument

	case KindString, KindPrint:
		line.Text = arg

	case KindImport:
		line.Text = strings.TrimSpace(arg)
		if line.Text == "" {
			return line, &SyntaxError{Kind: kind, Err: ErrMissingArgument}
		}

	case KindDelay:
		ms, err := parseFloat(arg)
		if err != nil {
			return line, &SyntaxError{Kind: kind, Arg: arg, Err: err}
		}
		line.Delay = time.Duration(ms * float64(time.Millisecond))

	case KindDefaultDelay:
		n, err := parseInt(arg)
		if err != nil {
			return line, &SyntaxError{Kind: kind, Arg: arg, Err: err}
		}
		line.Delay = time.Duration(n) * DefaultDelayUnit

	case KindRepeat:
		n, err := parseInt(arg)
		if err != nil {
			return line, &SyntaxError{Kind: kind, Arg: arg, Err: err}
		}
		line.Count = n
	}

	return line, nil
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrMissingArgument
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrInvalidNumber
	}
	if n < 0 {
		return 0, ErrNegativeNumber
	}
	return n, nil
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrMissingArgument
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidNumber
	}
	if f < 0 {
		return 0, ErrNegativeNumber
	}
	return f, nil
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return true
	}
	return false
}
