package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Lines calls fn for each line of r with its 1-based number and without the
// line terminator. Lines may be of any length. Iteration stops at the first
// error returned by fn, which Lines returns unchanged.
func Lines(r io.Reader, fn func(n int, text string) error) error {
	br := bufio.NewReader(r)
	n := 0
	for {
		text, err := br.ReadString('\n')
		if text != "" {
			n++
			if ferr := fn(n, strings.TrimSuffix(text, "\n")); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &ReadError{Line: n + 1, Err: err}
		}
	}
}

// ReadError reports a failure reading a payload, at the line that could not
// be read.
type ReadError struct {
	Line int
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read line %d: %v", e.Line, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
