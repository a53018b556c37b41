package script

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
)

// ErrUnknownKey is reported for key names outside the vocabulary.
var ErrUnknownKey = errors.New("unknown key")

// ErrMissingImport is reported for IMPORT lines whose target does not exist.
var ErrMissingImport = errors.New("import target not found")

// Issue is a problem found by Lint.
type Issue struct {
	Line int    // 1-based line number
	Text string // offending line
	Err  error
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d: %v", i.Line, i.Err)
}

// Lint checks a payload for malformed directive arguments and unknown key
// names without executing it.
func Lint(r io.Reader) ([]Issue, error) {
	issues, _, err := lint(r)
	return issues, err
}

// LintFile lints the named payload in fsys and also reports IMPORT lines
// whose target is missing from fsys.
func LintFile(fsys fs.FS, name string) ([]Issue, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	issues, imports, err := lint(f)
	if err != nil {
		return issues, err
	}

	for _, imp := range imports {
		if _, err := fs.Stat(fsys, imp.Text); err != nil {
			issues = append(issues, Issue{
				Line: imp.Line,
				Text: imp.Text,
				Err:  fmt.Errorf("%w: %s", ErrMissingImport, imp.Text),
			})
		}
	}
	return issues, nil
}

func lint(r io.Reader) (issues []Issue, imports []Issue, err error) {
	err = Lines(r, func(n int, text string) error {
		line, perr := Parse(text)
		if perr != nil {
			issues = append(issues, Issue{Line: n, Text: line.Raw, Err: perr})
			return nil
		}

		switch line.Kind {
		case KindKeys:
			_, unknown := Tokenize(line.Text)
			for _, name := range unknown {
				issues = append(issues, Issue{
					Line: n,
					Text: line.Raw,
					Err:  fmt.Errorf("%w: <%s>", ErrUnknownKey, name),
				})
			}
		case KindImport:
			imports = append(imports, Issue{Line: n, Text: line.Text})
		}
		return nil
	})
	return issues, imports, err
}
