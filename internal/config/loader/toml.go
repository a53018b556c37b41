package loader

import (
	"errors"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// TOMLFile is a configuration layer read from a TOML file. A missing file is
// an empty layer.
type TOMLFile struct {
	Path string

	// FS is read instead of the operating system when set.
	FS fs.FS
}

// Name implements Source.
func (f TOMLFile) Name() string {
	return f.Path
}

// Load implements Source.
func (f TOMLFile) Load() (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if f.FS != nil {
		data, err = fs.ReadFile(f.FS, f.Path)
	} else {
		data, err = os.ReadFile(f.Path)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ParseTOML(f.Path, data)
}

// ParseTOML decodes data into a nested map. Errors are *ParseError carrying
// source as their Source.
func ParseTOML(source string, data []byte) (map[string]any, error) {
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, tomlError(source, err)
	}
	return m, nil
}

func tomlError(source string, err error) *ParseError {
	perr := &ParseError{Source: source, Err: err}
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		perr.Line, perr.Column = derr.Position()
	}
	return perr
}
