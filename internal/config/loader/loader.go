// Package loader reads raw keyducky configuration layers (a TOML file and
// KEYDUCKY_* environment variables) into nested maps and merges them before
// they are decoded into a config.Config.
package loader

import (
	"fmt"
)

// Source is one configuration layer.
type Source interface {
	// Name identifies the layer in error messages.
	Name() string
	// Load returns the layer's settings. A layer that does not exist returns
	// nil, nil.
	Load() (map[string]any, error)
}

// Load reads every source and merges them in order, later sources winning.
func Load(sources ...Source) (map[string]any, error) {
	layers := make([]map[string]any, 0, len(sources))
	for _, src := range sources {
		m, err := src.Load()
		if err != nil {
			return nil, fmt.Errorf("config %s: %w", src.Name(), err)
		}
		layers = append(layers, m)
	}
	return Merge(layers...), nil
}

// Merge combines layers into a new map. Tables are merged key by key; any
// other value in a later layer replaces the earlier one. The layers are not
// modified.
func Merge(layers ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, layer := range layers {
		mergeInto(out, layer)
	}
	return out
}

func mergeInto(dst, src map[string]any) {
	for key, v := range src {
		table, isTable := v.(map[string]any)
		if !isTable {
			dst[key] = v
			continue
		}
		sub, ok := dst[key].(map[string]any)
		if !ok {
			sub = make(map[string]any, len(table))
			dst[key] = sub
		}
		mergeInto(sub, table)
	}
}

// ParseError reports malformed configuration, with the position when the
// TOML decoder knows it.
type ParseError struct {
	Source string
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("%s:%d:%d: %v", e.Source, e.Line, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: %v", e.Source, e.Line, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Source, e.Err)
	}
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
