// Package config defines the keyducky configuration and loads it from a TOML
// file with KEYDUCKY_* environment overrides.
//
// Sources are merged as raw maps (environment wins) and then decoded over
// Default, so any setting left out keeps its default value.
package config
