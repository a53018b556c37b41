package config

import (
	"bytes"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/keyducky/internal/config/loader"
	"github.com/dshills/keyducky/internal/hid"
	"github.com/dshills/keyducky/internal/logging"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "KEYDUCKY_"

// Board kinds.
const (
	BoardGPIO = "gpio"
	BoardSim  = "sim"
)

// Indicator modes.
const (
	IndicatorPWM     = "pwm"
	IndicatorDigital = "digital"
)

// DryRunDevice as device.hid records keystrokes instead of writing a gadget.
const DryRunDevice = "-"

// Config is the complete keyducky configuration.
type Config struct {
	Device   DeviceConfig   `toml:"device"`
	Payloads PayloadsConfig `toml:"payloads"`
	Board    BoardConfig    `toml:"board"`
	Watch    WatchConfig    `toml:"watch"`
	Logging  LoggingConfig  `toml:"logging"`
}

// DeviceConfig configures the HID keyboard.
type DeviceConfig struct {
	HID         string `toml:"hid"`
	Layout      string `toml:"layout"`
	DwellMs     int    `toml:"dwellMs"`
	CharDelayMs int    `toml:"charDelayMs"`
}

// PayloadsConfig locates payload scripts.
type PayloadsConfig struct {
	Dir            string   `toml:"dir"`
	Files          []string `toml:"files"`
	SelectorScript string   `toml:"selectorScript"`
	MaxImportDepth int      `toml:"maxImportDepth"`
}

// BoardConfig selects and wires the board.
type BoardConfig struct {
	Kind          string   `toml:"kind"`
	Button        string   `toml:"button"`
	Selectors     []string `toml:"selectors"`
	Indicator     string   `toml:"indicator"`
	Programming   string   `toml:"programming"`
	IndicatorMode string   `toml:"indicatorMode"`
	DebounceMs    int      `toml:"debounceMs"`
	PollMs        int      `toml:"pollMs"`
}

// WatchConfig configures the payload watcher.
type WatchConfig struct {
	Enabled    bool `toml:"enabled"`
	DebounceMs int  `toml:"debounceMs"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			HID:         "/dev/hidg0",
			Layout:      "us",
			DwellMs:     100,
			CharDelayMs: 5,
		},
		Payloads: PayloadsConfig{
			Dir:            ".",
			Files:          []string{"payload.dd", "payload2.dd", "payload3.dd", "payload4.dd"},
			MaxImportDepth: 16,
		},
		Board: BoardConfig{
			Kind:          BoardGPIO,
			Button:        "GPIO22",
			Selectors:     []string{"GPIO4", "GPIO5", "GPIO10", "GPIO11"},
			Indicator:     "GPIO25",
			IndicatorMode: IndicatorPWM,
			DebounceMs:    10,
			PollMs:        1,
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMs: 200,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path (if it exists) and the environment over the defaults and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	return LoadWithFS(nil, path)
}

// LoadWithFS is Load reading the file through fsys. A nil fsys reads the
// operating system.
func LoadWithFS(fsys fs.FS, path string) (*Config, error) {
	var sources []loader.Source
	if path != "" {
		sources = append(sources, loader.TOMLFile{Path: path, FS: fsys})
	}
	sources = append(sources, loader.NewEnvLoader(EnvPrefix))

	raw, err := loader.Load(sources...)
	if err != nil {
		return nil, err
	}
	cfg, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode applies a raw configuration map over Default. Settings keyducky does
// not know are rejected.
func Decode(raw map[string]any) (*Config, error) {
	cfg := Default()
	if len(raw) == 0 {
		return cfg, nil
	}

	data, err := toml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encoding merged config: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, &loader.ParseError{Source: "<merged>", Err: err}
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs ValidationErrors
	fail := func(path, msg string, value any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value})
	}

	if c.Device.HID == "" {
		fail("device.hid", "must not be empty", c.Device.HID)
	}
	if _, err := hid.LayoutByName(c.Device.Layout); err != nil {
		fail("device.layout", fmt.Sprintf("must be one of %v", hid.LayoutNames()), c.Device.Layout)
	}
	if c.Device.DwellMs < 0 {
		fail("device.dwellMs", "must not be negative", c.Device.DwellMs)
	}
	if c.Device.CharDelayMs < 0 {
		fail("device.charDelayMs", "must not be negative", c.Device.CharDelayMs)
	}

	if len(c.Payloads.Files) != 4 {
		fail("payloads.files", "must name exactly 4 payloads", c.Payloads.Files)
	}
	for _, f := range c.Payloads.Files {
		if f == "" {
			fail("payloads.files", "payload name must not be empty", c.Payloads.Files)
			break
		}
	}
	if c.Payloads.MaxImportDepth < 0 {
		fail("payloads.maxImportDepth", "must not be negative", c.Payloads.MaxImportDepth)
	}

	if !slices.Contains([]string{BoardGPIO, BoardSim}, c.Board.Kind) {
		fail("board.kind", "must be gpio or sim", c.Board.Kind)
	}
	if !slices.Contains([]string{IndicatorPWM, IndicatorDigital}, c.Board.IndicatorMode) {
		fail("board.indicatorMode", "must be pwm or digital", c.Board.IndicatorMode)
	}
	if c.Board.Kind == BoardGPIO {
		if c.Board.Button == "" {
			fail("board.button", "must not be empty", c.Board.Button)
		}
		if c.Board.Indicator == "" {
			fail("board.indicator", "must not be empty", c.Board.Indicator)
		}
		if len(c.Board.Selectors) != 4 {
			fail("board.selectors", "must name exactly 4 pins", c.Board.Selectors)
		}
	}
	if c.Board.DebounceMs < 0 {
		fail("board.debounceMs", "must not be negative", c.Board.DebounceMs)
	}
	if c.Board.PollMs < 0 {
		fail("board.pollMs", "must not be negative", c.Board.PollMs)
	}

	if c.Watch.DebounceMs < 0 {
		fail("watch.debounceMs", "must not be negative", c.Watch.DebounceMs)
	}

	if !logging.ValidLevel(c.Logging.Level) {
		fail("logging.level", "must be debug, info, warn or error", c.Logging.Level)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DryRun reports whether keystrokes are recorded rather than sent.
func (c *Config) DryRun() bool {
	return c.Device.HID == DryRunDevice
}

// Dwell returns the keystroke hold time.
func (c *Config) Dwell() time.Duration {
	return ms(c.Device.DwellMs)
}

// CharDelay returns the STRING per-character delay.
func (c *Config) CharDelay() time.Duration {
	return ms(c.Device.CharDelayMs)
}

// DebounceInterval returns the button debounce interval.
func (c *Config) DebounceInterval() time.Duration {
	return ms(c.Board.DebounceMs)
}

// PollInterval returns the button poll interval.
func (c *Config) PollInterval() time.Duration {
	return ms(c.Board.PollMs)
}

// WatchDebounce returns the payload watcher debounce delay.
func (c *Config) WatchDebounce() time.Duration {
	return ms(c.Watch.DebounceMs)
}

// SelectorScriptPath resolves the Lua selector path against the payload
// directory, or returns "" when none is configured.
func (c *Config) SelectorScriptPath() string {
	p := c.Payloads.SelectorScript
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Payloads.Dir, p)
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}
