package loader

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
)

// EnvLoader is the configuration layer read from environment variables.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "KEYDUCKY_")
	mapping map[string]string // Env var -> config path
	environ func() []string
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "KEYDUCKY_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: defaultEnvMapping(),
		environ: os.Environ,
	}
}

// defaultEnvMapping holds the short names that do not follow the
// SECTION_SETTING convention.
func defaultEnvMapping() map[string]string {
	return map[string]string{
		"KEYDUCKY_LOG_LEVEL":   "logging.level",
		"KEYDUCKY_HID":         "device.hid",
		"KEYDUCKY_LAYOUT":      "device.layout",
		"KEYDUCKY_PAYLOAD_DIR": "payloads.dir",
		"KEYDUCKY_BOARD":       "board.kind",
	}
}

// Name implements Source.
func (l *EnvLoader) Name() string {
	return l.prefix + "* environment"
}

// Load implements Source. Empty values are kept, not treated as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for _, env := range l.environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}

		path, mapped := l.mapping[name]
		if !mapped {
			// KEYDUCKY_DEVICE_DWELL_MS -> device.dwellMs
			path = l.envToPath(name)
		}
		if path == "" {
			continue
		}
		setByPath(config, path, parseValue(value))
	}

	return config, nil
}

// envToPath converts KEYDUCKY_DEVICE_DWELL_MS to device.dwellMs.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.TrimPrefix(env, l.prefix)
	parts := strings.Split(name, "_")
	if len(parts) < 2 {
		return ""
	}

	section := strings.ToLower(parts[0])
	setting := strings.ToLower(parts[1])
	for _, part := range parts[2:] {
		if len(part) > 0 {
			setting += strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
		}
	}
	return section + "." + setting
}

// parseValue attempts to parse the string value into an appropriate type.
// Numbers are never read as booleans, so KEYDUCKY_DEVICE_DWELL_MS=1 stays 1.
func parseValue(s string) any {
	if s == "" {
		return s
	}

	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	// JSON arrays, for list settings such as payloads.files
	if strings.HasPrefix(s, "[") {
		var v []any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}

	return s
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data

	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if next, ok := current[part].(map[string]any); ok {
			current = next
		} else {
			next := make(map[string]any)
			current[part] = next
			current = next
		}
	}

	current[parts[len(parts)-1]] = value
}

var (
	_ Source = TOMLFile{}
	_ Source = (*EnvLoader)(nil)
)
