package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the root configuration for ttc, stored in ~/.ttc/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	// APIURL is the base URL of the timecard backend, without a trailing slash.
	APIURL string `json:"api_url"`
	// EmployeeID identifies whose timecards are read and written.
	EmployeeID int64 `json:"employee_id"`
	// APIToken is sent as a bearer token when non-empty.
	APIToken string `json:"api_token"`
	// DebounceMS is the quiet time after the last edit of an entry before it
	// is saved.
	DebounceMS int `json:"debounce_ms"`
	// Concurrency bounds the number of parallel backend requests.
	Concurrency int `json:"concurrency"`
	// RequestTimeoutSeconds bounds each backend request.
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`

	Server ServerConfig `json:"server"`
}

// ServerConfig holds settings for the bundled reference backend.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":3535".
	Addr string `json:"addr"`
	// DBPath is the SQLite database file. Empty = ~/.ttc/backend.db.
	DBPath string `json:"db_path"`
}

const (
	DefaultAPIURL                = "http://localhost:3535/api"
	DefaultEmployeeID            = 1
	DefaultDebounceMS            = 1000
	DefaultConcurrency           = 5
	DefaultRequestTimeoutSeconds = 15
	DefaultServerAddr            = ":3535"
)

// Debounce returns the debounce window as a duration.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// RequestTimeout returns the per-request timeout.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// defaultConfig returns a Config pre-filled with sensible defaults.
func defaultConfig() Config {
	return Config{
		APIURL:                DefaultAPIURL,
		EmployeeID:            DefaultEmployeeID,
		DebounceMS:            DefaultDebounceMS,
		Concurrency:           DefaultConcurrency,
		RequestTimeoutSeconds: DefaultRequestTimeoutSeconds,
		Server: ServerConfig{
			Addr: DefaultServerAddr,
		},
	}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// ttc configuration – ~/.ttc/config.json
//
// All settings are optional. Environment variables (TTC_API_URL,
// TTC_EMPLOYEE_ID, TTC_API_TOKEN, TTC_DEBOUNCE_MS, TTC_SERVER_ADDR,
// TTC_DB_PATH) and a .env file in the working directory override this file.
{
  // Base URL of the timecard REST backend.
  "api_url": "http://localhost:3535/api",

  // Employee whose timecards are edited.
  "employee_id": 1,

  // Optional bearer token sent with every request.
  "api_token": "",

  // Milliseconds to wait after the last edit of a day before saving it.
  "debounce_ms": 1000,

  // Maximum number of backend requests in flight at once.
  "concurrency": 5,

  // Timeout for a single backend request, in seconds.
  "request_timeout_seconds": 15,

  // ── Reference backend (ttc serve) ───────────────────────────────────────
  "server": {
    "addr": ":3535",

    // SQLite database file. Leave empty for ~/.ttc/backend.db.
    "db_path": ""
  }
}
`

// configFilePath returns the path to ~/.ttc/config.json.
func configFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".ttc", "config.json"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads ~/.ttc/config.json, creating it with annotated defaults on first
// run, then applies .env and environment overrides.
func Load() (Config, error) {
	path, err := configFilePath()
	if err != nil {
		return defaultConfig(), err
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit config path.
func LoadFile(path string) (Config, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		cfg := defaultConfig()
		if err := applyEnv(&cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}
	if err != nil {
		return defaultConfig(), fmt.Errorf("reading config file %s: %w", path, err)
	}

	cleaned := stripLineComments(data)
	var cfg Config
	if err := json.Unmarshal(cleaned, &cfg); err != nil {
		return defaultConfig(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// fillDefaults replaces zero-value fields with built-in defaults so callers
// always get a usable Config even if the user only partially fills in the file.
func fillDefaults(cfg *Config) {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.EmployeeID == 0 {
		cfg.EmployeeID = DefaultEmployeeID
	}
	if cfg.DebounceMS <= 0 {
		cfg.DebounceMS = DefaultDebounceMS
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		cfg.RequestTimeoutSeconds = DefaultRequestTimeoutSeconds
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}
}

// applyEnv overrides file values with TTC_* environment variables and then
// back-fills defaults.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("TTC_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("TTC_API_TOKEN"); v != "" {
		cfg.APIToken = v
	}
	if v := os.Getenv("TTC_EMPLOYEE_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TTC_EMPLOYEE_ID %q: %w", v, err)
		}
		cfg.EmployeeID = id
	}
	if v := os.Getenv("TTC_DEBOUNCE_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid TTC_DEBOUNCE_MS %q: %w", v, err)
		}
		cfg.DebounceMS = ms
	}
	if v := os.Getenv("TTC_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TTC_DB_PATH"); v != "" {
		cfg.Server.DBPath = v
	}
	fillDefaults(cfg)
	return nil
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
