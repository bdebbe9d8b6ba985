// Package config handles the XDG configuration directory, the optional
// config.yaml and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "taskflow"

	// ConfigFile is the optional settings file inside the config directory.
	ConfigFile = "config.yaml"

	// EnvFile holds KEY=value overrides, read from the config directory and
	// the working directory.
	EnvFile = ".env"

	// SessionFile is the persisted session database.
	SessionFile = "session.db"

	// DefaultAPIURL is the backend used when nothing else is configured.
	DefaultAPIURL = "http://localhost:5000"
)

// Environment variables overriding config.yaml.
const (
	EnvAPIURL   = "TASKFLOW_API_URL"
	EnvPageSize = "TASKFLOW_PAGE_SIZE"
	EnvTimeout  = "TASKFLOW_TIMEOUT"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// APIURL is the root URL of the REST backend.
	APIURL string

	// PageSize is the manager list page size.
	PageSize int

	// FilteredLimit caps the single page fetched while filters are active.
	FilteredLimit int

	// SearchDebounce is the manager search quiet period.
	SearchDebounce time.Duration

	// MemberSearchDebounce is the member search quiet period.
	MemberSearchDebounce time.Duration

	// Timeout bounds each backend call.
	Timeout time.Duration
}

// fileSettings mirrors config.yaml. Durations are Go duration strings.
type fileSettings struct {
	APIURL               string `yaml:"api_url"`
	PageSize             int    `yaml:"page_size"`
	FilteredLimit        int    `yaml:"filtered_limit"`
	SearchDebounce       string `yaml:"search_debounce"`
	MemberSearchDebounce string `yaml:"member_search_debounce"`
	Timeout              string `yaml:"timeout"`
}

// New creates a new Config with the default or specified config directory
// and built-in defaults. It reads nothing from disk.
// If configDir is empty, uses XDG_CONFIG_HOME/taskflow or $HOME/.config/taskflow.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{
		Dir:                  dir,
		APIURL:               DefaultAPIURL,
		PageSize:             8,
		FilteredLimit:        1000,
		SearchDebounce:       350 * time.Millisecond,
		MemberSearchDebounce: 300 * time.Millisecond,
		Timeout:              10 * time.Second,
	}, nil
}

// Load creates a Config and applies, in increasing precedence, config.yaml,
// .env files and the process environment. Missing files are not an error.
func Load(configDir string) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.loadFile(); err != nil {
		return nil, err
	}
	if err := loadDotEnv(filepath.Join(cfg.Dir, EnvFile), EnvFile); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.ConfigPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", ConfigFile, err)
	}

	var s fileSettings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}

	if s.APIURL != "" {
		c.APIURL = s.APIURL
	}
	if s.PageSize > 0 {
		c.PageSize = s.PageSize
	}
	if s.FilteredLimit > 0 {
		c.FilteredLimit = s.FilteredLimit
	}
	durations := []struct {
		key string
		val string
		dst *time.Duration
	}{
		{"search_debounce", s.SearchDebounce, &c.SearchDebounce},
		{"member_search_debounce", s.MemberSearchDebounce, &c.MemberSearchDebounce},
		{"timeout", s.Timeout, &c.Timeout},
	}
	for _, d := range durations {
		if d.val == "" {
			continue
		}
		v, err := time.ParseDuration(d.val)
		if err != nil || v < 0 {
			return fmt.Errorf("invalid %s: %s: %q", ConfigFile, d.key, d.val)
		}
		*d.dst = v
	}
	return nil
}

// loadDotEnv loads the existing files among paths. Variables already set in
// the environment win.
func loadDotEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load %s: %w", EnvFile, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvPageSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid %s: %q", EnvPageSize, v)
		}
		c.PageSize = n
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid %s: %q", EnvTimeout, v)
		}
		c.Timeout = d
	}
	return nil
}

// ConfigPath returns the path to config.yaml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// SessionPath returns the path to the session database.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasSession checks if the session database exists.
func (c *Config) HasSession() bool {
	_, err := os.Stat(c.SessionPath())
	return err == nil
}
