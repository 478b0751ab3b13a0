package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeMock   Mode = "mock"
	ModeLive   Mode = "live"
	ModeHybrid Mode = "hybrid"
)

type ProviderConfig struct {
	Enabled  bool              `yaml:"enabled"`
	Priority int               `yaml:"priority"`
	EnvKeys  map[string]string `yaml:"envKeys,omitempty"`
}

// Booking holds the selection knobs: how much above the cheapest fare is
// acceptable and how many days ahead to look.
type Booking struct {
	Tolerance  float64 `yaml:"tolerance"`
	WindowDays int     `yaml:"windowDays"`
	Adults     int     `yaml:"adults"`
	CabinClass string  `yaml:"cabinClass"`
}

type Cache struct {
	Dir string        `yaml:"dir,omitempty"`
	TTL time.Duration `yaml:"ttl"`
}

// Fetch bounds provider calls. The calendar deadline is Timeout plus
// DayTimeout for every day in the window.
type Fetch struct {
	Timeout     time.Duration `yaml:"timeout"`
	DayTimeout  time.Duration `yaml:"dayTimeout"`
	Concurrency int           `yaml:"concurrency"`
}

type History struct {
	Path string `yaml:"path"`
}

type Watch struct {
	Cron        string `yaml:"cron"`
	MetricsAddr string `yaml:"metricsAddr,omitempty"`
}

type Config struct {
	Mode      Mode                      `yaml:"mode"`
	LogLevel  string                    `yaml:"logLevel"`
	Booking   Booking                   `yaml:"booking"`
	Cache     Cache                     `yaml:"cache"`
	Fetch     Fetch                     `yaml:"fetch"`
	History   History                   `yaml:"history"`
	Watch     Watch                     `yaml:"watch"`
	Providers map[string]ProviderConfig `yaml:"providers"`
}

func DefaultConfig() *Config {
	return &Config{
		Mode:     ModeMock,
		LogLevel: "info",
		Booking: Booking{
			Tolerance:  0.10,
			WindowDays: 30,
			Adults:     1,
			CabinClass: "economy",
		},
		Cache: Cache{TTL: 30 * time.Minute},
		Fetch: Fetch{
			Timeout:     15 * time.Second,
			DayTimeout:  time.Second,
			Concurrency: 4,
		},
		Watch: Watch{Cron: "0 8 * * *"},
		Providers: map[string]ProviderConfig{
			"mock_calendar": {Enabled: true, Priority: 100},
			"duffel": {
				Enabled:  true,
				Priority: 50,
				EnvKeys:  map[string]string{"token": "DUFFEL_API_TOKEN"},
			},
		},
	}
}

// Load reads the config file named by BOOKING_CONFIG (or the default
// location) and then applies environment overrides. A .env file in the
// working directory is loaded first; missing files are not an error.
func Load() (*Config, error) {
	return LoadFrom(configPath())
}

// LoadFrom is Load with an explicit config file path. An empty path skips
// the file.
func LoadFrom(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if envMode := os.Getenv("BOOKING_MODE"); envMode != "" {
		if m, ok := parseMode(envMode); ok {
			c.Mode = m
		}
	}

	if v := os.Getenv("BOOKING_TOLERANCE"); v != "" {
		tol, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("BOOKING_TOLERANCE: %w", err)
		}
		c.Booking.Tolerance = tol
	}
	if v := os.Getenv("BOOKING_WINDOW_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BOOKING_WINDOW_DAYS: %w", err)
		}
		c.Booking.WindowDays = days
	}
	if v := os.Getenv("BOOKING_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BOOKING_TIMEOUT: %w", err)
		}
		c.Fetch.Timeout = d
	}
	if v := os.Getenv("BOOKING_HISTORY_DB"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("BOOKING_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	if envProviders := os.Getenv("BOOKING_PROVIDERS"); envProviders != "" {
		for _, n := range strings.Split(envProviders, ",") {
			n = strings.TrimSpace(n)
			if n == "" {
				continue
			}
			if _, ok := c.Providers[n]; !ok {
				c.Providers[n] = ProviderConfig{Enabled: true, Priority: 50}
			}
		}
	}
	return nil
}

// Validate rejects settings the selector cannot work with. Negative
// tolerances are allowed; they only ever select the cheapest day.
func (c *Config) Validate() error {
	if _, ok := parseMode(string(c.Mode)); !ok {
		return fmt.Errorf("unknown mode %q (want mock, live or hybrid)", c.Mode)
	}
	if c.Booking.WindowDays < 1 {
		return fmt.Errorf("booking.windowDays must be at least 1, got %d", c.Booking.WindowDays)
	}
	if c.Fetch.Timeout < 0 || c.Fetch.DayTimeout < 0 {
		return fmt.Errorf("fetch timeouts cannot be negative")
	}
	return nil
}

func (c *Config) WithMode(mode string) *Config {
	if m, ok := parseMode(mode); ok {
		c.Mode = m
	}
	return c
}

// WithTolerance overrides the configured tolerance when tol is non-nil.
func (c *Config) WithTolerance(tol *float64) *Config {
	if tol != nil {
		c.Booking.Tolerance = *tol
	}
	return c
}

func (c *Config) ProviderHasCredentials(name string) bool {
	pc, ok := c.Providers[name]
	if !ok {
		return false
	}
	for _, envKey := range pc.EnvKeys {
		if os.Getenv(envKey) == "" {
			return false
		}
	}
	return true
}

func (c *Config) MissingCredentials(name string) []string {
	pc, ok := c.Providers[name]
	if !ok {
		return nil
	}
	var missing []string
	for label, envKey := range pc.EnvKeys {
		if os.Getenv(envKey) == "" {
			missing = append(missing, fmt.Sprintf("%s (%s)", label, envKey))
		}
	}
	return missing
}

func parseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mock":
		return ModeMock, true
	case "live":
		return ModeLive, true
	case "hybrid":
		return ModeHybrid, true
	}
	return "", false
}

func configPath() string {
	if p := os.Getenv("BOOKING_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	p := filepath.Join(home, ".config", "beetlebot", "booking.yaml")
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// DefaultDataDir is where the cache and history live when not configured.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "beetlebot", "booking")
	}
	return filepath.Join(home, ".cache", "beetlebot", "booking")
}
