// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/jobfill/internal/autofill"
	"github.com/jonathan/jobfill/internal/content"
	"github.com/jonathan/jobfill/internal/detection"
	"github.com/jonathan/jobfill/internal/page"
	"github.com/jonathan/jobfill/internal/server/ratelimit"
	"github.com/jonathan/jobfill/internal/store"
)

// Environment variables that override file values.
const (
	EnvStoreDriver = "JOBFILL_STORE_DRIVER"
	EnvStoreDSN    = "JOBFILL_STORE_DSN"
	EnvDatabaseURL = "DATABASE_URL"
	EnvLogLevel    = "JOBFILL_LOG_LEVEL"
	EnvPort        = "JOBFILL_PORT"
)

var validate = validator.New()

// Duration is a time.Duration written as a Go duration string ("500ms")
// or as integer milliseconds in JSON.
type Duration time.Duration

// UnmarshalJSON accepts "1.5s" or 1500.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var ms int64
	if err := json.Unmarshal(b, &ms); err != nil {
		return fmt.Errorf("duration must be a string or milliseconds: %s", b)
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

// MarshalJSON writes the duration string form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std converts to time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or CLI flags.
type Config struct {
	// Storage
	StoreDriver string `json:"store_driver,omitempty" validate:"omitempty,oneof=memory file sqlite postgres"`
	StoreDSN    string `json:"store_dsn,omitempty"`    // file path, sqlite path or postgres URL
	DatabaseURL string `json:"database_url,omitempty"` // used for postgres when store_dsn is empty

	// Inputs
	SitesFile  string `json:"sites_file,omitempty"`  // extra site strategies (YAML)
	ResumeFile string `json:"resume_file,omitempty"` // file attached to resume inputs

	// Bridge
	Port             int     `json:"port,omitempty" validate:"gte=0,lte=65535"`
	RatePerSecond    float64 `json:"rate_per_second,omitempty" validate:"gte=0"`
	RateBurst        int     `json:"rate_burst,omitempty" validate:"gte=0"`
	RateLimitOff     bool    `json:"rate_limit_disabled,omitempty"`
	RateLimitAllowed string  `json:"rate_limit_whitelist,omitempty"` // comma-separated IPs

	// Detection
	RetryInterval  Duration `json:"retry_interval,omitempty" validate:"gte=0"`
	MaxRetries     int      `json:"max_retries,omitempty" validate:"gte=0"`
	Debounce       Duration `json:"debounce,omitempty" validate:"gte=0"`
	PollInterval   Duration `json:"poll_interval,omitempty" validate:"gte=0"`
	FormCheckDelay Duration `json:"form_check_delay,omitempty" validate:"gte=0"`
	FormDebounce   Duration `json:"form_debounce,omitempty" validate:"gte=0"`

	// Typing
	CharDelayMin  Duration `json:"char_delay_min,omitempty" validate:"gte=0"`
	CharDelayMax  Duration `json:"char_delay_max,omitempty" validate:"gte=0"`
	FieldDelayMin Duration `json:"field_delay_min,omitempty" validate:"gte=0"`
	FieldDelayMax Duration `json:"field_delay_max,omitempty" validate:"gte=0"`

	// Batch scans
	ScanConcurrency   int     `json:"scan_concurrency,omitempty" validate:"gte=0,lte=64"`
	HostRatePerSecond float64 `json:"host_rate_per_second,omitempty" validate:"gte=0"`

	// Behavior
	Headed   bool   `json:"headed,omitempty"` // show the browser window
	LogLevel string `json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	Verbose  bool   `json:"verbose,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		StoreDriver:       store.DriverFile,
		StoreDSN:          DefaultDataPath(),
		Port:              8765,
		RatePerSecond:     10,
		RateBurst:         20,
		RetryInterval:     Duration(detection.DefaultRetryInterval),
		MaxRetries:        detection.DefaultMaxRetries,
		Debounce:          Duration(detection.DefaultDebounce),
		PollInterval:      Duration(page.DefaultPollInterval),
		FormCheckDelay:    Duration(content.DefaultFormCheckDelay),
		FormDebounce:      Duration(content.DefaultFormDebounce),
		CharDelayMin:      Duration(autofill.DefaultCharDelayMin),
		CharDelayMax:      Duration(autofill.DefaultCharDelayMax),
		FieldDelayMin:     Duration(autofill.DefaultFieldDelayMin),
		FieldDelayMax:     Duration(autofill.DefaultFieldDelayMax),
		ScanConcurrency:   4,
		HostRatePerSecond: 1,
		LogLevel:          "info",
	}
}

// DefaultDataPath is the file store location under the user config dir.
func DefaultDataPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "jobfill.json"
	}
	return filepath.Join(dir, "jobfill", "storage.json")
}

// DefaultSQLitePath is the sqlite store location under the user config dir.
func DefaultSQLitePath() string {
	return filepath.Join(filepath.Dir(DefaultDataPath()), "jobfill.db")
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Load reads path (when non-empty), applies environment overrides, fills
// defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv(os.Getenv)
	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// ApplyEnv overrides fields from environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvStoreDriver); v != "" {
		c.StoreDriver = strings.ToLower(v)
	}
	if v := getenv(EnvStoreDSN); v != "" {
		c.StoreDSN = v
	}
	if v := getenv(EnvDatabaseURL); v != "" {
		c.DatabaseURL = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("config error: '%s' failed '%s'", verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.CharDelayMax < c.CharDelayMin {
		return fmt.Errorf("config error: 'char_delay_max' must not be below 'char_delay_min'")
	}
	if c.FieldDelayMax < c.FieldDelayMin {
		return fmt.Errorf("config error: 'field_delay_max' must not be below 'field_delay_min'")
	}

	if c.StoreDriver == store.DriverPostgres && c.PostgresDSN() == "" {
		return fmt.Errorf("config error: postgres store needs 'store_dsn' or %s", EnvDatabaseURL)
	}

	// Validate file paths exist (if specified)
	if c.SitesFile != "" {
		if _, err := os.Stat(c.SitesFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: sites file not found: %s", c.SitesFile)
		}
	}
	if c.ResumeFile != "" {
		if _, err := os.Stat(c.ResumeFile); os.IsNotExist(err) {
			return fmt.Errorf("config error: resume file not found: %s", c.ResumeFile)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.StoreDriver == "" {
		result.StoreDriver = defaults.StoreDriver
	}
	if result.StoreDSN == "" {
		switch {
		case result.StoreDriver == defaults.StoreDriver:
			result.StoreDSN = defaults.StoreDSN
		case result.StoreDriver == store.DriverFile:
			result.StoreDSN = DefaultDataPath()
		case result.StoreDriver == store.DriverSQLite:
			result.StoreDSN = DefaultSQLitePath()
		}
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.SitesFile == "" {
		result.SitesFile = defaults.SitesFile
	}
	if result.ResumeFile == "" {
		result.ResumeFile = defaults.ResumeFile
	}
	if result.RateLimitAllowed == "" {
		result.RateLimitAllowed = defaults.RateLimitAllowed
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}

	// Numeric fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.RatePerSecond == 0 {
		result.RatePerSecond = defaults.RatePerSecond
	}
	if result.RateBurst == 0 {
		result.RateBurst = defaults.RateBurst
	}
	if result.MaxRetries == 0 {
		result.MaxRetries = defaults.MaxRetries
	}
	if result.ScanConcurrency == 0 {
		result.ScanConcurrency = defaults.ScanConcurrency
	}
	if result.HostRatePerSecond == 0 {
		result.HostRatePerSecond = defaults.HostRatePerSecond
	}

	for _, d := range []struct {
		dst *Duration
		def Duration
	}{
		{&result.RetryInterval, defaults.RetryInterval},
		{&result.Debounce, defaults.Debounce},
		{&result.PollInterval, defaults.PollInterval},
		{&result.FormCheckDelay, defaults.FormCheckDelay},
		{&result.FormDebounce, defaults.FormDebounce},
		{&result.CharDelayMin, defaults.CharDelayMin},
		{&result.CharDelayMax, defaults.CharDelayMax},
		{&result.FieldDelayMin, defaults.FieldDelayMin},
		{&result.FieldDelayMax, defaults.FieldDelayMax},
	} {
		if *d.dst == 0 {
			*d.dst = d.def
		}
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// PostgresDSN is the connection string for the postgres driver.
func (c *Config) PostgresDSN() string {
	if c.StoreDSN != "" {
		return c.StoreDSN
	}
	return c.DatabaseURL
}

// StoreTarget returns the driver and DSN to pass to store.Open.
func (c *Config) StoreTarget() (driver, dsn string) {
	if c.StoreDriver == store.DriverPostgres {
		return c.StoreDriver, c.PostgresDSN()
	}
	return c.StoreDriver, c.StoreDSN
}

// DetectionConfig returns the detector timings.
func (c *Config) DetectionConfig() detection.Config {
	return detection.Config{
		RetryInterval: c.RetryInterval.Std(),
		MaxRetries:    c.MaxRetries,
		Debounce:      c.Debounce.Std(),
	}
}

// SessionConfig returns the content session timings.
func (c *Config) SessionConfig() content.Config {
	return content.Config{
		Detection:      c.DetectionConfig(),
		PollInterval:   c.PollInterval.Std(),
		FormCheckDelay: c.FormCheckDelay.Std(),
		FormDebounce:   c.FormDebounce.Std(),
	}
}

// Pacer returns the typing pacer.
func (c *Config) Pacer() *autofill.RandomPacer {
	return &autofill.RandomPacer{
		CharMin:  c.CharDelayMin.Std(),
		CharMax:  c.CharDelayMax.Std(),
		FieldMin: c.FieldDelayMin.Std(),
		FieldMax: c.FieldDelayMax.Std(),
	}
}

// RateLimitConfig returns the bridge rate limiter settings.
func (c *Config) RateLimitConfig() *ratelimit.Config {
	rl := ratelimit.DefaultConfig()
	rl.Enabled = !c.RateLimitOff
	rl.PerSecond = c.RatePerSecond
	rl.Burst = c.RateBurst
	rl.Whitelist = ratelimit.ParseIPList(c.RateLimitAllowed)
	return rl
}
