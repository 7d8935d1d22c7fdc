package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobfill/internal/store"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeConfig(t, `{
		"store_driver": "sqlite",
		"store_dsn": "/tmp/jobs.db",
		"port": 9000,
		"retry_interval": "250ms",
		"debounce": 1500,
		"max_retries": 3,
		"verbose": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, "/tmp/jobs.db", cfg.StoreDSN)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryInterval.Std())
	assert.Equal(t, 1500*time.Millisecond, cfg.Debounce.Std())
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.True(t, cfg.Verbose)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `{ invalid json }`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `{"debounce": "soon"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig("/nonexistent/config.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestDuration_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Duration(1500 * time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, `"1.5s"`, string(data))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"unknown driver", func(c *Config) { c.StoreDriver = "redis" }, "StoreDriver"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "Port"},
		{"negative rate", func(c *Config) { c.RatePerSecond = -1 }, "RatePerSecond"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "LogLevel"},
		{"char delay inverted", func(c *Config) {
			c.CharDelayMin = Duration(time.Second)
			c.CharDelayMax = Duration(time.Millisecond)
		}, "char_delay_max"},
		{"field delay inverted", func(c *Config) {
			c.FieldDelayMin = Duration(time.Second)
			c.FieldDelayMax = Duration(time.Millisecond)
		}, "field_delay_max"},
		{"postgres without dsn", func(c *Config) {
			c.StoreDriver = store.DriverPostgres
			c.StoreDSN = ""
			c.DatabaseURL = ""
		}, "postgres store"},
		{"missing sites file", func(c *Config) { c.SitesFile = "/nonexistent/sites.yaml" }, "sites file not found"},
		{"missing resume file", func(c *Config) { c.ResumeFile = "/nonexistent/resume.pdf" }, "resume file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := &Config{
		StoreDriver: "memory",
		Port:        9000,
		Debounce:    Duration(2 * time.Second),
	}

	merged := cfg.MergeWithDefaults(Defaults())

	assert.Equal(t, "memory", merged.StoreDriver)
	assert.Equal(t, 9000, merged.Port)
	assert.Equal(t, 2*time.Second, merged.Debounce.Std())
	assert.Equal(t, Defaults().RetryInterval, merged.RetryInterval)
	assert.Equal(t, Defaults().MaxRetries, merged.MaxRetries)
	assert.Equal(t, "info", merged.LogLevel)
	assert.Empty(t, merged.StoreDSN, "memory needs no DSN")
}

func TestMergeWithDefaults_StoreDSNPerDriver(t *testing.T) {
	sqlite := (&Config{StoreDriver: store.DriverSQLite}).MergeWithDefaults(Defaults())
	assert.Equal(t, DefaultSQLitePath(), sqlite.StoreDSN)

	file := (&Config{}).MergeWithDefaults(Defaults())
	assert.Equal(t, store.DriverFile, file.StoreDriver)
	assert.Equal(t, DefaultDataPath(), file.StoreDSN)

	explicit := (&Config{StoreDriver: store.DriverSQLite, StoreDSN: "x.db"}).MergeWithDefaults(Defaults())
	assert.Equal(t, "x.db", explicit.StoreDSN)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := &Config{Port: 1234}
	merged := cfg.MergeWithDefaults(Config{})
	assert.Equal(t, 1234, merged.Port)
	assert.Empty(t, merged.StoreDriver)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvStoreDriver: "POSTGRES",
		EnvDatabaseURL: "postgres://localhost/jobfill",
		EnvLogLevel:    "DEBUG",
		EnvPort:        "7000",
	}
	cfg := &Config{StoreDriver: "file", Port: 1}
	cfg.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, store.DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 7000, cfg.Port)

	driver, dsn := cfg.StoreTarget()
	assert.Equal(t, store.DriverPostgres, driver)
	assert.Equal(t, "postgres://localhost/jobfill", dsn)
}

func TestApplyEnv_IgnoresBadPort(t *testing.T) {
	cfg := &Config{Port: 1}
	cfg.ApplyEnv(func(k string) string {
		if k == EnvPort {
			return "not-a-port"
		}
		return ""
	})
	assert.Equal(t, 1, cfg.Port)
}

func TestLoad_EnvAndDefaults(t *testing.T) {
	t.Setenv(EnvStoreDriver, "memory")
	t.Setenv(EnvStoreDSN, "")
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvPort, "")

	cfg, err := Load(writeConfig(t, `{"max_retries": 2}`))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, Defaults().Port, cfg.Port)
}

func TestDerivedConfigs(t *testing.T) {
	cfg := Defaults()
	cfg.MaxRetries = 4
	cfg.RateLimitAllowed = "10.0.0.1"

	det := cfg.DetectionConfig()
	assert.Equal(t, 4, det.MaxRetries)
	assert.Equal(t, cfg.RetryInterval.Std(), det.RetryInterval)

	sess := cfg.SessionConfig()
	assert.Equal(t, det, sess.Detection)
	assert.Equal(t, cfg.FormDebounce.Std(), sess.FormDebounce)

	pacer := cfg.Pacer()
	assert.Equal(t, cfg.CharDelayMin.Std(), pacer.CharMin)
	assert.Equal(t, cfg.FieldDelayMax.Std(), pacer.FieldMax)

	rl := cfg.RateLimitConfig()
	assert.True(t, rl.Enabled)
	assert.Equal(t, 20, rl.Burst)
	assert.True(t, rl.Whitelist["10.0.0.1"])

	cfg.RateLimitOff = true
	assert.False(t, cfg.RateLimitConfig().Enabled)
}
