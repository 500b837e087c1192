// Package config loads and validates the engine's YAML configuration.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/newthinker/alphalab/internal/backtest"
	"github.com/newthinker/alphalab/internal/core"
	"github.com/newthinker/alphalab/internal/dataset"
	"github.com/newthinker/alphalab/internal/scanner"
	"github.com/newthinker/alphalab/internal/store"
)

// Config is the root configuration for all commands.
type Config struct {
	Backtest backtest.Config `mapstructure:"backtest"`
	Scanner  scanner.Config  `mapstructure:"scanner"`
	Data     DataConfig      `mapstructure:"data"`
	Store    StoreConfig     `mapstructure:"store"`
	Archive  ArchiveConfig   `mapstructure:"archive"`
	Metrics  MetricsConfig   `mapstructure:"metrics"`
	Logging  LoggingConfig   `mapstructure:"logging"`
}

// DataConfig points at the bar datasets and bounds the scan window.
type DataConfig struct {
	Dir   string `mapstructure:"dir"`   // per-symbol CSV directory
	Start string `mapstructure:"start"` // RFC 3339 or plain date, optional
	End   string `mapstructure:"end"`
}

// Window parses the configured scan window. Zero times mean unbounded.
func (d DataConfig) Window() (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if d.Start != "" {
		if start, err = dataset.ParseTime(d.Start); err != nil {
			return time.Time{}, time.Time{}, core.WrapErrorf(core.ErrConfigInvalid, "data start: %v", err)
		}
	}
	if d.End != "" {
		if end, err = dataset.ParseTime(d.End); err != nil {
			return time.Time{}, time.Time{}, core.WrapErrorf(core.ErrConfigInvalid, "data end: %v", err)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return time.Time{}, time.Time{}, core.WrapErrorf(core.ErrConfigInvalid, "data end %s precedes start %s", d.End, d.Start)
	}
	return start, end, nil
}

// StoreConfig bounds the in-memory run registry.
type StoreConfig struct {
	MaxRuns int           `mapstructure:"max_runs"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// ArchiveConfig selects the result archive backend.
type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "none", "localfs" or "s3"
	Path string   `mapstructure:"path"` // for localfs
	S3   S3Config `mapstructure:"s3"`
}

// S3Config holds S3-compatible store settings.
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoggingConfig controls log verbosity and encoding.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// validTimeframes is the whitelist for scanner bar granularity.
var validTimeframes = map[string]bool{
	"1m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "4h": true, "1d": true, "1w": true,
}

// Load reads configuration from a YAML file over the defaults.
// Environment variables override file values, and string values of the
// form ${NAME} are expanded from the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}

	return cfg, nil
}

// Defaults returns the configuration used when no file is given.
func Defaults() *Config {
	return &Config{
		Backtest: backtest.DefaultConfig(),
		Scanner:  scanner.DefaultConfig(),
		Data: DataConfig{
			Dir: "./data",
		},
		Store: StoreConfig{
			MaxRuns: store.DefaultMaxRuns,
			TTL:     time.Hour,
		},
		Archive: ArchiveConfig{
			Type: "none",
			Path: "./archive",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":2112",
		},
	}
}

// Validate checks the whole configuration tree.
func (c *Config) Validate() error {
	if err := c.Backtest.Validate(); err != nil {
		return err
	}
	if err := c.Scanner.Validate(); err != nil {
		return err
	}
	if !validTimeframes[c.Scanner.Timeframe] {
		return core.WrapErrorf(core.ErrConfigInvalid, "unknown timeframe %q", c.Scanner.Timeframe)
	}
	if _, _, err := c.Data.Window(); err != nil {
		return err
	}
	if c.Store.MaxRuns < 1 {
		return core.WrapErrorf(core.ErrConfigInvalid, "store max_runs must be at least 1, got %d", c.Store.MaxRuns)
	}
	if c.Store.TTL < 0 {
		return core.WrapErrorf(core.ErrConfigInvalid, "store ttl cannot be negative, got %s", c.Store.TTL)
	}

	switch c.Archive.Type {
	case "", "none":
	case "localfs":
		if c.Archive.Path == "" {
			return core.WrapErrorf(core.ErrConfigInvalid, "localfs archive requires a path")
		}
	case "s3":
		if c.Archive.S3.Bucket == "" {
			return core.WrapErrorf(core.ErrConfigInvalid, "s3 archive requires a bucket")
		}
	default:
		return core.WrapErrorf(core.ErrConfigInvalid, "unknown archive type %q", c.Archive.Type)
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return core.WrapErrorf(core.ErrConfigInvalid, "metrics enabled without an addr")
	}
	return nil
}
