package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent weft configuration stored as config.toml
// in the .weft/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version int          `toml:"version"`
	Mock    MockConfig   `toml:"mock"`
	Record  RecordConfig `toml:"record"`
	Log     LogConfig    `toml:"log"`
}

// MockConfig holds mock server settings.
type MockConfig struct {
	Listen     string `toml:"listen,omitempty"`
	Fixtures   string `toml:"fixtures,omitempty"`
	NoFallback bool   `toml:"no_fallback,omitempty"`
}

// RecordConfig holds request-recording settings.
type RecordConfig struct {
	// Driver selects the exchange store backend: "memory" or "sqlite".
	Driver     string `toml:"driver,omitempty"`
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum level emitted: "debug", "info", "warn", "error".
	Level string `toml:"level,omitempty"`

	// Format selects the handler: "pretty", "json", or "text".
	Format string `toml:"format,omitempty"`

	// File, when set, receives a copy of the log stream in JSON.
	File string `toml:"file,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"mock.listen": {
		get: func(c *Config) string { return c.Mock.Listen },
		set: func(c *Config, v string) error { c.Mock.Listen = v; return nil },
	},
	"mock.fixtures": {
		get: func(c *Config) string { return c.Mock.Fixtures },
		set: func(c *Config, v string) error { c.Mock.Fixtures = v; return nil },
	},
	"mock.no_fallback": {
		get: func(c *Config) string { return strconv.FormatBool(c.Mock.NoFallback) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for mock.no_fallback: %w", err)
			}
			c.Mock.NoFallback = b
			return nil
		},
	},
	"record.driver": {
		get: func(c *Config) string { return c.Record.Driver },
		set: func(c *Config, v string) error {
			if v != "memory" && v != "sqlite" {
				return fmt.Errorf("invalid value for record.driver: %q (want memory or sqlite)", v)
			}
			c.Record.Driver = v
			return nil
		},
	},
	"record.sqlite_path": {
		get: func(c *Config) string { return c.Record.SQLitePath },
		set: func(c *Config, v string) error { c.Record.SQLitePath = v; return nil },
	},
	"log.level": {
		get: func(c *Config) string { return c.Log.Level },
		set: func(c *Config, v string) error { c.Log.Level = v; return nil },
	},
	"log.format": {
		get: func(c *Config) string { return c.Log.Format },
		set: func(c *Config, v string) error { c.Log.Format = v; return nil },
	},
	"log.file": {
		get: func(c *Config) string { return c.Log.File },
		set: func(c *Config, v string) error { c.Log.File = v; return nil },
	},
}
