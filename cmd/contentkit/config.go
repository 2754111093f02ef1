package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/syssam/contentkit/dialect"
)

// Config is the content of the configuration file.
//
//	dialect: postgres
//	dsn: postgres://localhost/content?sslmode=disable
//	log_level: debug
//	slow_query_threshold: 250ms
//	publish_on_create: false
type Config struct {
	Dialect            string        `yaml:"dialect"`
	DSN                string        `yaml:"dsn"`
	LogLevel           string        `yaml:"log_level"`
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold"`
	DebugSQL           bool          `yaml:"debug_sql"`
	PublishOnCreate    *bool         `yaml:"publish_on_create"`
	// Stats logs the query statistics on exit.
	Stats bool `yaml:"stats"`
}

func defaultConfig() Config {
	return Config{
		Dialect:            dialect.SQLite,
		DSN:                "file:content.db?_pragma=foreign_keys(1)",
		LogLevel:           "info",
		SlowQueryThreshold: 100 * time.Millisecond,
	}
}

// loadConfig returns the defaults overridden by the environment and then
// by the file at path, if any. A missing file is only an error when the
// path was given explicitly.
func loadConfig(path string, explicit bool) (Config, error) {
	cfg := defaultConfig()
	if v := os.Getenv("CONTENTKIT_DIALECT"); v != "" {
		cfg.Dialect = v
	}
	if v := os.Getenv("CONTENTKIT_DSN"); v != "" {
		cfg.DSN = v
	}
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
		return cfg, nil
	case err != nil:
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if !dialect.Supported(c.Dialect) {
		return fmt.Errorf("unsupported dialect %q", c.Dialect)
	}
	if c.DSN == "" {
		return errors.New("dsn is required")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func (c *Config) publishOnCreate() bool {
	return c.PublishOnCreate == nil || *c.PublishOnCreate
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return l, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}
