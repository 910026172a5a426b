// Package config resolves eventetl settings from the project file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"eventetl/internal/dbclient"
	"eventetl/internal/etl"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConfigFileName is the project file looked up in the working directory.
const ConfigFileName = "eventetl.yaml"

// Config holds the settings for one pipeline target.
type Config struct {
	Dir       string `yaml:"dir"`        // source directory
	DB        string `yaml:"db"`         // sqlite path or DSN
	Table     string `yaml:"table"`      // target table name
	Driver    string `yaml:"driver"`     // sqlite, postgres or mysql
	EpochUnit string `yaml:"epoch_unit"` // unit of numeric timestamps
	Schedule  string `yaml:"schedule"`   // cron expression for `schedule`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // text or json
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		Dir:       "data",
		DB:        "events.db",
		Table:     "events",
		Driver:    string(dbclient.DriverSQLite),
		EpochUnit: string(etl.EpochNanoseconds),
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadFile reads a project file. Keys absent from the file keep their
// defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", etl.ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// Load resolves defaults, then the project file, then the environment.
// An empty path means ConfigFileName in the working directory, which may
// be missing; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = ConfigFileName
	}

	cfg, err := LoadFile(path)
	switch {
	case errors.Is(err, ErrConfigNotFound) && !explicit:
		cfg = Default()
	case errors.Is(err, ErrConfigNotFound):
		return nil, fmt.Errorf("%w: %s: %v", etl.ErrInvalidConfig, path, err)
	case err != nil:
		return nil, err
	}

	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables that are set and
// non-empty.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	for key, field := range map[string]*string{
		"EVENTETL_DIR":        &c.Dir,
		"EVENTETL_DB":         &c.DB,
		"EVENTETL_TABLE":      &c.Table,
		"EVENTETL_DRIVER":     &c.Driver,
		"EVENTETL_EPOCH_UNIT": &c.EpochUnit,
		"EVENTETL_SCHEDULE":   &c.Schedule,
		"LOG_LEVEL":           &c.LogLevel,
		"LOG_FORMAT":          &c.LogFormat,
	} {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*field = strings.TrimSpace(v)
		}
	}
}

// Validate checks every field that has a fixed vocabulary.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Dir) == "" {
		return fmt.Errorf("%w: dir is required", etl.ErrInvalidConfig)
	}
	if strings.TrimSpace(c.DB) == "" {
		return fmt.Errorf("%w: db is required", etl.ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Table) == "" {
		return fmt.Errorf("%w: table is required", etl.ErrInvalidConfig)
	}
	if _, err := dbclient.ParseDriver(c.Driver); err != nil {
		return fmt.Errorf("%w: %v", etl.ErrInvalidConfig, err)
	}
	if _, err := etl.ParseEpochUnit(c.EpochUnit); err != nil {
		return err
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log level %q", etl.ErrInvalidConfig, c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log format %q (want text or json)", etl.ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
