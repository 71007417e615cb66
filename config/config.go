package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // timezone must resolve on hosts without zoneinfo

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTimezone  = "Europe/Warsaw"
	DefaultStorage   = "memory"
	DefaultSQLiteDir = "."
	DefaultLogFormat = "console"
	DefaultLogLevel  = "info"
)

type Config struct {
	// Directory, zip archive or URL of the timetable snapshot.
	Data string `yaml:"data"`

	// Timezone the timetable's clock times are in.
	Timezone string `yaml:"timezone" validate:"required,timezone"`

	Storage     string `yaml:"storage" validate:"required,oneof=memory sqlite postgres"`
	SQLiteDir   string `yaml:"sqlite_dir" validate:"required_if=Storage sqlite"`
	PostgresDSN string `yaml:"postgres_dsn" validate:"required_if=Storage postgres"`

	LogFormat string `yaml:"log_format" validate:"oneof=console json"`
	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Address to serve Prometheus metrics on, e.g. ":9102". Empty
	// disables the metrics server.
	MetricsAddr string `yaml:"metrics_addr" validate:"omitempty,hostname_port"`

	Location *time.Location `yaml:"-"`
}

var envOverrides = []struct {
	name  string
	field func(*Config) *string
}{
	{"TIMETABLE_DATA", func(c *Config) *string { return &c.Data }},
	{"TIMETABLE_TIMEZONE", func(c *Config) *string { return &c.Timezone }},
	{"TIMETABLE_STORAGE", func(c *Config) *string { return &c.Storage }},
	{"TIMETABLE_SQLITE_DIR", func(c *Config) *string { return &c.SQLiteDir }},
	{"TIMETABLE_POSTGRES_DSN", func(c *Config) *string { return &c.PostgresDSN }},
	{"TIMETABLE_LOG_FORMAT", func(c *Config) *string { return &c.LogFormat }},
	{"TIMETABLE_LOG_LEVEL", func(c *Config) *string { return &c.LogLevel }},
	{"TIMETABLE_METRICS_ADDR", func(c *Config) *string { return &c.MetricsAddr }},
}

// Loads configuration from the YAML file at path, if path is
// non-empty, then applies overrides from the environment and a .env
// file in the working directory.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	for _, o := range envOverrides {
		if v := os.Getenv(o.name); v != "" {
			*o.field(cfg) = v
		}
	}

	cfg.applyDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone: %w", err)
	}
	cfg.Location = loc

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	if c.Storage == "" {
		c.Storage = DefaultStorage
	}
	if c.Storage == "sqlite" && c.SQLiteDir == "" {
		c.SQLiteDir = DefaultSQLiteDir
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}
