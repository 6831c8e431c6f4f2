// Package config loads the spend-atlas settings from an optional file and
// SPEND_ATLAS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/de-tools/spend-atlas/pkg/services/budget"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const EnvPrefix = "SPEND_ATLAS"

const (
	SourceCSV  = "csv"
	SourceJSON = "json"
	SourceSQL  = "sql"
	SourceSeed = "seed"
)

type Config struct {
	Server   Server             `mapstructure:"server"`
	Source   Source             `mapstructure:"source"`
	Budgets  map[string]float64 `mapstructure:"budgets"`
	Seed     Seed               `mapstructure:"seed"`
	LogLevel string             `mapstructure:"log_level"`
}

type Server struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Source selects where the initial event collection comes from.
type Source struct {
	Kind   string `mapstructure:"kind"`
	Path   string `mapstructure:"path"`   // data file, or a connection profile for sql sources
	Driver string `mapstructure:"driver"` // duckdb, snowflake or databricks
	DSN    string `mapstructure:"dsn"`
	Table  string `mapstructure:"table"`

	Profile  string `mapstructure:"profile"` // .databrickscfg section
	HTTPPath string `mapstructure:"http_path"`
}

type Seed struct {
	Days       int    `mapstructure:"days"`
	RandomSeed uint64 `mapstructure:"random_seed"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("source.kind", SourceSeed)
	// keys without a default are invisible to AutomaticEnv during Unmarshal
	v.SetDefault("source.path", "")
	v.SetDefault("source.driver", "")
	v.SetDefault("source.dsn", "")
	v.SetDefault("source.profile", "")
	v.SetDefault("source.http_path", "")
	v.SetDefault("source.table", "expense_events")
	v.SetDefault("seed.days", 90)
	v.SetDefault("seed.random_seed", 1)
	v.SetDefault("log_level", "info")
}

// Load reads path when it is not empty; environment variables override both
// the file and the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}

	switch c.Source.Kind {
	case SourceCSV, SourceJSON:
		if c.Source.Path == "" {
			errs = append(errs, fmt.Errorf("source.path is required for %s sources", c.Source.Kind))
		}
	case SourceSQL:
		switch {
		case c.Source.Driver == "":
			errs = append(errs, errors.New("source.driver is required for sql sources"))
		case c.Source.DSN == "" && (c.Source.Driver == "duckdb" || c.Source.Path == ""):
			// snowflake and databricks may build the DSN from a profile file
			errs = append(errs, errors.New("source.dsn or a profile source.path is required for sql sources"))
		}
	case SourceSeed:
	default:
		errs = append(errs, fmt.Errorf("unknown source.kind %q", c.Source.Kind))
	}

	if _, err := c.BudgetRegistry(); err != nil {
		errs = append(errs, err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	return errors.Join(errs...)
}

// BudgetRegistry applies the configured overrides to the default ceilings.
func (c *Config) BudgetRegistry() (*budget.Registry, error) {
	if len(c.Budgets) == 0 {
		return budget.Default(), nil
	}
	r, err := budget.Default().WithOverrides(c.Budgets)
	if err != nil {
		return nil, fmt.Errorf("budgets: %w", err)
	}
	return r, nil
}

func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
