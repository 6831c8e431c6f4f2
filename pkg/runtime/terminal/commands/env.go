package commands

import (
	"context"
	"fmt"

	"github.com/de-tools/spend-atlas/pkg/services/config"
	"github.com/de-tools/spend-atlas/pkg/services/session"
	"github.com/de-tools/spend-atlas/pkg/services/source"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Env carries the settings shared by every analysis command. Source flags
// take precedence over the config file and the environment.
type Env struct {
	ConfigPath string
	Source     config.Source

	Registry source.Registry
	Clock    session.Clock
}

// BindFlags registers the shared flags as persistent flags of cmd.
func (e *Env) BindFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&e.ConfigPath, "config", "c", "", "Path to a config file (yaml, json or toml)")
	flags.StringVar(&e.Source.Kind, "source", "", "Event source: csv, json, sql or seed")
	flags.StringVar(&e.Source.Path, "path", "", "File to read for csv and json sources")
	flags.StringVar(&e.Source.Driver, "driver", "", "Database driver for sql sources: duckdb, snowflake or databricks")
	flags.StringVar(&e.Source.DSN, "dsn", "", "Connection string for sql sources")
	flags.StringVar(&e.Source.Table, "table", "", "Table holding expense events for sql sources")
	flags.StringVar(&e.Source.Profile, "profile", "", "Profile section of a .databrickscfg passed as --path")
	flags.StringVar(&e.Source.HTTPPath, "http-path", "", "Databricks SQL warehouse http path")
}

func (e *Env) clock() session.Clock {
	if e.Clock == nil {
		return session.SystemClock
	}
	return e.Clock
}

// Config loads the configuration and applies the flag overrides.
func (e *Env) Config() (*config.Config, error) {
	cfg, err := config.Load(e.ConfigPath)
	if err != nil {
		return nil, err
	}
	override(&cfg.Source.Kind, e.Source.Kind)
	override(&cfg.Source.Path, e.Source.Path)
	override(&cfg.Source.Driver, e.Source.Driver)
	override(&cfg.Source.DSN, e.Source.DSN)
	override(&cfg.Source.Table, e.Source.Table)
	override(&cfg.Source.Profile, e.Source.Profile)
	override(&cfg.Source.HTTPPath, e.Source.HTTPPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Session loads the configured events and computes the first snapshot.
func (e *Env) Session(ctx context.Context) (*session.Session, error) {
	cfg, err := e.Config()
	if err != nil {
		return nil, err
	}
	budgets, err := cfg.BudgetRegistry()
	if err != nil {
		return nil, err
	}

	clock := e.clock()
	registry := e.Registry
	if registry == nil {
		registry = source.DefaultRegistry(source.SeedOptions{
			Days:       cfg.Seed.Days,
			RandomSeed: cfg.Seed.RandomSeed,
			Now:        clock.Now,
		})
	}

	src, err := registry.Create(cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s source: %w", cfg.Source.Kind, err)
	}
	events, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load events: %w", err)
	}

	return session.New(session.Options{
		Budgets: budgets,
		Clock:   clock,
		Logger:  zerolog.Ctx(ctx),
	}, events), nil
}
