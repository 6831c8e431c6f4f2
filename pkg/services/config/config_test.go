package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/de-tools/spend-atlas/pkg/models/domain"
	"github.com/de-tools/spend-atlas/pkg/services/budget"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	// When
	cfg, err := Load("")

	// Then
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, SourceSeed, cfg.Source.Kind)
	assert.Equal(t, 90, cfg.Seed.Days)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ValidYAML_PopulatesAllFields(t *testing.T) {
	// Given
	// No indentation for top-level keys to keep the YAML valid
	path := writeConfig(t, "atlas.yaml", `server:
  host: "0.0.0.0"
  port: 9090
  shutdown_timeout: 3s
source:
  kind: sql
  driver: duckdb
  dsn: "atlas.db"
  table: "spend"
budgets:
  "AI Tokens / APIs": 6000
log_level: debug`)

	// When
	cfg, err := Load(path)

	// Then
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, Source{Kind: SourceSQL, Driver: "duckdb", DSN: "atlas.db", Table: "spend"}, cfg.Source)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	require.NoError(t, cfg.Validate())

	budgets, err := cfg.BudgetRegistry()
	require.NoError(t, err)
	ai, _ := budgets.Ceiling(domain.CategoryAITokens)
	assert.Equal(t, 6000.0, ai)
	assert.Equal(t, 29000.0, budgets.Total())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	// Given
	path := writeConfig(t, "atlas.yaml", "server:\n  port: 9090\n")
	t.Setenv("SPEND_ATLAS_SERVER_PORT", "7070")
	t.Setenv("SPEND_ATLAS_SOURCE_KIND", "csv")
	t.Setenv("SPEND_ATLAS_SOURCE_PATH", "/tmp/expenses.csv")

	// When
	cfg, err := Load(path)

	// Then
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, SourceCSV, cfg.Source.Kind)
	assert.Equal(t, "/tmp/expenses.csv", cfg.Source.Path)
}

func TestLoad_InvalidYAML_ReturnsError(t *testing.T) {
	path := writeConfig(t, "bad.yaml", "server: port: : bad")

	_, err := Load(path)

	assert.Error(t, err)
}

func TestLoad_MissingFile_ReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   Server{Host: "localhost", Port: 8080},
			Source:   Source{Kind: SourceSeed},
			LogLevel: "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"unknown kind", func(c *Config) { c.Source.Kind = "ftp" }, "unknown source.kind"},
		{"csv without path", func(c *Config) { c.Source.Kind = SourceCSV }, "source.path"},
		{"sql without dsn", func(c *Config) { c.Source = Source{Kind: SourceSQL, Driver: "duckdb"} }, "source.dsn"},
		{"sql without driver", func(c *Config) { c.Source = Source{Kind: SourceSQL, DSN: "x"} }, "source.driver"},
		{"snowflake profile", func(c *Config) {
			c.Source = Source{Kind: SourceSQL, Driver: "snowflake", Path: "snowflake.yaml"}
		}, ""},
		{"databricks profile", func(c *Config) {
			c.Source = Source{Kind: SourceSQL, Driver: "databricks", Path: ".databrickscfg", Profile: "finance"}
		}, ""},
		{"duckdb needs dsn", func(c *Config) {
			c.Source = Source{Kind: SourceSQL, Driver: "duckdb", Path: "events.csv"}
		}, "source.dsn"},
		{"unknown budget category", func(c *Config) { c.Budgets = map[string]float64{"snacks": 1} }, "budgets"},
		{"negative budget", func(c *Config) { c.Budgets = map[string]float64{"infrastructure": -1} }, "negative ceiling"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
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

func TestBudgetRegistry_UnknownCategory(t *testing.T) {
	cfg := Config{Budgets: map[string]float64{"snacks": 1}}

	_, err := cfg.BudgetRegistry()

	assert.ErrorIs(t, err, budget.ErrUnknownCategory)
}
