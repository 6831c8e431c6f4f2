package main

import (
	"context"
	"fmt"
	"os"

	"github.com/de-tools/spend-atlas/pkg/handlers/spend"
	"github.com/de-tools/spend-atlas/pkg/models/domain"
	"github.com/de-tools/spend-atlas/pkg/server"
	"github.com/de-tools/spend-atlas/pkg/services/config"
	"github.com/de-tools/spend-atlas/pkg/services/session"
	"github.com/de-tools/spend-atlas/pkg/services/source"
	"github.com/de-tools/spend-atlas/pkg/store/duckdb"
	"github.com/de-tools/spend-atlas/pkg/store/duckdb/expenses"
	storesql "github.com/de-tools/spend-atlas/pkg/store/sql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:          "web",
		Short:        "Start the Spend Atlas API server",
		SilenceUsage: true,
		RunE:         runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to a config file; SPEND_ATLAS_* environment variables override it")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := zerolog.New(os.Stdout).Level(cfg.Level()).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	budgets, err := cfg.BudgetRegistry()
	if err != nil {
		return err
	}

	events, persister, closeStore, err := loadEvents(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	sess := session.New(session.Options{
		Budgets: budgets,
		Logger:  &logger,
	}, events)

	logger.Info().
		Str("source", cfg.Source.Kind).
		Int("events", len(events)).
		Float64("total_budget", budgets.Total()).
		Bool("persistent", persister != nil).
		Msg("expense events loaded")

	api := server.NewWebAPI(server.Config{
		Addr:            cfg.Server.Addr(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Dependencies: server.Dependencies{
			Analytics: sess,
			Persister: persister,
			Logger:    logger,
		},
	})

	logger.Info().Msgf("starting server on %s", cfg.Server.Addr())
	return api.Start(ctx)
}

// loadEvents reads the initial collection. A local DuckDB database is opened
// once and also persists replacements made through the API.
func loadEvents(ctx context.Context, cfg *config.Config) ([]domain.ExpenseEvent, spend.Persister, func(), error) {
	noop := func() {}

	if cfg.Source.Kind != config.SourceSQL || cfg.Source.Driver != storesql.DriverDuckDB {
		src, err := source.DefaultRegistry(source.SeedOptions{
			Days:       cfg.Seed.Days,
			RandomSeed: cfg.Seed.RandomSeed,
		}).Create(cfg.Source)
		if err != nil {
			return nil, nil, noop, err
		}
		events, err := src.Load(ctx)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("failed to load events: %w", err)
		}
		return events, nil, noop, nil
	}

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: cfg.Source.DSN})
	if err != nil {
		return nil, nil, noop, fmt.Errorf("failed to create DuckDB instance: %w", err)
	}
	closeDB := func() { _ = db.Close() }

	if cfg.Source.Table != duckdb.ExpenseTable {
		zerolog.Ctx(ctx).Warn().
			Str("table", cfg.Source.Table).
			Msg("replacements are not persisted when reading from a custom table")
		reader, err := storesql.NewExpenseReader(db, cfg.Source.Table)
		if err != nil {
			closeDB()
			return nil, nil, noop, err
		}
		events, err := source.ReadAll(ctx, storesql.DriverDuckDB, reader)
		if err != nil {
			closeDB()
			return nil, nil, noop, fmt.Errorf("failed to load events: %w", err)
		}
		return events, nil, closeDB, nil
	}

	expenseStore, err := expenses.NewStore(db)
	if err != nil {
		closeDB()
		return nil, nil, noop, err
	}
	events, err := source.ReadAll(ctx, storesql.DriverDuckDB, expenseStore)
	if err != nil {
		closeDB()
		return nil, nil, noop, fmt.Errorf("failed to load events: %w", err)
	}
	return events, expenseStore, closeDB, nil
}
