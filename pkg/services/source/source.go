// Package source loads the initial expense collection from files, databases
// or the demo generator.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/de-tools/spend-atlas/pkg/adapters"
	"github.com/de-tools/spend-atlas/pkg/models/api"
	"github.com/de-tools/spend-atlas/pkg/models/domain"
	"github.com/de-tools/spend-atlas/pkg/services/config"
	"github.com/de-tools/spend-atlas/pkg/services/seed"
	"github.com/de-tools/spend-atlas/pkg/store/csvimport"
	storesql "github.com/de-tools/spend-atlas/pkg/store/sql"
	"github.com/rs/zerolog"
)

type Source interface {
	Load(ctx context.Context) ([]domain.ExpenseEvent, error)
}

type SourceFunc func(ctx context.Context) ([]domain.ExpenseEvent, error)

func (f SourceFunc) Load(ctx context.Context) ([]domain.ExpenseEvent, error) {
	return f(ctx)
}

// logRejected reports dropped rows and fails only when nothing usable is left.
func logRejected(ctx context.Context, origin string, accepted int, rejected []error) error {
	logger := zerolog.Ctx(ctx)
	for _, err := range rejected {
		logger.Warn().Err(err).Str("source", origin).Msg("expense rejected")
	}
	if accepted == 0 && len(rejected) > 0 {
		return fmt.Errorf("%s: all %d rows were rejected, first: %w", origin, len(rejected), rejected[0])
	}
	return nil
}

func CSVFactory(cfg config.Source) (Source, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("csv source requires a path")
	}
	return SourceFunc(func(ctx context.Context) ([]domain.ExpenseEvent, error) {
		f, err := os.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open csv: %w", err)
		}
		defer f.Close()

		res, err := csvimport.Parse(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.Path, err)
		}
		rejected := make([]error, 0, len(res.Errors))
		for _, e := range res.Errors {
			rejected = append(rejected, e)
		}
		if err := logRejected(ctx, cfg.Path, len(res.Events), rejected); err != nil {
			return nil, err
		}
		return res.Events, nil
	}), nil
}

// ParseJSON decodes an array of wire events. Invalid events, including ones
// whose fields have the wrong JSON type, are returned in rejected rather than
// failing the whole document.
func ParseJSON(r io.Reader) (events []domain.ExpenseEvent, rejected []error, err error) {
	var items []json.RawMessage
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, nil, fmt.Errorf("decode expense events: %w", err)
	}

	events = make([]domain.ExpenseEvent, 0, len(items))
	for i, item := range items {
		var e api.ExpenseEvent
		if err := json.Unmarshal(item, &e); err != nil {
			rejected = append(rejected, fmt.Errorf("item %d: %w: %v", i, adapters.ErrInvalidEvent, err))
			continue
		}
		event, err := adapters.MapExpenseEventApiToDomain(e)
		if err != nil {
			rejected = append(rejected, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		events = append(events, event)
	}
	return events, rejected, nil
}

func JSONFactory(cfg config.Source) (Source, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("json source requires a path")
	}
	return SourceFunc(func(ctx context.Context) ([]domain.ExpenseEvent, error) {
		f, err := os.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open json: %w", err)
		}
		defer f.Close()

		events, rejected, err := ParseJSON(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.Path, err)
		}
		if err := logRejected(ctx, cfg.Path, len(events), rejected); err != nil {
			return nil, err
		}
		return events, nil
	}), nil
}

// SQLFactory reads from cfg.Table through the configured driver. For
// snowflake and databricks, cfg.Path may point to a connection profile
// instead of a DSN.
func SQLFactory(cfg config.Source) (Source, error) {
	if cfg.Table == "" {
		cfg.Table = "expense_events"
	}
	return SourceFunc(func(ctx context.Context) ([]domain.ExpenseEvent, error) {
		db, err := storesql.Open(storesql.Connection{
			Driver:      cfg.Driver,
			DSN:         cfg.DSN,
			ProfilePath: cfg.Path,
			Profile:     cfg.Profile,
			HTTPPath:    cfg.HTTPPath,
		})
		if err != nil {
			return nil, err
		}
		defer db.Close()

		reader, err := storesql.NewExpenseReader(db, cfg.Table)
		if err != nil {
			return nil, err
		}
		return ReadAll(ctx, cfg.Driver, reader)
	}), nil
}

// ReadAll maps store records to events, dropping the invalid ones.
func ReadAll(ctx context.Context, origin string, reader storesql.ExpenseReader) ([]domain.ExpenseEvent, error) {
	records, err := reader.ReadExpenses(ctx)
	if err != nil {
		return nil, err
	}

	events := make([]domain.ExpenseEvent, 0, len(records))
	var rejected []error
	for _, r := range records {
		event, err := adapters.MapExpenseRecordStoreToDomain(r)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		events = append(events, event)
	}
	if err := logRejected(ctx, origin, len(events), rejected); err != nil {
		return nil, err
	}
	return events, nil
}

type SeedOptions struct {
	Days       int
	RandomSeed uint64
	Now        func() time.Time
}

func SeedFactory(opts SeedOptions) Factory {
	return func(config.Source) (Source, error) {
		now := opts.Now
		if now == nil {
			now = time.Now
		}
		return SourceFunc(func(ctx context.Context) ([]domain.ExpenseEvent, error) {
			events := seed.Generate(now(), seed.Options{
				Days: opts.Days,
				Rand: seed.NewRand(opts.RandomSeed),
			})
			zerolog.Ctx(ctx).Debug().Int("events", len(events)).Msg("seed data generated")
			return events, nil
		}), nil
	}
}
