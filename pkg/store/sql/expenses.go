// Package sql reads expense rows from any database/sql driver.
package sql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/de-tools/spend-atlas/pkg/adapters"
	"github.com/de-tools/spend-atlas/pkg/models/store"
	"github.com/rs/zerolog"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*){0,2}$`)

type ExpenseReader interface {
	ReadExpenses(ctx context.Context) ([]store.ExpenseRecord, error)
}

type reader struct {
	db    *sql.DB
	table string
}

func NewExpenseReader(db *sql.DB, table string) (ExpenseReader, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &reader{db: db, table: table}, nil
}

func (r *reader) ReadExpenses(ctx context.Context) ([]store.ExpenseRecord, error) {
	logger := zerolog.Ctx(ctx)
	query := fmt.Sprintf(`
		SELECT id, date, service, amount_usd, category, pricing_model, meta
		FROM %s
		ORDER BY date
	`, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("expense query failed: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close expense query rows")
		}
	}(rows)

	records := make([]store.ExpenseRecord, 0)
	for rows.Next() {
		var (
			id, service, category, pricing string
			rawDate                        any
			amount                         float64
			meta                           sql.NullString
		)
		if err := rows.Scan(&id, &rawDate, &service, &amount, &category, &pricing, &meta); err != nil {
			return nil, fmt.Errorf("scan expense row: %w", err)
		}

		date, err := scanDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("expense %s: %w", id, err)
		}
		records = append(records, store.ExpenseRecord{
			ID:           id,
			Date:         date,
			Service:      service,
			AmountUSD:    amount,
			Category:     category,
			PricingModel: pricing,
			MetaJSON:     meta.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense rows: %w", err)
	}

	logger.Debug().Str("table", r.table).Int("rows", len(records)).Msg("expenses read")
	return records, nil
}

// scanDate accepts native timestamps and ISO-8601 text columns. Text keeps its
// UTC offset, which native TIMESTAMPTZ columns do not.
func scanDate(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return adapters.ParseEventDate(t)
	case []byte:
		return adapters.ParseEventDate(string(t))
	default:
		return time.Time{}, fmt.Errorf("unsupported date column type %T", v)
	}
}
