package expenses

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/de-tools/spend-atlas/pkg/models/store"
	"github.com/de-tools/spend-atlas/pkg/store/duckdb"
)

// Store persists expense records in the expense_events table.
type Store interface {
	Add(ctx context.Context, records []store.ExpenseRecord) error
	// Replace deletes every stored record and adds records in one transaction.
	Replace(ctx context.Context, records []store.ExpenseRecord) error
	// GetExpenses returns records in the order they were first added. An
	// upsert keeps the original position.
	GetExpenses(ctx context.Context) ([]store.ExpenseRecord, error)
	ReadExpenses(ctx context.Context) ([]store.ExpenseRecord, error)
	Count(ctx context.Context) (int64, error)
}

type expenseStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &expenseStore{db: db}, nil
}

func (s *expenseStore) Add(ctx context.Context, records []store.ExpenseRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx := duckdb.GetTransaction(ctx)
	query := `
		INSERT INTO expense_events (
			id, date, service, amount_usd, category, pricing_model, meta
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			date = excluded.date,
			service = excluded.service,
			amount_usd = excluded.amount_usd,
			category = excluded.category,
			pricing_model = excluded.pricing_model,
			meta = excluded.meta`

	var stmt *sql.Stmt
	var err error
	if tx == nil {
		stmt, err = s.db.PrepareContext(ctx, query)
	} else {
		stmt, err = tx.PrepareContext(ctx, query)
	}
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		var meta any
		if r.MetaJSON != "" {
			meta = r.MetaJSON
		}
		_, err = stmt.ExecContext(ctx,
			r.ID,
			r.Date.Format(time.RFC3339Nano),
			r.Service,
			r.AmountUSD,
			r.Category,
			r.PricingModel,
			meta,
		)
		if err != nil {
			return fmt.Errorf("insert record %s: %w", r.ID, err)
		}
	}
	return nil
}

func (s *expenseStore) Replace(ctx context.Context, records []store.ExpenseRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expense_events`); err != nil {
		return fmt.Errorf("clear expenses: %w", err)
	}
	if err := s.Add(duckdb.WithTransaction(ctx, tx), records); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *expenseStore) GetExpenses(ctx context.Context) ([]store.ExpenseRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, service, amount_usd, category, pricing_model, meta
		FROM expense_events
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	records := make([]store.ExpenseRecord, 0)
	for rows.Next() {
		var (
			r    store.ExpenseRecord
			date string
			meta sql.NullString
		)
		if err := rows.Scan(&r.ID, &date, &r.Service, &r.AmountUSD, &r.Category, &r.PricingModel, &meta); err != nil {
			return nil, err
		}
		if r.Date, err = time.Parse(time.RFC3339Nano, date); err != nil {
			return nil, fmt.Errorf("expense %s: bad stored date %q: %w", r.ID, date, err)
		}
		r.MetaJSON = meta.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// ReadExpenses lets the store act as the startup reader for its own table.
func (s *expenseStore) ReadExpenses(ctx context.Context) ([]store.ExpenseRecord, error) {
	return s.GetExpenses(ctx)
}

func (s *expenseStore) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expense_events`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return total, nil
}
