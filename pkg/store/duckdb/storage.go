package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

// ExpenseTable is the table managed by the expenses store.
const ExpenseTable = "expense_events"

const expenseSequence = `CREATE SEQUENCE IF NOT EXISTS expense_events_seq;`

// ExpenseTableSchema keeps the date as ISO-8601 text so the source UTC offset,
// and with it the calendar day, survives a round trip. seq records insertion
// order, which text dates with mixed offsets cannot provide.
const ExpenseTableSchema = `
	CREATE TABLE IF NOT EXISTS expense_events (
		id VARCHAR PRIMARY KEY,
		seq BIGINT NOT NULL DEFAULT nextval('expense_events_seq'),
		date VARCHAR NOT NULL,
		service VARCHAR NOT NULL,
		amount_usd DOUBLE NOT NULL,
		category VARCHAR NOT NULL,
		pricing_model VARCHAR NOT NULL,
		meta VARCHAR
	);
`

var bootQueries = []string{
	expenseSequence,
	ExpenseTableSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			if _, err := exec.ExecContext(context.Background(), query, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sql.OpenDB(c), nil
}
