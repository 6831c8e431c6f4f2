package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/de-tools/spend-atlas/pkg/adapters"
	"github.com/de-tools/spend-atlas/pkg/models/domain"
	"github.com/de-tools/spend-atlas/pkg/models/store"
	"github.com/de-tools/spend-atlas/pkg/services/source"
	"github.com/de-tools/spend-atlas/pkg/store/csvimport"
	"github.com/de-tools/spend-atlas/pkg/store/duckdb"
	"github.com/de-tools/spend-atlas/pkg/store/duckdb/expenses"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type LoadCmd struct {
	file   string
	dbPath string
	append bool
}

func NewLoadCmd() *cobra.Command {
	lc := &LoadCmd{}
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Import a CSV or JSON file into a DuckDB database",
		Long: "Import a CSV or JSON file into a DuckDB database. The database can then be " +
			"used as a sql source with --driver duckdb.",
		RunE: lc.run,
	}

	cmd.Flags().StringVarP(&lc.file, "file", "f", "", "CSV or JSON file to import")
	cmd.Flags().StringVar(&lc.dbPath, "db", "spend-atlas.db", "DuckDB database file")
	cmd.Flags().BoolVar(&lc.append, "append", false, "Upsert into the existing events instead of replacing them")

	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (lc *LoadCmd) read() ([]domain.ExpenseEvent, []error, error) {
	f, err := os.Open(lc.file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", lc.file, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(lc.file), ".json") {
		return source.ParseJSON(f)
	}

	res, err := csvimport.Parse(f)
	if err != nil {
		return nil, nil, err
	}
	rejected := make([]error, 0, len(res.Errors))
	for _, e := range res.Errors {
		rejected = append(rejected, e)
	}
	return res.Events, rejected, nil
}

func (lc *LoadCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	events, rejected, err := lc.read()
	if err != nil {
		return err
	}
	for _, e := range rejected {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %v\n", e)
	}
	if len(events) == 0 {
		return fmt.Errorf("no valid events in %s", lc.file)
	}

	records := make([]store.ExpenseRecord, 0, len(events))
	for _, e := range events {
		r, err := adapters.MapExpenseEventDomainToStore(e)
		if err != nil {
			return err
		}
		records = append(records, r)
	}

	db, err := duckdb.NewDB(duckdb.Settings{DbPath: lc.dbPath})
	if err != nil {
		return fmt.Errorf("failed to open DuckDB at %s: %w", lc.dbPath, err)
	}
	defer db.Close()

	expenseStore, err := expenses.NewStore(db)
	if err != nil {
		return err
	}
	if lc.append {
		err = expenseStore.Add(ctx, records)
	} else {
		err = expenseStore.Replace(ctx, records)
	}
	if err != nil {
		return fmt.Errorf("failed to store events: %w", err)
	}

	total, err := expenseStore.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %s events (%s rejected) into %s, %s stored\n",
		humanize.Comma(int64(len(records))),
		humanize.Comma(int64(len(rejected))),
		lc.dbPath,
		humanize.Comma(total))
	return nil
}
