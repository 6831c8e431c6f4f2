// Package csvimport reads expense events from header-driven CSV files.
//
// The header must name id, date, service, amountUsd, category and
// pricingModel (snake_case and any letter case accepted). Any other column
// becomes a meta entry, numeric when the cell parses as a number.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/de-tools/spend-atlas/pkg/adapters"
	"github.com/de-tools/spend-atlas/pkg/models/api"
	"github.com/de-tools/spend-atlas/pkg/models/domain"
)

var ErrMissingColumn = errors.New("missing required column")

const (
	colID           = "id"
	colDate         = "date"
	colService      = "service"
	colAmount       = "amountusd"
	colCategory     = "category"
	colPricingModel = "pricingmodel"
)

var required = []string{colID, colDate, colService, colAmount, colCategory, colPricingModel}

// RowError describes a rejected data row. Line is 1-based and counts the header.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

type Result struct {
	Events []domain.ExpenseEvent
	Errors []RowError
}

// Rejected is the number of data rows that were dropped.
func (r Result) Rejected() int {
	return len(r.Errors)
}

// Parse reads every row, collecting invalid ones as RowErrors. The returned
// error is non-nil only when the header is unusable or the stream is not CSV.
func Parse(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index, extras, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	res := &Result{Events: make([]domain.ExpenseEvent, 0)}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				res.Errors = append(res.Errors, RowError{Line: parseErr.StartLine, Err: parseErr.Err})
				continue
			}
			return nil, fmt.Errorf("read row: %w", err)
		}

		line, _ := reader.FieldPos(0)
		event, err := parseRow(row, index, extras)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Line: line, Err: err})
			continue
		}
		res.Events = append(res.Events, event)
	}
	return res, nil
}

func normalize(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	name = strings.ReplaceAll(strings.TrimSpace(name), "_", "")
	return strings.ToLower(name)
}

func mapHeader(header []string) (map[string]int, map[string]int, error) {
	index := make(map[string]int, len(required))
	extras := make(map[string]int)
	for i, raw := range header {
		key := normalize(raw)
		if key == "" {
			continue
		}
		if _, dup := index[key]; dup {
			return nil, nil, fmt.Errorf("duplicate column %q", strings.TrimSpace(raw))
		}
		index[key] = i
	}

	var missing []string
	for _, col := range required {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}

	for i, raw := range header {
		key := normalize(raw)
		if key == "" || slices.Contains(required, key) {
			continue
		}
		extras[strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))] = i
	}
	return index, extras, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseRow(row []string, index, extras map[string]int) (domain.ExpenseEvent, error) {
	rawAmount := cell(row, index[colAmount])
	amount, err := strconv.ParseFloat(rawAmount, 64)
	if err != nil {
		return domain.ExpenseEvent{}, fmt.Errorf("%w: amount %q is not a number", adapters.ErrInvalidEvent, rawAmount)
	}

	event := api.ExpenseEvent{
		ID:           cell(row, index[colID]),
		Date:         cell(row, index[colDate]),
		Service:      cell(row, index[colService]),
		AmountUSD:    amount,
		Category:     cell(row, index[colCategory]),
		PricingModel: cell(row, index[colPricingModel]),
	}
	for name, i := range extras {
		v := cell(row, i)
		if v == "" {
			continue
		}
		if event.Meta == nil {
			event.Meta = make(map[string]api.MetaValue)
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			event.Meta[name] = domain.NumberValue(f)
		} else {
			event.Meta[name] = domain.StringValue(v)
		}
	}

	return adapters.MapExpenseEventApiToDomain(event)
}
