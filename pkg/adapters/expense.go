package adapters

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"time"

	"github.com/de-tools/spend-atlas/pkg/models/api"
	"github.com/de-tools/spend-atlas/pkg/models/domain"
	"github.com/de-tools/spend-atlas/pkg/models/store"
)

var ErrInvalidEvent = errors.New("invalid expense event")

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	domain.DayLayout,
}

// ParseEventDate accepts RFC 3339 timestamps, zone-less timestamps (read as
// UTC) and bare calendar days. The parsed offset is preserved.
func ParseEventDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable date %q", ErrInvalidEvent, s)
}

func MapExpenseEventApiToDomain(e api.ExpenseEvent) (domain.ExpenseEvent, error) {
	switch {
	case e.ID == "":
		return domain.ExpenseEvent{}, fmt.Errorf("%w: missing id", ErrInvalidEvent)
	case e.Date == "":
		return domain.ExpenseEvent{}, fmt.Errorf("%w: %s: missing date", ErrInvalidEvent, e.ID)
	case e.Service == "":
		return domain.ExpenseEvent{}, fmt.Errorf("%w: %s: missing service", ErrInvalidEvent, e.ID)
	}

	date, err := ParseEventDate(e.Date)
	if err != nil {
		return domain.ExpenseEvent{}, fmt.Errorf("%s: %w", e.ID, err)
	}

	return validate(domain.ExpenseEvent{
		ID:           e.ID,
		Date:         date,
		Service:      e.Service,
		AmountUSD:    e.AmountUSD,
		Category:     domain.Category(e.Category),
		PricingModel: domain.PricingModel(e.PricingModel),
		Meta:         maps.Clone(domain.Meta(e.Meta)),
	})
}

func validate(e domain.ExpenseEvent) (domain.ExpenseEvent, error) {
	if math.IsNaN(e.AmountUSD) || math.IsInf(e.AmountUSD, 0) || e.AmountUSD < 0 {
		return domain.ExpenseEvent{}, fmt.Errorf("%w: %s: amount must be a non-negative number, got %v", ErrInvalidEvent, e.ID, e.AmountUSD)
	}
	if !e.Category.Valid() {
		return domain.ExpenseEvent{}, fmt.Errorf("%w: %s: unknown category %q", ErrInvalidEvent, e.ID, e.Category)
	}
	if !e.PricingModel.Valid() {
		return domain.ExpenseEvent{}, fmt.Errorf("%w: %s: unknown pricing model %q", ErrInvalidEvent, e.ID, e.PricingModel)
	}
	return e, nil
}

func MapExpenseEventDomainToApi(e domain.ExpenseEvent) api.ExpenseEvent {
	return api.ExpenseEvent{
		ID:           e.ID,
		Date:         e.Date.Format(time.RFC3339Nano),
		Service:      e.Service,
		AmountUSD:    e.AmountUSD,
		Category:     string(e.Category),
		PricingModel: string(e.PricingModel),
		Meta:         maps.Clone(e.Meta),
	}
}

func MapExpenseEventsDomainToApi(events []domain.ExpenseEvent) []api.ExpenseEvent {
	res := make([]api.ExpenseEvent, 0, len(events))
	for _, e := range events {
		res = append(res, MapExpenseEventDomainToApi(e))
	}
	return res
}

func MapExpenseRecordStoreToDomain(r store.ExpenseRecord) (domain.ExpenseEvent, error) {
	if r.ID == "" || r.Service == "" || r.Date.IsZero() {
		return domain.ExpenseEvent{}, fmt.Errorf("%w: record %q is missing id, date or service", ErrInvalidEvent, r.ID)
	}

	var meta domain.Meta
	if r.MetaJSON != "" {
		if err := json.Unmarshal([]byte(r.MetaJSON), &meta); err != nil {
			return domain.ExpenseEvent{}, fmt.Errorf("%w: %s: bad meta: %v", ErrInvalidEvent, r.ID, err)
		}
	}

	return validate(domain.ExpenseEvent{
		ID:           r.ID,
		Date:         r.Date,
		Service:      r.Service,
		AmountUSD:    r.AmountUSD,
		Category:     domain.Category(r.Category),
		PricingModel: domain.PricingModel(r.PricingModel),
		Meta:         meta,
	})
}

func MapExpenseEventDomainToStore(e domain.ExpenseEvent) (store.ExpenseRecord, error) {
	record := store.ExpenseRecord{
		ID:           e.ID,
		Date:         e.Date,
		Service:      e.Service,
		AmountUSD:    e.AmountUSD,
		Category:     string(e.Category),
		PricingModel: string(e.PricingModel),
	}
	if len(e.Meta) > 0 {
		raw, err := json.Marshal(e.Meta)
		if err != nil {
			return store.ExpenseRecord{}, fmt.Errorf("failed to encode meta for %s: %w", e.ID, err)
		}
		record.MetaJSON = string(raw)
	}
	return record, nil
}
