package session

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/de-tools/spend-atlas/pkg/models/domain"
	"github.com/de-tools/spend-atlas/pkg/services/aggregate"
	"github.com/de-tools/spend-atlas/pkg/services/alerts"
	"github.com/de-tools/spend-atlas/pkg/services/budget"
	"github.com/de-tools/spend-atlas/pkg/services/forecast"
	"github.com/de-tools/spend-atlas/pkg/services/recommendations"
	"github.com/rs/zerolog"
)

// Clock is the source of "now" for time-relative queries.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

var SystemClock Clock = ClockFunc(time.Now)

// FixedClock always returns t.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

type Options struct {
	Budgets         *budget.Registry
	Alerts          *alerts.Engine
	Recommendations *recommendations.Engine
	Clock           Clock
	Logger          *zerolog.Logger
}

// Session owns the live event collection. Every replacement recomputes the
// whole derived view set and publishes it in one atomic swap, so readers see
// either the old snapshot or the new one.
type Session struct {
	budgets *budget.Registry
	alerts  *alerts.Engine
	recs    *recommendations.Engine
	clock   Clock
	logger  *zerolog.Logger

	mu       sync.Mutex // serialises writers
	revision uint64
	current  atomic.Pointer[domain.Snapshot]
}

func New(opts Options, initial []domain.ExpenseEvent) *Session {
	if opts.Budgets == nil {
		opts.Budgets = budget.Default()
	}
	if opts.Alerts == nil {
		opts.Alerts = alerts.NewEngine(opts.Budgets)
	}
	if opts.Recommendations == nil {
		opts.Recommendations = recommendations.NewEngine()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}

	s := &Session{
		budgets: opts.Budgets,
		alerts:  opts.Alerts,
		recs:    opts.Recommendations,
		clock:   opts.Clock,
		logger:  opts.Logger,
	}
	s.ReplaceEvents(initial)
	return s
}

// ReplaceEvents swaps in a copy of events and returns the new snapshot.
func (s *Session) ReplaceEvents(events []domain.ExpenseEvent) *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revision++
	snap := s.compute(slices.Clone(events))
	s.current.Store(snap)

	s.logger.Debug().
		Uint64("revision", snap.Revision).
		Int("events", len(snap.Events)).
		Int("alerts", len(snap.Alerts)).
		Int("recommendations", len(snap.Recommendations)).
		Msg("snapshot published")
	return snap
}

// Snapshot returns the current snapshot. Callers must treat it as read-only.
func (s *Session) Snapshot() *domain.Snapshot {
	return s.current.Load()
}

// FilteredEvents returns events dated on or after now minus days, where now is
// read from the clock at call time. The result can shrink as real time passes
// even when the collection does not change.
func (s *Session) FilteredEvents(days int) []domain.ExpenseEvent {
	return Trailing(s.Snapshot().Events, s.clock.Now(), days)
}

func (s *Session) Budgets() *budget.Registry {
	return s.budgets
}

func (s *Session) Clock() Clock {
	return s.clock
}

// Trailing filters events to the window [now - days, +inf).
func Trailing(events []domain.ExpenseEvent, now time.Time, days int) []domain.ExpenseEvent {
	cutoff := now.AddDate(0, 0, -days)
	out := make([]domain.ExpenseEvent, 0)
	for _, e := range events {
		if !e.Date.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

func (s *Session) compute(events []domain.ExpenseEvent) *domain.Snapshot {
	if events == nil {
		events = make([]domain.ExpenseEvent, 0)
	}
	daily := aggregate.ByDay(events)
	categories := aggregate.ByCategory(events)
	services := aggregate.ByService(events)
	projection := forecast.LinearProjectionMonth(daily)

	generated := s.alerts.Evaluate(alerts.Input{
		Daily:      daily,
		Categories: categories,
		Projection: projection,
		Budgets:    s.budgets,
	})
	recs := s.recs.Evaluate(recommendations.Input{
		Categories: categories,
		Services:   services,
	})

	return &domain.Snapshot{
		Revision:        s.revision,
		ComputedAt:      s.clock.Now(),
		Events:          events,
		Daily:           daily,
		Categories:      categories,
		Services:        services,
		MonthProjection: projection,
		Alerts:          generated,
		Recommendations: recs,
		TotalBudget:     s.budgets.Total(),
	}
}
