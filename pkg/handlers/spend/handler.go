package spend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"sync"

	"github.com/de-tools/spend-atlas/pkg/adapters"
	"github.com/de-tools/spend-atlas/pkg/models/api"
	"github.com/de-tools/spend-atlas/pkg/models/domain"
	"github.com/de-tools/spend-atlas/pkg/models/store"
	"github.com/de-tools/spend-atlas/pkg/services/budget"
	"github.com/de-tools/spend-atlas/pkg/services/insights"
	"github.com/de-tools/spend-atlas/pkg/services/session"
	"github.com/de-tools/spend-atlas/pkg/services/source"
	"github.com/de-tools/spend-atlas/pkg/store/csvimport"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const maxUploadBytes = 10 << 20

// Analytics is the part of the analytics session the API reads and replaces.
type Analytics interface {
	Snapshot() *domain.Snapshot
	FilteredEvents(days int) []domain.ExpenseEvent
	ReplaceEvents(events []domain.ExpenseEvent) *domain.Snapshot
	Budgets() *budget.Registry
	Clock() session.Clock
}

// Persister receives every accepted replacement, e.g. the DuckDB expense store.
type Persister interface {
	Replace(ctx context.Context, records []store.ExpenseRecord) error
}

type Handler struct {
	analytics Analytics
	persister Persister

	// replaceMu orders persist and publish so the store and the session
	// always end up holding the same collection.
	replaceMu sync.Mutex
}

// NewHandler builds the handler; persister may be nil.
func NewHandler(analytics Analytics, persister Persister) *Handler {
	return &Handler{
		analytics: analytics,
		persister: persister,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/snapshot", h.GetSnapshot)
	r.Get("/events", h.ListEvents)
	r.Put("/events", h.ReplaceEvents)
	r.Get("/aggregates/daily", h.GetDaily)
	r.Get("/aggregates/categories", h.GetCategories)
	r.Get("/aggregates/services", h.GetServices)
	r.Get("/forecast", h.GetForecast)
	r.Get("/budgets", h.GetBudgets)
	r.Get("/alerts", h.ListAlerts)
	r.Get("/recommendations", h.ListRecommendations)
	r.Get("/insights/kpis", h.GetKPIs)
	r.Get("/insights/ai-tokens", h.GetAITokens)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string, details ...string) {
	writeJSON(w, r, status, api.ErrorResponse{Error: msg, Details: details})
}

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, adapters.MapSnapshotDomainToApi(h.analytics.Snapshot()))
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		writeJSON(w, r, http.StatusOK, adapters.MapExpenseEventsDomainToApi(h.analytics.Snapshot().Events))
		return
	}

	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		writeError(w, r, http.StatusBadRequest, "invalid 'days' parameter. Expected a positive integer")
		return
	}
	writeJSON(w, r, http.StatusOK, adapters.MapExpenseEventsDomainToApi(h.analytics.FilteredEvents(days)))
}

func (h *Handler) GetDaily(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, adapters.MapDailyTotalsDomainToApi(h.analytics.Snapshot().Daily))
}

func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, adapters.MapCategoryTotalsDomainToApi(h.analytics.Snapshot().Categories))
}

func (h *Handler) GetServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, adapters.MapServiceTotalsDomainToApi(h.analytics.Snapshot().Services))
}

func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	snap := h.analytics.Snapshot()
	writeJSON(w, r, http.StatusOK, api.Forecast{
		MonthProjection: snap.MonthProjection,
		TotalBudget:     snap.TotalBudget,
		OverBudget:      snap.MonthProjection > snap.TotalBudget,
	})
}

func (h *Handler) GetBudgets(w http.ResponseWriter, r *http.Request) {
	snap := h.analytics.Snapshot()
	budgets := h.analytics.Budgets()
	writeJSON(w, r, http.StatusOK, api.Budgets{
		Ceilings: adapters.MapCategoryTotalsDomainToApi(budgets.Ceilings()),
		Total:    budgets.Total(),
		Statuses: adapters.MapBudgetStatusesDomainToApi(insights.BudgetStatuses(snap.Categories, budgets)),
	})
}

func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := h.analytics.Snapshot().Alerts

	if severity := r.URL.Query().Get("severity"); severity != "" {
		switch domain.Severity(severity) {
		case domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh:
		default:
			writeError(w, r, http.StatusBadRequest, "invalid 'severity' parameter. Expected one of: low, med, high")
			return
		}
		filtered := make([]domain.Alert, 0, len(alerts))
		for _, a := range alerts {
			if string(a.Severity) == severity {
				filtered = append(filtered, a)
			}
		}
		alerts = filtered
	}

	writeJSON(w, r, http.StatusOK, adapters.MapAlertsDomainToApi(alerts))
}

func (h *Handler) ListRecommendations(w http.ResponseWriter, r *http.Request) {
	recs := h.analytics.Snapshot().Recommendations

	switch r.URL.Query().Get("sort") {
	case "":
	case "savings":
		recs = insights.SortBySavings(recs)
	default:
		writeError(w, r, http.StatusBadRequest, "invalid 'sort' parameter. Expected: savings")
		return
	}

	writeJSON(w, r, http.StatusOK, api.RecommendationList{
		Items:        adapters.MapRecommendationsDomainToApi(recs),
		TotalSavings: insights.TotalSavings(recs),
	})
}

func (h *Handler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	kpis := insights.ComputeKPIs(h.analytics.Snapshot(), h.analytics.Clock().Now())
	writeJSON(w, r, http.StatusOK, adapters.MapKPIsDomainToApi(kpis))
}

func (h *Handler) GetAITokens(w http.ResponseWriter, r *http.Request) {
	usage := insights.AITokenUsage(h.analytics.Snapshot().Events)
	writeJSON(w, r, http.StatusOK, adapters.MapTokenUsageDomainToApi(usage))
}

// ReplaceEvents swaps the whole collection for the request body, a JSON array
// of events or a text/csv file. Invalid rows are skipped and reported; the
// request fails only when rows were sent and none was valid.
func (h *Handler) ReplaceEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)
	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		events   []domain.ExpenseEvent
		rejected []error
		err      error
	)
	switch mediaType {
	case "text/csv":
		var res *csvimport.Result
		if res, err = csvimport.Parse(body); err == nil {
			events = res.Events
			for _, rowErr := range res.Errors {
				rejected = append(rejected, rowErr)
			}
		}
	case "application/json", "":
		events, rejected, err = source.ParseJSON(body)
	default:
		writeError(w, r, http.StatusUnsupportedMediaType, fmt.Sprintf("unsupported content type %q", mediaType))
		return
	}

	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	details := make([]string, 0, len(rejected))
	for _, e := range rejected {
		details = append(details, e.Error())
	}
	if len(events) == 0 && len(rejected) > 0 {
		writeError(w, r, http.StatusBadRequest, "no valid expense events", details...)
		return
	}

	snap, err := h.replace(ctx, events)
	if err != nil {
		var invalid *invalidRecordError
		if errors.As(err, &invalid) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error().Err(err).Msg("failed to persist expense events")
		writeError(w, r, http.StatusInternalServerError, "failed to persist expense events")
		return
	}
	logger.Info().
		Uint64("revision", snap.Revision).
		Int("accepted", len(events)).
		Int("rejected", len(rejected)).
		Msg("expense events replaced")

	writeJSON(w, r, http.StatusOK, api.ReplaceResult{
		Revision: snap.Revision,
		Accepted: len(events),
		Rejected: len(rejected),
		Errors:   details,
	})
}

type invalidRecordError struct {
	err error
}

func (e *invalidRecordError) Error() string { return e.err.Error() }

func (e *invalidRecordError) Unwrap() error { return e.err }

// replace persists events and publishes them as one step.
func (h *Handler) replace(ctx context.Context, events []domain.ExpenseEvent) (*domain.Snapshot, error) {
	h.replaceMu.Lock()
	defer h.replaceMu.Unlock()

	if h.persister != nil {
		records := make([]store.ExpenseRecord, 0, len(events))
		for _, e := range events {
			record, err := adapters.MapExpenseEventDomainToStore(e)
			if err != nil {
				return nil, &invalidRecordError{err: err}
			}
			records = append(records, record)
		}
		if err := h.persister.Replace(ctx, records); err != nil {
			return nil, err
		}
	}
	return h.analytics.ReplaceEvents(events), nil
}
