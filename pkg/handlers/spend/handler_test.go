package spend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/de-tools/spend-atlas/pkg/models/api"
	"github.com/de-tools/spend-atlas/pkg/models/domain"
	"github.com/de-tools/spend-atlas/pkg/models/store"
	"github.com/de-tools/spend-atlas/pkg/services/session"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

type mockPersister struct {
	mock.Mock
}

func (m *mockPersister) Replace(ctx context.Context, records []store.ExpenseRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

// blockingPersister holds the first Replace call until release is closed.
type blockingPersister struct {
	mu      sync.Mutex
	calls   int
	last    []store.ExpenseRecord
	entered chan struct{}
	release chan struct{}
}

func (p *blockingPersister) Replace(_ context.Context, records []store.ExpenseRecord) error {
	p.mu.Lock()
	p.calls++
	first := p.calls == 1
	p.last = records
	p.mu.Unlock()

	if first {
		close(p.entered)
		<-p.release
	}
	return nil
}

func event(id string, days int, service string, category domain.Category, amount float64) domain.ExpenseEvent {
	return domain.ExpenseEvent{
		ID:           id,
		Date:         now.AddDate(0, 0, -days),
		Service:      service,
		AmountUSD:    amount,
		Category:     category,
		PricingModel: domain.PricingUsage,
	}
}

func fixtureEvents() []domain.ExpenseEvent {
	ai := event("e2", 1, "OpenAI GPT-4", domain.CategoryAITokens, 3700)
	ai.Meta = domain.Meta{"tokens": domain.NumberValue(3_700_000)}
	return []domain.ExpenseEvent{
		event("e1", 1, "AWS EC2", domain.CategoryInfrastructure, 2000),
		ai,
		event("e3", 10, "Vercel", domain.CategoryHostingDevOps, 600),
		event("e4", 40, "Stripe", domain.CategoryThirdPartyTools, 100),
	}
}

func setup(t *testing.T, persister Persister) (*session.Session, http.Handler) {
	t.Helper()
	s := session.New(session.Options{Clock: session.FixedClock(now)}, fixtureEvents())
	r := chi.NewRouter()
	NewHandler(s, persister).Routes(r)
	return s, r
}

func do(t *testing.T, h http.Handler, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestGetSnapshot(t *testing.T) {
	s, h := setup(t, nil)

	rec := do(t, h, http.MethodGet, "/snapshot", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	got := decode[api.Snapshot](t, rec)
	assert.Equal(t, s.Snapshot().Revision, got.Revision)
	assert.Len(t, got.Events, 4)
	assert.Len(t, got.Daily, 3)
	assert.Equal(t, "AI Tokens / APIs", got.Categories[0].Category)
	assert.Equal(t, 27000.0, got.TotalBudget)
	assert.InDelta(t, s.Snapshot().MonthProjection, got.MonthProjection, 1e-6)
}

func TestListEvents(t *testing.T) {
	_, h := setup(t, nil)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantIDs    []string
	}{
		{"all events", "/events", http.StatusOK, []string{"e1", "e2", "e3", "e4"}},
		{"trailing week", "/events?days=7", http.StatusOK, []string{"e1", "e2"}},
		{"trailing month", "/events?days=30", http.StatusOK, []string{"e1", "e2", "e3"}},
		{"zero days", "/events?days=0", http.StatusBadRequest, nil},
		{"not a number", "/events?days=week", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tt.path, "", "")

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Contains(t, decode[api.ErrorResponse](t, rec).Error, "days")
				return
			}
			var ids []string
			for _, e := range decode[[]api.ExpenseEvent](t, rec) {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestAggregates(t *testing.T) {
	_, h := setup(t, nil)

	daily := decode[[]api.DailyTotal](t, do(t, h, http.MethodGet, "/aggregates/daily", "", ""))
	assert.Equal(t, []api.DailyTotal{
		{Date: "2025-05-22", AmountUSD: 100},
		{Date: "2025-06-21", AmountUSD: 600},
		{Date: "2025-06-30", AmountUSD: 5700},
	}, daily)

	services := decode[[]api.ServiceTotal](t, do(t, h, http.MethodGet, "/aggregates/services", "", ""))
	require.Len(t, services, 4)
	assert.Equal(t, api.ServiceTotal{Service: "OpenAI GPT-4", AmountUSD: 3700}, services[0])

	categories := decode[[]api.CategoryTotal](t, do(t, h, http.MethodGet, "/aggregates/categories", "", ""))
	require.Len(t, categories, 4)
	assert.Equal(t, "Third-Party Tools", categories[3].Category)
}

func TestGetForecast(t *testing.T) {
	s, h := setup(t, nil)

	got := decode[api.Forecast](t, do(t, h, http.MethodGet, "/forecast", "", ""))

	assert.InDelta(t, s.Snapshot().MonthProjection, got.MonthProjection, 1e-6)
	assert.True(t, got.OverBudget)
	assert.Equal(t, 27000.0, got.TotalBudget)
}

func TestGetBudgets(t *testing.T) {
	_, h := setup(t, nil)

	got := decode[api.Budgets](t, do(t, h, http.MethodGet, "/budgets", "", ""))

	assert.Equal(t, 27000.0, got.Total)
	require.Len(t, got.Ceilings, 4)
	assert.Equal(t, api.CategoryTotal{Category: "Infrastructure", AmountUSD: 15000}, got.Ceilings[0])
	require.Len(t, got.Statuses, 4)
	assert.Equal(t, "AI Tokens / APIs", got.Statuses[0].Category)
	assert.Equal(t, "critical", got.Statuses[0].Status)
}

func TestListAlerts(t *testing.T) {
	_, h := setup(t, nil)

	all := decode[[]api.Alert](t, do(t, h, http.MethodGet, "/alerts", "", ""))
	var ids []string
	for _, a := range all {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"a1", "cat-AI Tokens / APIs", "a3"}, ids)

	high := decode[[]api.Alert](t, do(t, h, http.MethodGet, "/alerts?severity=high", "", ""))
	require.Len(t, high, 1)
	assert.Equal(t, "a1", high[0].ID)

	none := decode[[]api.Alert](t, do(t, h, http.MethodGet, "/alerts?severity=med", "", ""))
	require.Len(t, none, 1)
	assert.Equal(t, api.SeverityMedium, none[0].Severity)

	rec := do(t, h, http.MethodGet, "/alerts?severity=urgent", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListRecommendations(t *testing.T) {
	_, h := setup(t, nil)

	got := decode[api.RecommendationList](t, do(t, h, http.MethodGet, "/recommendations?sort=savings", "", ""))

	require.Len(t, got.Items, 3)
	assert.Equal(t, "r1", got.Items[0].ID)
	require.NotNil(t, got.Items[0].PotentialSavings)
	assert.Equal(t, 925.0, *got.Items[0].PotentialSavings)
	require.NotNil(t, got.Items[0].Details)
	assert.NotEmpty(t, got.Items[0].Details.Steps)
	assert.Equal(t, 1345.0, got.TotalSavings)

	rec := do(t, h, http.MethodGet, "/recommendations?sort=title", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInsights(t *testing.T) {
	_, h := setup(t, nil)

	kpis := decode[api.KPIs](t, do(t, h, http.MethodGet, "/insights/kpis", "", ""))
	assert.Equal(t, 6300.0, kpis.Last30DaysSpend)
	assert.Equal(t, 6400.0, kpis.Last90DaysSpend)
	assert.True(t, kpis.OverBudget)
	assert.Equal(t, 3, kpis.AlertCount)
	assert.Equal(t, 1, kpis.HighAlertCount)

	tokens := decode[api.TokenUsage](t, do(t, h, http.MethodGet, "/insights/ai-tokens", "", ""))
	assert.Equal(t, 3_700_000.0, tokens.TotalTokens)
	assert.InDelta(t, 1000.0, tokens.CostPerMillion, 1e-9)
	assert.Equal(t, []api.ServiceTotal{{Service: "OpenAI GPT-4", AmountUSD: 3700}}, tokens.ServiceBreakdown)
}

func TestReplaceEvents_JSON(t *testing.T) {
	s, h := setup(t, nil)
	before := s.Snapshot().Revision
	body := `[
		{"id":"n1","date":"2025-06-30","service":"Cloudflare","amountUsd":200,"category":"Hosting & DevOps","pricingModel":"flat"},
		{"id":"n2","date":"2025-06-30","service":"Cloudflare","amountUsd":-1,"category":"Hosting & DevOps","pricingModel":"flat"}
	]`

	rec := do(t, h, http.MethodPut, "/events", "application/json", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[api.ReplaceResult](t, rec)
	assert.Equal(t, before+1, got.Revision)
	assert.Equal(t, 1, got.Accepted)
	assert.Equal(t, 1, got.Rejected)
	require.Len(t, got.Errors, 1)
	assert.Contains(t, got.Errors[0], "n2")

	assert.Len(t, s.Snapshot().Events, 1)
	assert.Equal(t, "Cloudflare", s.Snapshot().Services[0].Service)
}

func TestReplaceEvents_CSV(t *testing.T) {
	s, h := setup(t, nil)
	body := "id,date,service,amountUsd,category,pricingModel,seats\n" +
		"c1,2025-06-29,GitHub,300,Third-Party Tools,seat,6\n"

	rec := do(t, h, http.MethodPut, "/events", "text/csv; charset=utf-8", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[api.ReplaceResult](t, rec).Accepted)
	seats, ok := s.Snapshot().Events[0].Meta["seats"].Float()
	assert.True(t, ok)
	assert.Equal(t, 6.0, seats)
}

func TestReplaceEvents_EmptyArrayClearsCollection(t *testing.T) {
	s, h := setup(t, nil)

	rec := do(t, h, http.MethodPut, "/events", "application/json", "[]")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, s.Snapshot().Events)
	assert.Empty(t, s.Snapshot().Alerts)
}

func TestReplaceEvents_Rejected(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
	}{
		{"nothing valid", "application/json", `[{"id":"x","date":"2025-06-01","service":"s","amountUsd":1,"category":"Food","pricingModel":"flat"}]`, http.StatusBadRequest},
		{"malformed json", "application/json", `{"id":`, http.StatusBadRequest},
		{"csv without required columns", "text/csv", "id,date\nx,2025-06-01\n", http.StatusBadRequest},
		{"unsupported type", "application/xml", "<events/>", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, h := setup(t, nil)
			before := s.Snapshot()

			rec := do(t, h, http.MethodPut, "/events", tt.contentType, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.NotEmpty(t, decode[api.ErrorResponse](t, rec).Error)
			assert.Same(t, before, s.Snapshot(), "collection must be left untouched")
		})
	}
}

func TestReplaceEvents_Persists(t *testing.T) {
	persister := new(mockPersister)
	persister.On("Replace", mock.Anything, mock.MatchedBy(func(records []store.ExpenseRecord) bool {
		return len(records) == 1 && records[0].ID == "n1"
	})).Return(nil).Once()
	s, h := setup(t, persister)
	body := `[{"id":"n1","date":"2025-06-30","service":"Stripe","amountUsd":5,"category":"Third-Party Tools","pricingModel":"usage"}]`

	rec := do(t, h, http.MethodPut, "/events", "application/json", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, s.Snapshot().Events, 1)
	persister.AssertExpectations(t)
}

func TestReplaceEvents_PersistFailureKeepsSnapshot(t *testing.T) {
	persister := new(mockPersister)
	persister.On("Replace", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	s, h := setup(t, persister)
	before := s.Snapshot()
	body := `[{"id":"n1","date":"2025-06-30","service":"Stripe","amountUsd":5,"category":"Third-Party Tools","pricingModel":"usage"}]`

	rec := do(t, h, http.MethodPut, "/events", "application/json", body)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Same(t, before, s.Snapshot())
}

func TestReplaceEvents_JSONWrongAmountType(t *testing.T) {
	s, h := setup(t, nil)
	body := `[
		{"id":"n1","date":"2025-06-30","service":"Cloudflare","amountUsd":200,"category":"Hosting & DevOps","pricingModel":"flat"},
		{"id":"n2","date":"2025-06-30","service":"Cloudflare","amountUsd":"12.5","category":"Hosting & DevOps","pricingModel":"flat"}
	]`

	rec := do(t, h, http.MethodPut, "/events", "application/json", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[api.ReplaceResult](t, rec)
	assert.Equal(t, 1, got.Accepted)
	assert.Equal(t, 1, got.Rejected)
	require.Len(t, got.Errors, 1)
	assert.Contains(t, got.Errors[0], "item 1")
	require.Len(t, s.Snapshot().Events, 1)
	assert.Equal(t, "n1", s.Snapshot().Events[0].ID)
}

func TestReplaceEvents_ConcurrentPutsStayConsistent(t *testing.T) {
	persister := &blockingPersister{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	s, h := setup(t, persister)
	bodyA := `[{"id":"a1","date":"2025-06-30","service":"Stripe","amountUsd":5,"category":"Third-Party Tools","pricingModel":"usage"}]`
	bodyB := `[{"id":"b1","date":"2025-06-30","service":"Vercel","amountUsd":7,"category":"Hosting & DevOps","pricingModel":"flat"}]`

	var wg sync.WaitGroup
	codes := make([]int, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		codes[0] = do(t, h, http.MethodPut, "/events", "application/json", bodyA).Code
	}()
	<-persister.entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		codes[1] = do(t, h, http.MethodPut, "/events", "application/json", bodyB).Code
	}()
	// Give the second request time to reach the persister if it were not held back.
	time.Sleep(50 * time.Millisecond)
	close(persister.release)
	wg.Wait()

	assert.Equal(t, []int{http.StatusOK, http.StatusOK}, codes)
	assert.Equal(t, 2, persister.calls)
	require.Len(t, persister.last, 1)
	events := s.Snapshot().Events
	require.Len(t, events, 1)
	assert.Equal(t, persister.last[0].ID, events[0].ID)
	assert.Equal(t, "b1", events[0].ID)
}
