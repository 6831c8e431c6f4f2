package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/de-tools/spend-atlas/pkg/models/api"
	"github.com/de-tools/spend-atlas/pkg/models/domain"
	"github.com/de-tools/spend-atlas/pkg/services/budget"
	"github.com/de-tools/spend-atlas/pkg/services/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)

type mockAnalytics struct {
	mock.Mock
}

func (m *mockAnalytics) Snapshot() *domain.Snapshot {
	args := m.Called()
	return args.Get(0).(*domain.Snapshot)
}

func (m *mockAnalytics) FilteredEvents(days int) []domain.ExpenseEvent {
	args := m.Called(days)
	return args.Get(0).([]domain.ExpenseEvent)
}

func (m *mockAnalytics) ReplaceEvents(events []domain.ExpenseEvent) *domain.Snapshot {
	args := m.Called(events)
	return args.Get(0).(*domain.Snapshot)
}

func (m *mockAnalytics) Budgets() *budget.Registry {
	return budget.Default()
}

func (m *mockAnalytics) Clock() session.Clock {
	return session.FixedClock(now)
}

func TestWebAPI_Endpoints(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	analytics := new(mockAnalytics)

	day, _ := time.Parse("2006-01-02", "2025-06-13")
	events := []domain.ExpenseEvent{{
		ID:           "exp-1",
		Date:         day,
		Service:      "AWS EC2",
		AmountUSD:    812.5,
		Category:     domain.CategoryInfrastructure,
		PricingModel: domain.PricingUsage,
	}}
	snapshot := &domain.Snapshot{
		Revision:        3,
		Events:          events,
		Daily:           []domain.DailyTotal{{Date: "2025-06-13", AmountUSD: 812.5}},
		MonthProjection: 24375,
		TotalBudget:     27000,
	}
	analytics.On("Snapshot").Return(snapshot)
	analytics.On("FilteredEvents", 7).Return(events)

	router := ConfigureRouter(Config{
		Addr:            ":8080",
		ShutdownTimeout: 10 * time.Second,
		Dependencies: Dependencies{
			Analytics: analytics,
			Logger:    logger,
		},
	})
	testServer := httptest.NewServer(router)
	defer testServer.Close()

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expected       interface{}
		parseResponse  func([]byte) (interface{}, error)
	}{
		{
			name:           "Forecast",
			path:           "/api/v1/forecast",
			expectedStatus: http.StatusOK,
			expected:       api.Forecast{MonthProjection: 24375, TotalBudget: 27000},
			parseResponse:  unmarshalResponse[api.Forecast](),
		},
		{
			name:           "Daily",
			path:           "/api/v1/aggregates/daily",
			expectedStatus: http.StatusOK,
			expected:       []api.DailyTotal{{Date: "2025-06-13", AmountUSD: 812.5}},
			parseResponse:  unmarshalResponse[[]api.DailyTotal](),
		},
		{
			name:           "FilteredEvents",
			path:           "/api/v1/events?days=7",
			expectedStatus: http.StatusOK,
			expected: []api.ExpenseEvent{{
				ID:           "exp-1",
				Date:         "2025-06-13T00:00:00Z",
				Service:      "AWS EC2",
				AmountUSD:    812.5,
				Category:     "Infrastructure",
				PricingModel: "usage",
			}},
			parseResponse: unmarshalResponse[[]api.ExpenseEvent](),
		},
		{
			name:           "FilteredEvents_InvalidDays",
			path:           "/api/v1/events?days=-3",
			expectedStatus: http.StatusBadRequest,
			expected: api.ErrorResponse{
				Error: "invalid 'days' parameter. Expected a positive integer",
			},
			parseResponse: unmarshalResponse[api.ErrorResponse](),
		},
		{
			name:           "Health",
			path:           "/healthz",
			expectedStatus: http.StatusOK,
			expected:       "",
			parseResponse: func(data []byte) (interface{}, error) {
				return string(data), nil
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(testServer.URL + tc.path)
			require.NoError(t, err, "Failed to send request")
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatus, resp.StatusCode, "Status code mismatch")
			assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err, "Failed to read response body")

			actual, err := tc.parseResponse(body)
			require.NoError(t, err, "Failed to parse response")

			assert.Equal(t, tc.expected, actual)
		})
	}

	analytics.AssertExpectations(t)
}

func TestWebAPI_RecoversFromPanics(t *testing.T) {
	analytics := new(mockAnalytics)
	analytics.On("Snapshot").Run(func(mock.Arguments) { panic("boom") }).Return((*domain.Snapshot)(nil))

	router := ConfigureRouter(Config{Dependencies: Dependencies{Analytics: analytics, Logger: zerolog.Nop()}})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/snapshot", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWebAPI_StartStopsOnContextCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	w := NewWebAPI(Config{
		Addr:            addr,
		ShutdownTimeout: time.Second,
		Dependencies:    Dependencies{Analytics: new(mockAnalytics), Logger: zerolog.Nop()},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func unmarshalResponse[T any]() func([]byte) (interface{}, error) {
	return func(data []byte) (interface{}, error) {
		var response T
		err := json.Unmarshal(data, &response)
		return response, err
	}
}
