package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellwatch/cellwatch/pkg/config"
	"github.com/cellwatch/cellwatch/pkg/monitor"
	"github.com/cellwatch/cellwatch/pkg/types"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()

	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, cfg.Validate())

	return NewServer(monitor.New(cfg), "test")
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestIngest(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(s, http.MethodPost, "/v1/events",
		`{"type":"range-changed","source":"office-js","affected_ranges":["B2:D10"],"worksheet":"Sheet1"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp IngestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Admitted)
	assert.NotEmpty(t, resp.EventID)
}

func TestIngest_BadRequest(t *testing.T) {
	s := newTestServer(t, nil)

	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodPost, "/v1/events", `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodPost, "/v1/events", `{"source":"x"}`).Code)
}

func TestIngest_RateLimited(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.MaxEventsPerSecond = 1
	})

	body := `{"type":"range-changed","source":"test"}`
	require.Equal(t, http.StatusAccepted, do(s, http.MethodPost, "/v1/events", body).Code)

	w := do(s, http.MethodPost, "/v1/events", body)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp IngestResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Admitted)
}

func TestEvents(t *testing.T) {
	s := newTestServer(t, nil)

	do(s, http.MethodPost, "/v1/events", `{"type":"range-changed","source":"test"}`)
	do(s, http.MethodPost, "/v1/events", `{"type":"formula-changed","source":"test"}`)

	w := do(s, http.MethodGet, "/v1/events", "")
	require.Equal(t, http.StatusOK, w.Code)

	var events []*types.Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 2)
	assert.Equal(t, types.EventFormulaChanged, events[0].Type, "most recent event first")

	w = do(s, http.MethodGet, "/v1/events?type=range-changed&limit=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, types.EventRangeChanged, events[0].Type)
}

func TestEvents_EmptyHistory(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(s, http.MethodGet, "/v1/events", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]\n", w.Body.String())
}

func TestEvents_BadParams(t *testing.T) {
	s := newTestServer(t, nil)

	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/v1/events?limit=abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/v1/events?since=yesterday", "").Code)
}

func TestStats(t *testing.T) {
	s := newTestServer(t, nil)

	do(s, http.MethodPost, "/v1/events", `{"type":"range-changed","source":"test"}`)

	w := do(s, http.MethodGet, "/v1/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var stats types.Statistics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalEvents)
	assert.Equal(t, 1, stats.EventsByType[types.EventRangeChanged])
}

func TestExport(t *testing.T) {
	s := newTestServer(t, nil)

	do(s, http.MethodPost, "/v1/events", `{"type":"range-changed","source":"test"}`)

	w := do(s, http.MethodGet, "/v1/export", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snapshot map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snapshot))
	assert.Contains(t, snapshot, "config")
	assert.Contains(t, snapshot, "statistics")
	assert.Contains(t, snapshot, "history")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.False(t, health.Initialized)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cellwatch_")
}
