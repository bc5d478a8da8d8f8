package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Baduit/Timer/internal/testutil"
	"github.com/Baduit/Timer/metrics"
)

func TestMain(m *testing.M) {
	testutil.MustTestMainWithLeakDetection(m)
}

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// newTestServer returns a server driven by a mock source, shut down when the test ends.
func newTestServer(t *testing.T) (*RESTServer, *testutil.MockSource) {
	t.Helper()
	src := testutil.NewMockSourceAt(epoch)
	s := NewRESTServer(ServerDeps{
		Source:     src,
		Registry:   prometheus.NewRegistry(),
		TickPeriod: time.Second,
	})
	t.Cleanup(func() {
		require.NoError(t, s.Shutdown(context.Background()))
	})
	return s, src
}

func do(s *RESTServer, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createStopwatch(t *testing.T, s *RESTServer, body string) StopwatchView {
	t.Helper()
	w := do(s, http.MethodPost, "/api/stopwatches", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[StopwatchView](t, w)
}

// =============================================================================
// Health and middleware tests
// =============================================================================

func TestHealth(t *testing.T) {
	s, src := newTestServer(t)
	src.SetNow(epoch.Add(90 * time.Second))

	w := do(s, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[map[string]interface{}](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "dev", body["version"])
	assert.Equal(t, "1m30s", body["uptime"])
	assert.Equal(t, float64(90000), body["uptime_ms"])
	assert.Equal(t, float64(0), body["ws_clients"])
	assert.Equal(t, "1s", body["tick_period"])
}

func TestRequestID(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("echoes the caller's id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)

		assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
	})

	t.Run("generates one when missing", func(t *testing.T) {
		w := do(s, http.MethodGet, "/api/health", "")
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewRESTServer(ServerDeps{
		Source:     testutil.NewMockSourceAt(epoch),
		Registry:   reg,
		Metrics:    metrics.NewCollector(reg),
		TickPeriod: time.Second,
	})
	defer func() { require.NoError(t, s.Shutdown(context.Background())) }()

	w := do(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `timer_executors_running{kind="interval"} 1`)
}

// =============================================================================
// Stopwatch tests
// =============================================================================

func TestCreateStopwatch(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("with name", func(t *testing.T) {
		v := createStopwatch(t, s, `{"name":"build"}`)
		assert.Equal(t, "build", v.Name)
		assert.NotEmpty(t, v.ID)
		assert.False(t, v.Paused)
		assert.Equal(t, int64(0), v.ElapsedMs)
		assert.True(t, v.CreatedAt.Equal(epoch))
	})

	t.Run("without body gets a default name", func(t *testing.T) {
		v := createStopwatch(t, s, "")
		assert.Equal(t, "stopwatch-"+v.ID[:8], v.Name)
	})

	t.Run("created paused", func(t *testing.T) {
		v := createStopwatch(t, s, `{"paused":true}`)
		assert.True(t, v.Paused)
	})

	t.Run("malformed body", func(t *testing.T) {
		w := do(s, http.MethodPost, "/api/stopwatches", `{"name":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, ErrMsgInvalidRequest, decode[map[string]string](t, w)["error"])
	})

	t.Run("name too long", func(t *testing.T) {
		w := do(s, http.MethodPost, "/api/stopwatches", `{"name":"`+strings.Repeat("x", 65)+`"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStopwatchLifecycle(t *testing.T) {
	s, src := newTestServer(t)
	v := createStopwatch(t, s, `{"name":"lifecycle"}`)
	path := "/api/stopwatches/" + v.ID

	src.Advance(2 * time.Second)
	w := do(s, http.MethodPost, path+"/pause", "")
	require.Equal(t, http.StatusOK, w.Code)
	v = decode[StopwatchView](t, w)
	assert.True(t, v.Paused)
	assert.Equal(t, int64(2000), v.ElapsedMs)

	// Paused time is not counted.
	src.Advance(5 * time.Second)
	v = decode[StopwatchView](t, do(s, http.MethodGet, path, ""))
	assert.Equal(t, int64(2000), v.ElapsedMs)
	assert.Equal(t, "5s", v.PausedTotal)

	// Pausing twice changes nothing.
	v = decode[StopwatchView](t, do(s, http.MethodPost, path+"/pause", ""))
	assert.Equal(t, int64(2000), v.ElapsedMs)

	w = do(s, http.MethodPost, path+"/resume", "")
	require.Equal(t, http.StatusOK, w.Code)
	src.Advance(time.Second)
	v = decode[StopwatchView](t, do(s, http.MethodGet, path, ""))
	assert.False(t, v.Paused)
	assert.Equal(t, int64(3000), v.ElapsedMs)
	assert.Equal(t, "3s", v.Elapsed)

	v = decode[StopwatchView](t, do(s, http.MethodPost, path+"/reset", ""))
	assert.False(t, v.Paused)
	assert.Equal(t, int64(0), v.ElapsedMs)
	assert.Equal(t, "0s", v.PausedTotal)
}

func TestStopwatchNotFound(t *testing.T) {
	s, _ := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/stopwatches/missing"},
		{http.MethodPost, "/api/stopwatches/missing/pause"},
		{http.MethodPost, "/api/stopwatches/missing/resume"},
		{http.MethodPost, "/api/stopwatches/missing/reset"},
		{http.MethodDelete, "/api/stopwatches/missing"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := do(s, tc.method, tc.path, "")
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.Equal(t, "Stopwatch not found", decode[map[string]string](t, w)["error"])
		})
	}
}

func TestDeleteStopwatch(t *testing.T) {
	s, _ := newTestServer(t)
	v := createStopwatch(t, s, "")

	w := do(s, http.MethodDelete, "/api/stopwatches/"+v.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/api/stopwatches/"+v.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(s, http.MethodDelete, "/api/stopwatches/"+v.ID, "").Code)
}

type listResponse struct {
	Stopwatches []StopwatchView    `json:"stopwatches"`
	Pagination  PaginationResponse `json:"pagination"`
}

func names(views []StopwatchView) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.Name
	}
	return out
}

func TestListStopwatches(t *testing.T) {
	s, src := newTestServer(t)

	empty := decode[listResponse](t, do(s, http.MethodGet, "/api/stopwatches", ""))
	assert.Empty(t, empty.Stopwatches)
	assert.Equal(t, 0, empty.Pagination.Total)

	// carol runs longest, alice shortest.
	createStopwatch(t, s, `{"name":"carol"}`)
	src.Advance(time.Second)
	createStopwatch(t, s, `{"name":"bob"}`)
	src.Advance(time.Second)
	createStopwatch(t, s, `{"name":"alice"}`)
	src.Advance(time.Second)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"carol", "bob", "alice"}},
		{"?sort_by=name", []string{"alice", "bob", "carol"}},
		{"?sort_by=name&sort_order=desc", []string{"carol", "bob", "alice"}},
		{"?sort_by=elapsed", []string{"alice", "bob", "carol"}},
		{"?sort_by=bogus", []string{"carol", "bob", "alice"}},
		{"?limit=2", []string{"carol", "bob"}},
		{"?limit=2&page=2", []string{"alice"}},
		{"?limit=2&page=3", []string{}},
		{"?page=4611686018427387905", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := do(s, http.MethodGet, "/api/stopwatches"+tt.query, "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			resp := decode[listResponse](t, w)
			assert.Equal(t, tt.want, names(resp.Stopwatches))
			assert.Equal(t, 3, resp.Pagination.Total)
		})
	}
}

func TestCreateStopwatch_RateLimited(t *testing.T) {
	s, _ := newTestServer(t)

	for i := 0; i < createBurst; i++ {
		createStopwatch(t, s, "")
	}

	w := do(s, http.MethodPost, "/api/stopwatches", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Reads are not limited.
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/api/stopwatches", "").Code)
}

// =============================================================================
// Lifecycle tests
// =============================================================================

func TestShutdown_WithoutStart(t *testing.T) {
	s := NewRESTServer(ServerDeps{Registry: prometheus.NewRegistry()})
	assert.NoError(t, s.Shutdown(context.Background()))
}

func TestStartAndShutdown(t *testing.T) {
	s := NewRESTServer(ServerDeps{Registry: prometheus.NewRegistry(), TickPeriod: 10 * time.Millisecond})

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start("127.0.0.1:0") }()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.httpServer != nil
	}, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, http.ErrServerClosed), "got %v", err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}
