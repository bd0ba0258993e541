package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOpsRouter(t *testing.T, opts ...APIOption) (*httprouter.Router, *APIHandler) {
	t.Helper()
	config := &Config{OpsEndpointsEnable: true, Redis: RedisConfig{Password: "secret"}}
	clock := NewMockClocker()
	storage := NewMemoryBookStorage(zap.NewNop(), SeedBooks(clock.Now()))
	bs := NewBookService(zap.NewNop(), clock, storage, nil)
	api := NewAPIHandler(zap.NewNop(), config, &Statistics{started: clock.Now(), version: "v1.2.3"}, clock, NewMockUIDHandler("abc", false), bs, opts...)
	public, ops := api.MiddlewaresStacks()
	router := api.SetupRoutes(httprouter.New(), &MiddlewareMap{public: public.Chain, ops: ops.Chain})
	return router, api
}

// TestGetStatistics ensures stats count requests and their status codes without the ops call itself.
func TestGetStatistics(t *testing.T) {
	router, _ := newTestOpsRouter(t)
	for _, path := range []string{"/api/books/1", "/api/books/unknown", "/health"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	code, resp := doRequest(t, router, http.MethodGet, "/ops/stats", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "r:abc", resp["requestid"])
	assert.Equal(t, "v1.2.3", resp["app.version"])
	assert.Equal(t, float64(3), resp["called"])
	assert.Equal(t, map[string]interface{}{"200": float64(2), "404": float64(1)}, resp["status"])
}

// TestGetConfigs ensures the in-use settings are served without secrets.
func TestGetConfigs(t *testing.T) {
	router, _ := newTestOpsRouter(t)
	code, resp := doRequest(t, router, http.MethodGet, "/ops/configs", "")
	require.Equal(t, http.StatusOK, code)
	configs, ok := resp["configs"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, configs["OpsEndpointsEnable"])
	redis, ok := configs["Redis"].(map[string]interface{})
	require.True(t, ok)
	assert.NotContains(t, redis, "Password")
}

// TestGetJournal ensures the journal endpoint serves the latest events.
func TestGetJournal(t *testing.T) {
	t.Run("disabled journal", func(t *testing.T) {
		router, _ := newTestOpsRouter(t)
		code, resp := doRequest(t, router, http.MethodGet, "/ops/journal", "")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "journal is disabled", resp["error"])
	})

	journal := &MockJournalStorage{Events: []CatalogEvent{
		{Kind: CreateQueue, BookID: "1"},
		{Kind: UpdateQueue, BookID: "1"},
		{Kind: DeleteQueue, BookID: "1"},
	}}
	router, _ := newTestOpsRouter(t, WithJournal(journal))

	t.Run("default limit", func(t *testing.T) {
		code, resp := doRequest(t, router, http.MethodGet, "/ops/journal", "")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(3), resp["total"])
		events := resp["events"].([]interface{})
		assert.Equal(t, DeleteQueue, events[0].(map[string]interface{})["kind"])
	})

	t.Run("custom limit", func(t *testing.T) {
		code, resp := doRequest(t, router, http.MethodGet, "/ops/journal?limit=1", "")
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(1), resp["total"])
	})

	t.Run("invalid limit", func(t *testing.T) {
		code, resp := doRequest(t, router, http.MethodGet, "/ops/journal?limit=zero", "")
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "zero", resp["value"])
	})
}

// TestPrometheusEndpoint ensures catalog gauges are computed at scrape time.
func TestPrometheusEndpoint(t *testing.T) {
	var bs BookServiceProvider
	metrics := NewPromMetrics(func() CatalogSummary {
		summary, _ := bs.Summary(context.Background())
		return summary
	})
	router, api := newTestOpsRouter(t, WithPromMetrics(metrics))
	bs = api.bookService

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ops/prometheus", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bookstore_catalog_books 3")
	assert.Contains(t, w.Body.String(), "bookstore_catalog_stock 35")
}

// TestGetMemStats ensures expvar variables are served with the goroutines count.
func TestGetMemStats(t *testing.T) {
	router, _ := newTestOpsRouter(t)
	code, resp := doRequest(t, router, http.MethodGet, "/ops/debug/vars", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, resp, "memstats")
	assert.Greater(t, resp["goroutines"], float64(0))
}

// TestGetJournal_Failure ensures journal read failures are reported as internal errors.
func TestGetJournal_Failure(t *testing.T) {
	router, _ := newTestOpsRouter(t, WithJournal(failingJournal{}))
	code, resp := doRequest(t, router, http.MethodGet, "/ops/journal", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, MsgInternalError, resp["error"])
}

type failingJournal struct{}

func (failingJournal) Append(context.Context, CatalogEvent) error { return errors.New("closed") }

func (failingJournal) Latest(context.Context, int) ([]CatalogEvent, error) {
	return nil, errors.New("closed")
}

func (failingJournal) Close() error { return nil }
