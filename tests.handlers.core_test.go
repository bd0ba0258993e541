package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestIndexHandler ensures the banner lists the main endpoints.
func TestIndexHandler(t *testing.T) {
	router, _ := newTestCatalog(t, "x")
	code, resp := doRequest(t, router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Welcome to the Bookstore API", resp["message"])
	assert.Equal(t, DefaultVersion, resp["version"])
	assert.Equal(t, "2023-07-02T00:00:00Z", resp["timestamp"])
	assert.Equal(t, map[string]interface{}{
		"books":   "/api/books",
		"health":  "/health",
		"metrics": "/metrics",
	}, resp["endpoints"])
}

// TestHealthHandler ensures health reports status, uptime and environment.
func TestHealthHandler(t *testing.T) {
	clock := NewMockClocker()
	stats := &Statistics{started: clock.Now().Add(-90 * time.Second)}
	api := NewAPIHandler(zap.NewNop(), &Config{Environment: "staging"}, stats, clock, NewMockUIDHandler("x", true), nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	api.Health(w, req, httprouter.Params{})

	code, resp := w.Code, decodeMap(t, w)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", resp["status"])
	assert.Equal(t, float64(90), resp["uptime"])
	assert.Equal(t, "staging", resp["environment"])
	assert.Equal(t, "2023-07-02T00:00:00Z", resp["timestamp"])
	memory, ok := resp["memory"].(map[string]interface{})
	require.True(t, ok)
	assert.Greater(t, memory["sys"], float64(0))
}

// TestMetricsHandler ensures catalog aggregates are computed on current state.
func TestMetricsHandler(t *testing.T) {
	t.Run("seeded catalog", func(t *testing.T) {
		router, _ := newTestCatalog(t, "x")
		code, resp := doRequest(t, router, http.MethodGet, "/metrics", "")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(3), resp["totalBooks"])
		assert.Equal(t, float64(35), resp["totalStock"])
		assert.InDelta(t, (29.99+39.99+34.99)/3, resp["averagePrice"], 1e-9)
		assert.Equal(t, []interface{}{"Technology"}, resp["genres"])
		assert.NotNil(t, resp["memoryUsage"])
		assert.NotNil(t, resp["uptime"])
	})

	t.Run("empty catalog", func(t *testing.T) {
		router, _ := newTestCatalog(t, "x")
		for _, id := range []string{"1", "2", "3"} {
			code, _ := doRequest(t, router, http.MethodDelete, "/api/books/"+id, "")
			require.Equal(t, http.StatusOK, code)
		}
		code, resp := doRequest(t, router, http.MethodGet, "/metrics", "")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, float64(0), resp["totalBooks"])
		assert.Equal(t, float64(0), resp["averagePrice"])
		assert.Equal(t, []interface{}{}, resp["genres"])
	})

	t.Run("storage failure", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			GetAllFunc: func(ctx context.Context) ([]Book, error) {
				return nil, errors.New("storage failure")
			},
		}
		clock := NewMockClocker()
		bs := NewBookService(zap.NewNop(), clock, mockRepo, nil)
		api := NewAPIHandler(zap.NewNop(), nil, &Statistics{started: clock.Now()}, clock, NewMockUIDHandler("x", true), bs)
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		w := httptest.NewRecorder()
		api.Metrics(w, req, httprouter.Params{})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Something went wrong!", decodeMap(t, w)["error"])
	})
}

// TestRouteNotFound ensures unknown paths and methods get the structured 404.
func TestRouteNotFound(t *testing.T) {
	router, _ := newTestCatalog(t, "x")
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/unknown"},
		{http.MethodGet, "/api/authors"},
		{http.MethodPatch, "/api/books/1"},
		{http.MethodPost, "/health"},
		{http.MethodGet, "/unknown?format=json&page=2"},
	} {
		code, resp := doRequest(t, router, tc.method, tc.path, "")
		assert.Equal(t, http.StatusNotFound, code, tc.path)
		assert.Equal(t, "Route not found", resp["error"])
		assert.Equal(t, tc.path, resp["path"])
		assert.Equal(t, "2023-07-02T00:00:00Z", resp["timestamp"])
	}
}

// TestPreflight ensures OPTIONS requests on known routes are answered with 204.
func TestPreflight(t *testing.T) {
	router, _ := newTestCatalog(t, "x")
	req := httptest.NewRequest(http.MethodOptions, "/api/books", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Allow"), http.MethodPost)
}

// TestWriteResponse_ContextDone ensures cancelled and timed out requests are tagged.
func TestWriteResponse_ContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := httptest.NewRecorder()
	err := WriteResponse(ctx, w, http.StatusOK, map[string]string{"k": "v"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 499, w.Code)
	assert.Empty(t, w.Body.String())

	tctx, tcancel := context.WithTimeout(context.Background(), -time.Second)
	defer tcancel()
	w = httptest.NewRecorder()
	err = WriteErrorResponse(tctx, w, NewAPIError("r:1", http.StatusNotFound, MsgBookNotFound, nil))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

// TestAPIError_MarshalJSON ensures details are flattened next to the error message.
func TestAPIError_MarshalJSON(t *testing.T) {
	w := httptest.NewRecorder()
	err := WriteErrorResponse(context.Background(), w, NewAPIError("r:1", http.StatusBadRequest, MsgInsufficientStock, map[string]interface{}{
		"available": 15,
		"requested": 20,
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Insufficient stock","requestid":"r:1","available":15,"requested":20}`, w.Body.String())
}

// decodeMap decodes the json body of a recorded response.
func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	m := make(map[string]interface{})
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}
