package main

import (
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// Statistics holds app stats for ops.
type Statistics struct {
	version   string
	container bool
	runtime   string
	platform  string
	called    uint64
	started   time.Time
	status    map[int]uint64
	mu        *sync.RWMutex
}

// record increments the counter of the given response status code.
func (s *Statistics) record(code int) {
	s.mu.Lock()
	s.status[code]++
	s.mu.Unlock()
}

// APIHandler defines the API handler.
type APIHandler struct {
	logger      *zap.Logger
	config      *Config
	stats       *Statistics
	clock       Clocker
	idsHandler  UIDHandler
	bookService BookServiceProvider
	limiter     RateLimiter
	metrics     *PromMetrics
	journal     JournalStorage
}

// APIOption configures optional components of the APIHandler.
type APIOption func(*APIHandler)

// WithRateLimiter enables the per client rate limiting.
func WithRateLimiter(rl RateLimiter) APIOption {
	return func(api *APIHandler) {
		api.limiter = rl
	}
}

// WithPromMetrics enables the prometheus instrumentation.
func WithPromMetrics(m *PromMetrics) APIOption {
	return func(api *APIHandler) {
		api.metrics = m
	}
}

// WithJournal exposes the catalog events journal to ops users.
func WithJournal(j JournalStorage) APIOption {
	return func(api *APIHandler) {
		api.journal = j
	}
}

// NewAPIHandler provides a new instance of APIHandler.
func NewAPIHandler(logger *zap.Logger, config *Config, stats *Statistics, clock Clocker, idsHandler UIDHandler, bs BookServiceProvider, opts ...APIOption) *APIHandler {
	if config == nil {
		config = &Config{}
	}
	stats.status = make(map[int]uint64)
	stats.mu = &sync.RWMutex{}
	api := &APIHandler{
		logger:      logger,
		config:      config,
		stats:       stats,
		clock:       clock,
		idsHandler:  idsHandler,
		bookService: bs,
	}
	for _, opt := range opts {
		opt(api)
	}
	return api
}

// uptime returns the number of seconds elapsed since the app started.
func (api *APIHandler) uptime() float64 {
	return api.clock.Now().Sub(api.stats.started).Seconds()
}

// environment returns the configured deployment environment.
func (api *APIHandler) environment() string {
	if api.config.Environment == "" {
		return "development"
	}
	return api.config.Environment
}

func (api *APIHandler) version() string {
	if api.stats.version == "" {
		return DefaultVersion
	}
	return api.stats.version
}

// MemoryUsage is a snapshot of the process memory in bytes.
type MemoryUsage struct {
	Sys        uint64 `json:"sys"`
	HeapAlloc  uint64 `json:"heapAlloc"`
	HeapSys    uint64 `json:"heapSys"`
	HeapInuse  uint64 `json:"heapInuse"`
	TotalAlloc uint64 `json:"totalAlloc"`
	NumGC      uint32 `json:"numGC"`
}

func readMemoryUsage() MemoryUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemoryUsage{
		Sys:        m.Sys,
		HeapAlloc:  m.HeapAlloc,
		HeapSys:    m.HeapSys,
		HeapInuse:  m.HeapInuse,
		TotalAlloc: m.TotalAlloc,
		NumGC:      m.NumGC,
	}
}

// Index serves the service banner with the list of main endpoints.
func (api *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	resp := map[string]interface{}{
		"message": "Welcome to the Bookstore API",
		"version": api.version(),
		"endpoints": map[string]string{
			"books":   "/api/books",
			"health":  "/health",
			"metrics": "/metrics",
		},
		"timestamp": api.clock.Now().UTC(),
	}
	if err := WriteResponse(r.Context(), w, http.StatusOK, resp); err != nil {
		api.logger.Error("failed to send index response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// Health reports the liveness of the service with some diagnostics.
func (api *APIHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	resp := map[string]interface{}{
		"status":      "healthy",
		"uptime":      api.uptime(),
		"timestamp":   api.clock.Now().UTC(),
		"memory":      readMemoryUsage(),
		"environment": api.environment(),
	}
	if err := WriteResponse(r.Context(), w, http.StatusOK, resp); err != nil {
		api.logger.Error("failed to send health response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// Metrics serves the catalog aggregates computed on the current state.
func (api *APIHandler) Metrics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	summary, err := api.bookService.Summary(r.Context())
	if err != nil {
		api.logger.Error("failed to compute catalog metrics", zap.String("request.id", requestID), zap.Error(err))
		api.sendError(w, r, NewAPIError(requestID, http.StatusInternalServerError, MsgInternalError, nil))
		return
	}
	resp := map[string]interface{}{
		"totalBooks":   summary.TotalBooks,
		"totalStock":   summary.TotalStock,
		"averagePrice": summary.AveragePrice,
		"genres":       summary.Genres,
		"uptime":       api.uptime(),
		"memoryUsage":  readMemoryUsage(),
		"timestamp":    api.clock.Now().UTC(),
	}
	if err = WriteResponse(r.Context(), w, http.StatusOK, resp); err != nil {
		api.logger.Error("failed to send metrics response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// RouteNotFound replies to requests made on unknown paths.
func (api *APIHandler) RouteNotFound(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	api.sendError(w, r, NewAPIError(requestID, http.StatusNotFound, "Route not found", map[string]interface{}{
		"path":      r.URL.RequestURI(),
		"timestamp": api.clock.Now().UTC(),
	}))
}

// Preflight answers the cross-origin preflight requests. The cors
// headers are added by the CORSMiddleware.
func (api *APIHandler) Preflight(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusNoContent)
}

// sendError writes the error response and logs a failure to do so.
func (api *APIHandler) sendError(w http.ResponseWriter, r *http.Request, errResp *APIError) {
	if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
		api.logger.Error("failed to send error response", zap.String("request.id", errResp.RequestID), zap.Error(err))
	}
}
