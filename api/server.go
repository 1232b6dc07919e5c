// Package api - Thin HTTP layer over the quoting service.
// The API only decodes requests, calls the quoting service and serializes
// results. It never performs cost logic.
package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"opticost/adapters/logistics"
	"opticost/adapters/ratesheet"
	"opticost/core/types"
	"opticost/internal/logging"
	"opticost/internal/metrics"
	"opticost/internal/quoting"
)

// DefaultMaxBodyBytes limits request bodies when no limit is configured
const DefaultMaxBodyBytes = 1 << 20

// Options configures a Server
type Options struct {
	Version string

	// Provider looks up logistics for jobs that carry none
	Provider logistics.Provider
	APIKey   string

	// ExternalPolicy overrides the rate tables' external crew policy
	ExternalPolicy types.ExternalPolicy

	MaxBodyBytes int64
}

// Server is the API server
type Server struct {
	router  chi.Router
	quoter  quoting.Service
	version string
	maxBody int64

	mu     sync.RWMutex
	tables *ratesheet.Tables
}

// NewServer creates a server quoting against tables
func NewServer(tables *ratesheet.Tables, opts Options) *Server {
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	s := &Server{
		router: chi.NewRouter(),
		quoter: quoting.Service{
			Provider: opts.Provider,
			APIKey:   opts.APIKey,
			Policy:   opts.ExternalPolicy,
		},
		version: opts.Version,
		maxBody: maxBody,
		tables:  tables,
	}
	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes
func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Post("/quote", s.handleQuote)
	r.Post("/quote/{format}", s.handleQuoteFormat)
	r.Get("/rates", s.handleRates)

	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
}

// SetTables swaps the rate tables used by subsequent requests
func (s *Server) SetTables(tables *ratesheet.Tables) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = tables
}

// Tables returns the rate tables currently in use
func (s *Server) Tables() *ratesheet.Tables {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestLogger logs one line per request
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logging.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
