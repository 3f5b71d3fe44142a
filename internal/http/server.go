// Package http serves the expense REST API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"spendlog/internal/cache"
	"spendlog/internal/core"
	applog "spendlog/internal/log"
	"spendlog/internal/middleware/ratelimit"
	"spendlog/internal/middleware/security"
	"spendlog/internal/middleware/trace"
	"spendlog/internal/services"
)

// Options tunes the server. Zero page sizes fall back to the core defaults;
// a zero RateLimitPerMinute disables write throttling.
type Options struct {
	DefaultPageSize      int
	MaxPageSize          int
	RateLimitPerMinute   int
	CacheCleanupInterval time.Duration
	Logger               *applog.Logger
}

type Server struct {
	http.Server

	svc    *services.ExpenseService
	logger *applog.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	caches   *cache.Manager

	defaultPageSize int
	maxPageSize     int

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *services.ExpenseService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	if opts.MaxPageSize < 1 {
		opts.MaxPageSize = core.MaxPageSize
	}
	if opts.DefaultPageSize < 1 || opts.DefaultPageSize > opts.MaxPageSize {
		opts.DefaultPageSize = min(core.DefaultPageSize, opts.MaxPageSize)
	}
	if opts.CacheCleanupInterval <= 0 {
		opts.CacheCleanupInterval = 10 * time.Minute
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		svc:             svc,
		logger:          logger,
		detector:        security.NewDetector(logger),
		caches:          cache.NewManager(),
		defaultPageSize: opts.DefaultPageSize,
		maxPageSize:     opts.MaxPageSize,
		appMetrics:      newAppMetrics(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, logger)
	if opts.RateLimitPerMinute > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
	}

	if statsCache := svc.StatsCache(); statsCache != nil {
		s.caches.Register(statsCache)
		s.caches.StartCleanup(opts.CacheCleanupInterval)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /expenses", s.limitWrites(http.HandlerFunc(s.handleCreateExpense)))
	mux.HandleFunc("GET /expenses", s.handleListExpenses)
	mux.HandleFunc("GET /expenses/export", s.handleExportExpenses)
	mux.HandleFunc("GET /expenses/{id}", s.handleGetExpense)
	mux.Handle("PUT /expenses/{id}", s.limitWrites(http.HandlerFunc(s.handleUpdateExpense)))
	mux.Handle("DELETE /expenses/{id}", s.limitWrites(http.HandlerFunc(s.handleDeleteExpense)))
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /categories", s.handleCategories)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	var handler http.Handler = mux
	handler = applog.RequestIDMiddleware(trace.RequestIDFrom)(handler)
	handler = applog.Middleware(logger)(handler)
	handler = s.detector.Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	s.Handler = handler

	return s
}

// limitWrites applies the per-client rate limit when it is enabled.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})(next)
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
