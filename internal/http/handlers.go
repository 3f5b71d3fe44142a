package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	applog "spendlog/internal/log"
)

// appMetrics counts domain events for /metrics.
type appMetrics struct {
	uptime   time.Time
	created  int64
	replayed int64
	updated  int64
	deleted  int64
}

func newAppMetrics() *appMetrics {
	return &appMetrics{uptime: time.Now()}
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	}).Write(w)
}

// handleReady reports whether the store answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{"storage": "ok"}
	if err := s.svc.Ping(ctx); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeDatabase)
		status, code = "not_ready", http.StatusServiceUnavailable
		checks["storage"] = "unavailable"
	}

	NewResponse().Status(code).JSON(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := s.svc.Categories()
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = string(c)
	}
	NewResponse().JSON(out).Write(w)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, applog.OpStats, err)
		return
	}
	NewResponse().JSON(toStatsJSON(stats)).Write(w)
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	var cacheHits, cacheMisses uint64
	cacheEntries := 0
	if c := s.svc.StatsCache(); c != nil {
		cacheHits, cacheMisses = c.Stats()
		cacheEntries = c.Size()
	}
	var limitHits int64
	activeClients := 0
	if s.limiter != nil {
		m := s.limiter.GetMetrics()
		limitHits, activeClients = m.TotalHits, int(m.ClientCount)
	}

	var b metricsWriter
	b.counter("http_requests_total", "Total number of HTTP requests", traceMetrics.TotalRequests)
	b.counter("http_client_errors_total", "Responses with a 4xx status", traceMetrics.ClientErrors)
	b.counter("http_server_errors_total", "Responses with a 5xx status", traceMetrics.ServerErrors)
	b.gauge("http_response_time_avg_ms", "Average response time in milliseconds", float64(traceMetrics.AverageResponseTime.Microseconds())/1000)
	b.counter("expenses_created_total", "Expenses created", atomic.LoadInt64(&s.appMetrics.created))
	b.counter("expenses_idempotent_replays_total", "Creates answered with an existing record", atomic.LoadInt64(&s.appMetrics.replayed))
	b.counter("expenses_updated_total", "Expenses updated", atomic.LoadInt64(&s.appMetrics.updated))
	b.counter("expenses_deleted_total", "Expenses deleted", atomic.LoadInt64(&s.appMetrics.deleted))
	b.counter("stats_cache_hits_total", "Stats cache hits", int64(cacheHits))
	b.counter("stats_cache_misses_total", "Stats cache misses", int64(cacheMisses))
	b.gauge("stats_cache_entries", "Current stats cache entries", float64(cacheEntries))
	b.counter("rate_limit_hits_total", "Total rate limit hits", limitHits)
	b.gauge("active_rate_limit_clients", "Currently tracked rate limit clients", float64(activeClients))
	b.counter("suspicious_requests_total", "Total suspicious requests detected", s.detector.SuspiciousRequests())
	b.gauge("uptime_seconds", "Application uptime in seconds", time.Since(s.appMetrics.uptime).Seconds())

	NewResponse().Text(b.String()).Write(w)
}

// metricsWriter renders the Prometheus text exposition format.
type metricsWriter struct {
	buf []byte
}

func (m *metricsWriter) counter(name, help string, v int64) {
	m.buf = fmt.Appendf(m.buf, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", name, help, name, name, v)
}

func (m *metricsWriter) gauge(name, help string, v float64) {
	m.buf = fmt.Appendf(m.buf, "# HELP %s %s\n# TYPE %s gauge\n%s %g\n\n", name, help, name, name, v)
}

func (m *metricsWriter) String() string {
	return string(m.buf)
}
