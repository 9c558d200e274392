package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// handleHealth is the liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.startedAt).Round(time.Second).String(),
	})
}

// handleReady pings the database and reports cache and limiter state.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.db == nil {
		checks["database"] = "not_configured"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else if err := s.db.Ping(ctx); err != nil {
		checks["database"] = fmt.Sprintf("failed: %v", err)
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if s.reports != nil {
		if st := s.reports.CacheStats(); st != nil {
			checks["report_cache"] = st
		}
	}
	checks["rate_limiter"] = s.rateLimiter.GetMetrics()

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics renders counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	tm := s.traceMiddleware.GetMetrics()
	rl := s.rateLimiter.GetMetrics()
	ll := s.loginLimiter.GetMetrics()
	sec := s.securityDetector.GetMetrics()
	m := s.appMetrics

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", tm.TotalRequests)
	metric("http_client_errors_total", "counter", "Responses with a 4xx status", tm.ClientErrors)
	metric("http_server_errors_total", "counter", "Responses with a 5xx status", tm.ServerErrors)
	metric("http_response_time_avg_ms", "gauge", "Average response time in milliseconds", tm.AverageResponseTime.Milliseconds())
	metric("transactions_created_total", "counter", "Transactions added", m.transactionsCreated.Load())
	metric("transactions_deleted_total", "counter", "Transactions deleted", m.transactionsDeleted.Load())
	metric("logins_total", "counter", "Successful logins", m.logins.Load())
	metric("login_failures_total", "counter", "Rejected login attempts", m.failedLogins.Load())
	metric("signups_total", "counter", "Registered accounts", m.signups.Load())

	if s.reports != nil {
		if st := s.reports.CacheStats(); st != nil {
			metric("report_cache_entries", "gauge", "Cached report aggregates", st.Size)
			metric("report_cache_hits_total", "counter", "Report cache hits", st.Hits)
			metric("report_cache_misses_total", "counter", "Report cache misses", st.Misses)
			metric("report_cache_evictions_total", "counter", "Report cache evictions", st.Evictions)
		}
	}

	fmt.Fprintf(w, "# HELP rate_limit_rejected_total Requests rejected by a rate limiter\n# TYPE rate_limit_rejected_total counter\n")
	fmt.Fprintf(w, "rate_limit_rejected_total{limiter=\"global\"} %d\n", rl.Rejected)
	fmt.Fprintf(w, "rate_limit_rejected_total{limiter=\"auth\"} %d\n\n", ll.Rejected)

	metric("rate_limit_active_clients", "gauge", "Clients tracked by the global limiter", rl.ClientCount)
	metric("suspicious_requests_total", "counter", "Requests flagged by the probe detector", sec.SuspiciousRequests)
	metric("uptime_seconds", "gauge", "Seconds since start", int64(time.Since(m.startedAt).Seconds()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
