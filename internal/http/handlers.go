package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ledger/internal/core"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": s.deps.Clock().Format(time.RFC3339),
		"uptime":    s.deps.Clock().Sub(s.started).String(),
	}).Write(w)
}

// handleReady checks the store when it can be pinged
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]any{
		"rate_limiter": map[string]any{"active_clients": s.limiter.ActiveClients()},
	}

	switch {
	case s.deps.Pinger == nil:
		checks["store"] = "not_pingable"
	default:
		if err := s.deps.Pinger.Ping(ctx); err != nil {
			checks["store"] = fmt.Sprintf("failed: %v", err)
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}

	NewJSONResponse().Status(code).Body(map[string]any{
		"status":    status,
		"timestamp": s.deps.Clock().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics provides request and security counters in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	rl := s.limiter.GetMetrics()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, help, kind string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "Total number of HTTP requests", "counter", tm.TotalRequests)
	metric("http_server_errors_total", "Responses with a 5xx status", "counter", tm.ServerErrors)
	metric("rate_limit_hits_total", "Total rate limit hits", "counter", rl.TotalHits)
	metric("active_rate_limit_clients", "Currently tracked rate limit clients", "gauge", rl.ClientCount)
	metric("suspicious_requests_total", "Total suspicious requests detected", "counter", s.detector.SuspiciousRequests())
	metric("uptime_seconds", "Application uptime in seconds", "gauge", int64(s.deps.Clock().Sub(s.started).Seconds()))
}

func (s *Server) handleSuggestedCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{"categories": core.SuggestedCategories}).Write(w)
}
