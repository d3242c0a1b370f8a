package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
	"ledger/internal/services"
)

// Pinger is implemented by stores that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the API serves from.
type Deps struct {
	Transactions *services.TransactionService
	Views        *services.LedgerViewBuilder
	Aggregator   *services.Aggregator
	Summarizer   *services.Summarizer
	Reports      *services.CategoryReportService
	// Pinger is optional; when nil readiness does not check the store.
	Pinger        Pinger
	Clock         services.Clock
	TopCategories int
}

// Options tune the HTTP middleware.
type Options struct {
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	deps     Deps
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	started  time.Time

	shutdownOnce sync.Once
}

func NewServer(addr string, deps Deps, opts Options, logger *log.Logger) *Server {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.TopCategories <= 0 {
		deps.TopCategories = services.DefaultTopCategories
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		deps:     deps,
		logger:   logger,
		detector: security.NewDetector(logger),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
			Methods:           ratelimit.MutatingMethods,
		}),
		started: deps.Clock(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/categories/suggested", s.handleSuggestedCategories)
	mux.HandleFunc("GET /api/owners/{owner}/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/owners/{owner}/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PUT /api/owners/{owner}/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/owners/{owner}/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /api/owners/{owner}/categories", s.handleCategoryReport)
	mux.HandleFunc("GET /api/owners/{owner}/buckets", s.handleBuckets)
	mux.HandleFunc("GET /api/owners/{owner}/summary", s.handleSummary)
	mux.HandleFunc("GET /api/owners/{owner}/balance-curve", s.handleBalanceCurve)
	mux.HandleFunc("GET /api/owners/{owner}/dashboard", s.handleDashboard)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit)(h)
	h = s.detector.Middleware(h)
	h = log.RequestIDMiddleware(trace.RequestID)(h)
	h = log.Middleware(logger)(h)
	h = s.tracer.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	TooManyRequestsError().Write(w)
}

// Shutdown stops the rate limiter and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
