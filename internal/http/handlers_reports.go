package http

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/services"
)

// CategoryReportResponse is the exact per-category expense report.
type CategoryReportResponse struct {
	StartDate core.Date             `json:"start_date"`
	EndDate   core.Date             `json:"end_date"`
	Buckets   []core.CategoryBucket `json:"buckets"`
}

// SummaryResponse combines the window summary, the top categories and the
// month-over-month expense change.
type SummaryResponse struct {
	AnnualWindow         services.WindowPolicy `json:"annual_window"`
	Summary              core.WindowSummary    `json:"summary"`
	TopCategories        core.TopCategories    `json:"top_categories"`
	CurrentMonthExpense  core.Money            `json:"current_month_expense"`
	PreviousMonthExpense core.Money            `json:"previous_month_expense"`
	SpendingDelta        decimal.Decimal       `json:"spending_delta_percent"`
}

// DashboardResponse is the summary and the exact category report fetched together.
type DashboardResponse struct {
	SummaryResponse
	Categories []core.CategoryBucket `json:"categories"`
}

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end, err := services.ReportWindow(q.Get("startDate"), q.Get("endDate"), s.deps.Clock())
	if err != nil {
		s.fail(w, r, err, log.OpAggregate)
		return
	}
	detail := services.ParseDetailCategories(q.Get("categories"))

	buckets, err := s.deps.Reports.AggregateByCategory(r.Context(), r.PathValue("owner"), start, end, detail)
	if err != nil {
		s.fail(w, r, err, log.OpAggregate)
		return
	}
	NewJSONResponse().Body(CategoryReportResponse{StartDate: start, EndDate: end, Buckets: nonNil(buckets)}).Write(w)
}

func (s *Server) handleBuckets(w http.ResponseWriter, r *http.Request) {
	ref, err := ParseRefParam(r.URL.Query(), s.deps.Clock())
	if err != nil {
		s.fail(w, r, err, log.OpParse)
		return
	}
	view, err := s.deps.Views.BuildView(r.Context(), r.PathValue("owner"), s.deps.Clock())
	if err != nil {
		s.fail(w, r, err, log.OpAggregate)
		return
	}
	NewJSONResponse().Body(s.deps.Aggregator.ExpandedBuckets(view, ref)).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	top, err := ParseTopParam(q)
	if err != nil {
		s.fail(w, r, err, log.OpParse)
		return
	}
	ref, err := ParseRefParam(q, s.deps.Clock())
	if err != nil {
		s.fail(w, r, err, log.OpParse)
		return
	}
	view, err := s.deps.Views.BuildView(r.Context(), r.PathValue("owner"), s.deps.Clock())
	if err != nil {
		s.fail(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().Body(s.summarize(view, ref, top)).Write(w)
}

func (s *Server) handleBalanceCurve(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Views.BuildView(r.Context(), r.PathValue("owner"), s.deps.Clock())
	if err != nil {
		s.fail(w, r, err, log.OpRead)
		return
	}
	points := s.deps.Summarizer.BalanceCurve(view)
	if points == nil {
		points = []core.BalancePoint{}
	}
	NewJSONResponse().Body(map[string]any{"points": points}).Write(w)
}

// handleDashboard builds the summary from the ledger view and runs the exact
// category report concurrently.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("owner")
	if err := core.ValidateOwner(owner); err != nil {
		s.fail(w, r, err, log.OpRead)
		return
	}
	now := s.deps.Clock()

	var (
		summary    SummaryResponse
		categories []core.CategoryBucket
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		view, err := s.deps.Views.BuildView(ctx, owner, now)
		if err != nil {
			return err
		}
		summary = s.summarize(view, now, 0)
		return nil
	})
	g.Go(func() error {
		var err error
		categories, err = s.deps.Reports.AggregateByCategory(ctx, owner, services.Epoch, core.DateOf(now), nil)
		return err
	})
	if err := g.Wait(); err != nil {
		s.fail(w, r, err, log.OpRead)
		return
	}
	NewJSONResponse().Body(DashboardResponse{SummaryResponse: summary, Categories: nonNil(categories)}).Write(w)
}

func (s *Server) summarize(view []core.Transaction, ref time.Time, top int) SummaryResponse {
	if top <= 0 {
		top = s.deps.TopCategories
	}
	day := core.DateOf(ref)
	current := services.MonthlyExpense(view, day)
	previous := services.MonthlyExpense(view, services.PreviousMonth(day))
	return SummaryResponse{
		AnnualWindow:         s.deps.Summarizer.Policy(),
		Summary:              s.deps.Summarizer.Summarize(view, ref),
		TopCategories:        s.deps.Summarizer.TopCategories(view, ref, top),
		CurrentMonthExpense:  current,
		PreviousMonthExpense: previous,
		SpendingDelta:        services.SpendingDelta(current, previous),
	}
}

func nonNil(buckets []core.CategoryBucket) []core.CategoryBucket {
	if buckets == nil {
		return []core.CategoryBucket{}
	}
	return buckets
}
