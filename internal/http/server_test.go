package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/store/memory"
)

var testNow = time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func newTestServer(t *testing.T, opts Options, seed ...core.Transaction) *Server {
	t.Helper()
	logger := log.Discard(log.ComponentHTTP)
	clock := func() time.Time { return testNow }
	st := memory.New(seed...)

	srv := NewServer(":0", Deps{
		Transactions: services.NewTransactionService(st, nil, clock, logger),
		Views:        services.NewLedgerViewBuilder(st, services.NewProjector(logger), logger),
		Aggregator:   services.NewAggregator(services.AllTime),
		Summarizer:   services.NewSummarizer(services.AllTime),
		Reports:      services.NewCategoryReportService(st, logger),
		Clock:        clock,
	}, opts, logger)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func ownerPath(suffix string) string {
	return "/api/owners/" + testOwner + suffix
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Options{})

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/api/categories/suggested"} {
		rr := do(t, srv, http.MethodGet, path, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	srv.deps.Pinger = fakePinger{err: errors.New("db gone")}
	if rr := do(t, srv, http.MethodGet, "/readyz", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing store status=%d", rr.Code)
	}
}

func TestMiddlewareHeaders(t *testing.T) {
	srv := newTestServer(t, Options{})
	rr := do(t, srv, http.MethodGet, "/healthz", "")

	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
	if !strings.HasPrefix(rr.Header().Get("X-Request-ID"), "req_") {
		t.Errorf("X-Request-ID = %q", rr.Header().Get("X-Request-ID"))
	}
}

func TestTransactionLifecycle(t *testing.T) {
	srv := newTestServer(t, Options{})

	rr := do(t, srv, http.MethodPost, ownerPath("/transactions"),
		`{"kind":"expense","category":"Housing","amount":"800","date":"2024-01-31","description":"Rent","is_recurring":true,"frequency":"monthly"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decode[TransactionResponse](t, rr)
	if created.ID == "" || created.Projected {
		t.Fatalf("created = %+v", created)
	}
	if loc := rr.Header().Get("Location"); !strings.HasSuffix(loc, "/"+created.ID) {
		t.Errorf("Location = %q", loc)
	}

	list := decode[struct {
		Transactions []TransactionResponse `json:"transactions"`
	}](t, do(t, srv, http.MethodGet, ownerPath("/transactions"), ""))

	wantDates := []string{"2024-03-31", "2024-02-29", "2024-01-31"}
	if len(list.Transactions) != len(wantDates) {
		t.Fatalf("view has %d rows, want %d", len(list.Transactions), len(wantDates))
	}
	for i, d := range wantDates {
		if got := list.Transactions[i].Date.String(); got != d {
			t.Errorf("row %d date = %s, want %s", i, got, d)
		}
	}
	projected := list.Transactions[0]
	if !projected.Projected || projected.TemplateID != created.ID || !core.IsProjectedID(projected.ID) {
		t.Errorf("projected row = %+v", projected)
	}

	rr = do(t, srv, http.MethodPut, ownerPath("/transactions/"+projected.ID),
		`{"kind":"expense","amount":1,"date":"2024-03-31"}`)
	if rr.Code != http.StatusConflict {
		t.Errorf("update projected status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodPut, ownerPath("/transactions/"+created.ID),
		`{"kind":"expense","category":"Housing","amount":"850","date":"2024-01-31","description":"Rent"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	if got := decode[TransactionResponse](t, rr); got.Amount.Cents != 85000 || got.IsRecurring {
		t.Errorf("updated = %+v", got)
	}

	if rr := do(t, srv, http.MethodDelete, ownerPath("/transactions/"+created.ID), ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodDelete, ownerPath("/transactions/"+created.ID), ""); rr.Code != http.StatusNotFound {
		t.Errorf("second delete status=%d", rr.Code)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv := newTestServer(t, Options{})

	tests := []struct {
		name string
		path string
		body string
	}{
		{"invalid owner", "/api/owners/not-a-uuid/transactions", `{"kind":"expense","amount":1,"date":"2024-01-01"}`},
		{"missing date", ownerPath("/transactions"), `{"kind":"expense","amount":1}`},
		{"bad kind", ownerPath("/transactions"), `{"kind":"gift","amount":1,"date":"2024-01-01"}`},
		{"frequency without recurrence", ownerPath("/transactions"), `{"kind":"expense","amount":1,"date":"2024-01-01","frequency":"weekly"}`},
		{"malformed", ownerPath("/transactions"), `{"kind"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, tt.path, tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status=%d body=%s", rr.Code, rr.Body.String())
			}
		})
	}
}

func seedLedger() []core.Transaction {
	mk := func(id string, kind core.Kind, cat string, cents int64, d core.Date) core.Transaction {
		return core.Transaction{ID: id, Owner: testOwner, Kind: kind, Category: cat, Amount: core.Money{Cents: cents}, Date: d}
	}
	return []core.Transaction{
		mk("s1", core.Income, "Salary", 300000, core.NewDate(2024, 4, 1)),
		mk("e1", core.Expense, "Food", 20000, core.NewDate(2024, 3, 10)),
		mk("e2", core.Expense, "Housing", 80000, core.NewDate(2024, 4, 2)),
		mk("e3", core.Expense, "Food", 10000, core.NewDate(2024, 4, 5)),
	}
}

func TestCategoryReport(t *testing.T) {
	srv := newTestServer(t, Options{}, seedLedger()...)

	rr := do(t, srv, http.MethodGet, ownerPath("/categories?startDate=2024-04-01&categories=Food"), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	report := decode[CategoryReportResponse](t, rr)
	if report.EndDate.String() != "2024-04-15" {
		t.Errorf("end date = %s", report.EndDate)
	}
	if len(report.Buckets) != 2 {
		t.Fatalf("buckets = %+v", report.Buckets)
	}
	housing, food := report.Buckets[0], report.Buckets[1]
	if housing.Category != "Housing" || housing.Variant != core.VariantSummary || len(housing.Members) != 0 {
		t.Errorf("housing = %+v", housing)
	}
	if food.Total.Cents != 10000 || food.Variant != core.VariantDetailed || len(food.Members) != 1 {
		t.Errorf("food = %+v", food)
	}

	if rr := do(t, srv, http.MethodGet, ownerPath("/categories?startDate=2024-05-01&endDate=2024-04-01"), ""); rr.Code != http.StatusBadRequest {
		t.Errorf("inverted window status=%d", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/owners/nope/categories", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid owner status=%d", rr.Code)
	}
}

func TestSummaryAndDashboard(t *testing.T) {
	srv := newTestServer(t, Options{}, seedLedger()...)

	rr := do(t, srv, http.MethodGet, ownerPath("/summary?top=1"), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	sum := decode[SummaryResponse](t, rr)
	if sum.Summary.AnnualExpense.Cents != 110000 || sum.Summary.MonthlyExpense.Cents != 90000 {
		t.Errorf("summary = %+v", sum.Summary)
	}
	if len(sum.TopCategories.Categories) != 1 || sum.TopCategories.Categories[0].Category != "Housing" {
		t.Errorf("top = %+v", sum.TopCategories)
	}
	if sum.PreviousMonthExpense.Cents != 20000 || sum.SpendingDelta.String() != "350" {
		t.Errorf("delta = %s from %s", sum.SpendingDelta, sum.PreviousMonthExpense)
	}

	if rr := do(t, srv, http.MethodGet, ownerPath("/summary?top=zero"), ""); rr.Code != http.StatusBadRequest {
		t.Errorf("bad top status=%d", rr.Code)
	}

	rr = do(t, srv, http.MethodGet, ownerPath("/dashboard"), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d body=%s", rr.Code, rr.Body.String())
	}
	dash := decode[DashboardResponse](t, rr)
	if dash.Summary.AnnualIncome.Cents != 300000 || len(dash.Categories) != 2 {
		t.Errorf("dashboard = %+v", dash)
	}
}

func TestBucketsAndCurve(t *testing.T) {
	srv := newTestServer(t, Options{}, seedLedger()...)

	rr := do(t, srv, http.MethodGet, ownerPath("/buckets?ref=2024-03-01"), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	buckets := decode[core.ExpandedBuckets](t, rr)
	if len(buckets.ExpenseMonthly) != 1 || buckets.ExpenseMonthly[0].Total.Cents != 20000 {
		t.Errorf("march expenses = %+v", buckets.ExpenseMonthly)
	}
	if len(buckets.IncomeAnnual) != 1 || buckets.IncomeAnnual[0].Color != core.IncomeColor {
		t.Errorf("income annual = %+v", buckets.IncomeAnnual)
	}

	curve := decode[struct {
		Points []core.BalancePoint `json:"points"`
	}](t, do(t, srv, http.MethodGet, ownerPath("/balance-curve"), ""))
	if len(curve.Points) != 4 {
		t.Fatalf("points = %d", len(curve.Points))
	}
	last := curve.Points[len(curve.Points)-1]
	if last.Income.Cents != 300000 || last.Expense.Cents != 110000 {
		t.Errorf("last point = %+v", last)
	}
}

func TestRateLimitAppliesToWritesOnly(t *testing.T) {
	srv := newTestServer(t, Options{RateLimitPerMinute: 1})
	body := `{"kind":"expense","amount":1,"date":"2024-04-01"}`

	if rr := do(t, srv, http.MethodPost, ownerPath("/transactions"), body); rr.Code != http.StatusCreated {
		t.Fatalf("first create status=%d", rr.Code)
	}
	for range 3 {
		if rr := do(t, srv, http.MethodGet, ownerPath("/transactions"), ""); rr.Code != http.StatusOK {
			t.Fatalf("read status=%d", rr.Code)
		}
	}
	rr := do(t, srv, http.MethodPost, ownerPath("/transactions"), body)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second create status=%d", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "60" {
		t.Error("missing Retry-After")
	}
}
