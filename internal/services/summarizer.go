package services

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// WindowPolicy selects which records count toward the annual window.
type WindowPolicy string

const (
	// AllTime counts every record, dated or not.
	AllTime WindowPolicy = "all_time"
	// CalendarYear counts records dated in the reference year plus undated ones.
	CalendarYear WindowPolicy = "calendar_year"
)

// DefaultTopCategories is the ranking size used when none is requested.
const DefaultTopCategories = 5

// ParseWindowPolicy accepts the ANNUAL_WINDOW values. Empty means AllTime.
func ParseWindowPolicy(s string) (WindowPolicy, error) {
	switch p := WindowPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return AllTime, nil
	case AllTime, CalendarYear:
		return p, nil
	default:
		return "", fmt.Errorf("unknown annual window %q", s)
	}
}

// Summarizer computes window summaries, rankings and curves over a ledger view.
// It is pure: the reference time is always passed in.
type Summarizer struct {
	policy WindowPolicy
}

func NewSummarizer(policy WindowPolicy) *Summarizer {
	if policy == "" {
		policy = AllTime
	}
	return &Summarizer{policy: policy}
}

func (s *Summarizer) Policy() WindowPolicy {
	return s.policy
}

// InAnnual reports whether a record dated d counts toward the annual window
// of ref. Undated records always count.
func (p WindowPolicy) InAnnual(d core.Date, ref core.Date) bool {
	if p == CalendarYear && !d.IsEmpty() {
		return d.Year() == ref.Year()
	}
	return true
}

// AnnualWindow returns the records of txs inside ref's annual window.
func (p WindowPolicy) AnnualWindow(txs []core.Transaction, ref core.Date) []core.Transaction {
	if p != CalendarYear {
		return txs
	}
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if p.InAnnual(tx.Date, ref) {
			out = append(out, tx)
		}
	}
	return out
}

// Summarize returns income, expense and balance for the annual window and for
// ref's calendar month. Undated records never count toward the month.
func (s *Summarizer) Summarize(txs []core.Transaction, ref time.Time) core.WindowSummary {
	refDay := core.DateOf(ref)
	var out core.WindowSummary
	for _, tx := range txs {
		if s.policy.InAnnual(tx.Date, refDay) {
			switch tx.Kind {
			case core.Income:
				out.AnnualIncome = out.AnnualIncome.Add(tx.Amount)
			case core.Expense:
				out.AnnualExpense = out.AnnualExpense.Add(tx.Amount)
			}
		}
		if tx.Date.SameMonth(refDay) {
			switch tx.Kind {
			case core.Income:
				out.MonthlyIncome = out.MonthlyIncome.Add(tx.Amount)
			case core.Expense:
				out.MonthlyExpense = out.MonthlyExpense.Add(tx.Amount)
			}
		}
	}
	out.AnnualBalance = out.AnnualIncome.Sub(out.AnnualExpense)
	out.MonthlyBalance = out.MonthlyIncome.Sub(out.MonthlyExpense)
	return out
}

// TopCategories ranks expense categories inside ref's annual window by total.
// n <= 0 uses DefaultTopCategories. Percentages are relative to the total of
// all expense categories in the window, not only the ranked ones.
func (s *Summarizer) TopCategories(txs []core.Transaction, ref time.Time, n int) core.TopCategories {
	if n <= 0 {
		n = DefaultTopCategories
	}
	buckets := GroupByCategory(s.policy.AnnualWindow(txs, core.DateOf(ref)), core.Expense)
	var grand core.Money
	for _, b := range buckets {
		grand = grand.Add(b.Total)
	}
	if len(buckets) > n {
		buckets = buckets[:n]
	}
	out := core.TopCategories{GrandTotal: grand, Categories: make([]core.CategoryShare, 0, len(buckets))}
	for _, b := range buckets {
		out.Categories = append(out.Categories, core.CategoryShare{
			Category: b.Category,
			Total:    b.Total,
			Percent:  core.Percent(b.Total, grand),
		})
	}
	return out
}

// BalanceCurve returns cumulative income and expense at each distinct date in
// ascending order. Undated records are skipped.
func (s *Summarizer) BalanceCurve(txs []core.Transaction) []core.BalancePoint {
	dated := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !tx.Date.IsEmpty() {
			dated = append(dated, tx)
		}
	}
	slices.SortStableFunc(dated, func(a, b core.Transaction) int {
		return a.Date.Compare(b.Date.Time)
	})

	var (
		points  []core.BalancePoint
		income  core.Money
		expense core.Money
	)
	for _, tx := range dated {
		switch tx.Kind {
		case core.Income:
			income = income.Add(tx.Amount)
		case core.Expense:
			expense = expense.Add(tx.Amount)
		}
		if n := len(points); n > 0 && points[n-1].Date.Equal(tx.Date.Time) {
			points[n-1].Income, points[n-1].Expense = income, expense
			continue
		}
		points = append(points, core.BalancePoint{Date: tx.Date, Income: income, Expense: expense})
	}
	return points
}

// SpendingDelta returns the percentage change from previous to current,
// rounded to two places. A zero previous yields zero.
func SpendingDelta(current, previous core.Money) decimal.Decimal {
	if previous.Cents == 0 {
		return decimal.Zero
	}
	diff := decimal.NewFromInt(current.Cents - previous.Cents)
	return diff.Div(decimal.NewFromInt(previous.Cents)).Mul(decimal.NewFromInt(100)).Round(2)
}

// MonthlyExpense sums expenses dated in ref's calendar month.
func MonthlyExpense(txs []core.Transaction, ref core.Date) core.Money {
	var total core.Money
	for _, tx := range txs {
		if tx.Kind == core.Expense && tx.Date.SameMonth(ref) {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// PreviousMonth returns the first day of the month before ref.
func PreviousMonth(ref core.Date) core.Date {
	return core.NewDate(ref.Year(), ref.Month(), 1).AddMonthsClamped(-1)
}
