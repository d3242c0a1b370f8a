package core

import "github.com/shopspring/decimal"

// IncomeColor is shared by every income bucket.
const IncomeColor = "#2e7d32"

// ExpensePalette is cycled over expense categories in first-seen order.
var ExpensePalette = []string{
	"#e53935", "#d81b60", "#8e24aa", "#5e35b1", "#3949ab",
	"#1e88e5", "#039be5", "#00acc1", "#00897b", "#43a047",
	"#7cb342", "#c0ca33", "#fdd835", "#ffb300", "#fb8c00",
	"#f4511e", "#6d4c41", "#757575", "#546e7a",
}

// BucketVariant tells whether a bucket carries its members.
type BucketVariant string

const (
	VariantSummary  BucketVariant = "summary"
	VariantDetailed BucketVariant = "detailed"
)

// BucketMember is one transaction contributing to a bucket.
type BucketMember struct {
	ID          string `json:"id"`
	Amount      Money  `json:"amount"`
	Description string `json:"description"`
	Date        Date   `json:"date"`
}

// CategoryBucket groups transactions of one kind under one category label.
type CategoryBucket struct {
	Category string         `json:"category"`
	Kind     Kind           `json:"kind"`
	Total    Money          `json:"total"`
	Color    string         `json:"color,omitempty"`
	Variant  BucketVariant  `json:"variant"`
	Members  []BucketMember `json:"members,omitempty"`
}

// DetailFilter selects the categories whose members are kept. A nil filter keeps all.
type DetailFilter map[string]struct{}

// NewDetailFilter builds a filter from category labels. No labels yields nil.
func NewDetailFilter(categories ...string) DetailFilter {
	if len(categories) == 0 {
		return nil
	}
	f := make(DetailFilter, len(categories))
	for _, c := range categories {
		f[c] = struct{}{}
	}
	return f
}

// Keeps reports whether members of category should be kept.
func (f DetailFilter) Keeps(category string) bool {
	if f == nil {
		return true
	}
	_, ok := f[category]
	return ok
}

// ExpandedBuckets holds the client-side grouping split by kind and window.
type ExpandedBuckets struct {
	IncomeAnnual   []CategoryBucket `json:"income_annual"`
	ExpenseAnnual  []CategoryBucket `json:"expense_annual"`
	IncomeMonthly  []CategoryBucket `json:"income_monthly"`
	ExpenseMonthly []CategoryBucket `json:"expense_monthly"`
}

// CategoryShare is a category total with its share of the grand total.
type CategoryShare struct {
	Category string          `json:"category"`
	Total    Money           `json:"total"`
	Percent  decimal.Decimal `json:"percent"`
}

// TopCategories is a ranking of expense categories.
type TopCategories struct {
	Categories []CategoryShare `json:"categories"`
	GrandTotal Money           `json:"grand_total"`
}

// WindowSummary holds income, expense and balance for the annual and monthly windows.
type WindowSummary struct {
	AnnualIncome   Money `json:"annual_income"`
	AnnualExpense  Money `json:"annual_expense"`
	AnnualBalance  Money `json:"annual_balance"`
	MonthlyIncome  Money `json:"monthly_income"`
	MonthlyExpense Money `json:"monthly_expense"`
	MonthlyBalance Money `json:"monthly_balance"`
}

// BalancePoint is the cumulative income and expense up to and including Date.
type BalancePoint struct {
	Date    Date  `json:"date"`
	Income  Money `json:"income"`
	Expense Money `json:"expense"`
}
