package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
)

func categories(buckets []core.CategoryBucket) []string {
	out := make([]string, len(buckets))
	for i, b := range buckets {
		out[i] = b.Category
	}
	return out
}

func TestGroupByCategory(t *testing.T) {
	txs := []core.Transaction{
		tx("1", core.Expense, "Fun", 300, core.NewDate(2024, 1, 1)),
		tx("2", core.Expense, "Food", 500, core.NewDate(2024, 1, 2)),
		tx("3", core.Expense, "Rent", 300, core.NewDate(2024, 1, 3)),
		tx("4", core.Expense, "", 100, core.Date{}),
		tx("5", core.Income, "Salary", 9000, core.NewDate(2024, 1, 1)),
		tx("6", core.Expense, "Fun", 100, core.NewDate(2024, 1, 4)),
	}

	got := GroupByCategory(txs, core.Expense)

	assert.Equal(t, []string{"Food", "Fun", "Rent", core.UncategorizedLabel}, categories(got))
	require.Len(t, got[1].Members, 2)
	assert.Equal(t, "1", got[1].Members[0].ID)
	assert.Equal(t, "6", got[1].Members[1].ID)
	for _, b := range got {
		assert.Equal(t, core.Expense, b.Kind)
		assert.Equal(t, core.VariantDetailed, b.Variant)
	}
}

func TestGroupByCategory_TiesKeepFirstSeenOrder(t *testing.T) {
	txs := []core.Transaction{
		tx("1", core.Expense, "B", 100, core.NewDate(2024, 1, 1)),
		tx("2", core.Expense, "A", 100, core.NewDate(2024, 1, 2)),
		tx("3", core.Expense, "C", 100, core.NewDate(2024, 1, 3)),
	}
	assert.Equal(t, []string{"B", "A", "C"}, categories(GroupByCategory(txs, core.Expense)))
}

func TestGroupByCategory_TotalsReconcile(t *testing.T) {
	txs := []core.Transaction{
		tx("1", core.Expense, "Food", 1999, core.NewDate(2024, 1, 1)),
		tx("2", core.Expense, "Food", 1, core.NewDate(2024, 2, 1)),
		tx("3", core.Expense, "Travel", 123456, core.NewDate(2024, 3, 1)),
		tx("4", core.Expense, "", 10, core.Date{}),
		tx("5", core.Income, "Salary", 500000, core.NewDate(2024, 1, 1)),
		tx("6", core.Expense, "Health", 0, core.NewDate(2024, 1, 1)),
	}

	var want int64
	for _, x := range txs {
		if x.Kind == core.Expense {
			want += x.Amount.Cents
		}
	}
	var got int64
	for _, b := range GroupByCategory(txs, core.Expense) {
		got += b.Total.Cents
	}
	assert.Equal(t, want, got)
}

func TestApplyDetailFilter_Idempotent(t *testing.T) {
	buckets := GroupByCategory([]core.Transaction{
		tx("1", core.Expense, "A", 100, core.NewDate(2024, 1, 1)),
		tx("2", core.Expense, "B", 200, core.NewDate(2024, 1, 2)),
		tx("3", core.Expense, "C", 300, core.NewDate(2024, 1, 3)),
	}, core.Expense)

	onlyA := ApplyDetailFilter(buckets, core.NewDetailFilter("A"))
	aAndB := ApplyDetailFilter(buckets, core.NewDetailFilter("A", "B"))

	require.Len(t, onlyA, 3)
	require.Len(t, aAndB, 3)
	for i := range buckets {
		assert.Equal(t, onlyA[i].Category, aAndB[i].Category)
		assert.Equal(t, onlyA[i].Total, aAndB[i].Total)
		assert.Equal(t, buckets[i].Total, onlyA[i].Total)
	}

	byCat := func(bs []core.CategoryBucket, c string) core.CategoryBucket {
		for _, b := range bs {
			if b.Category == c {
				return b
			}
		}
		t.Fatalf("missing %s", c)
		return core.CategoryBucket{}
	}
	assert.Equal(t, core.VariantSummary, byCat(onlyA, "B").Variant)
	assert.Nil(t, byCat(onlyA, "B").Members)
	assert.Equal(t, core.VariantDetailed, byCat(aAndB, "B").Variant)
	assert.Len(t, byCat(aAndB, "B").Members, 1)

	again := ApplyDetailFilter(onlyA, core.NewDetailFilter("A"))
	assert.Equal(t, onlyA, again)

	all := ApplyDetailFilter(buckets, nil)
	for _, b := range all {
		assert.Equal(t, core.VariantDetailed, b.Variant)
		assert.NotEmpty(t, b.Members)
	}
}

func TestAggregator_ExpandedBuckets(t *testing.T) {
	ref := time.Date(2024, 2, 10, 18, 0, 0, 0, time.UTC)
	view := []core.Transaction{
		tx("1", core.Expense, "Food", 500, core.NewDate(2024, 1, 5)),
		tx("2", core.Expense, "Rent", 9000, core.NewDate(2024, 2, 1)),
		tx("3", core.Expense, "Food", 300, core.NewDate(2024, 2, 5)),
		tx("4", core.Income, "Salary", 100000, core.NewDate(2024, 2, 1)),
		tx("5", core.Income, "Gift", 5000, core.NewDate(2023, 12, 25)),
		tx("6", core.Expense, "", 50, core.Date{}),
	}

	got := NewAggregator(AllTime).ExpandedBuckets(view, ref)

	assert.Equal(t, []string{"Rent", "Food", core.UncategorizedLabel}, categories(got.ExpenseAnnual))
	assert.Equal(t, []string{"Salary", "Gift"}, categories(got.IncomeAnnual))
	assert.Equal(t, []string{"Rent", "Food"}, categories(got.ExpenseMonthly))
	assert.Equal(t, int64(300), got.ExpenseMonthly[1].Total.Cents)
	assert.Equal(t, []string{"Salary"}, categories(got.IncomeMonthly))

	for _, b := range append(got.IncomeAnnual, got.IncomeMonthly...) {
		assert.Equal(t, core.IncomeColor, b.Color)
	}

	// Colors follow first-seen order over the whole set and match across windows.
	colors := map[string]string{}
	for _, b := range got.ExpenseAnnual {
		colors[b.Category] = b.Color
	}
	assert.Equal(t, core.ExpensePalette[0], colors["Food"])
	assert.Equal(t, core.ExpensePalette[1], colors["Rent"])
	assert.Equal(t, core.ExpensePalette[2], colors[core.UncategorizedLabel])
	for _, b := range got.ExpenseMonthly {
		assert.Equal(t, colors[b.Category], b.Color)
	}
}

func TestAggregator_PaletteCycles(t *testing.T) {
	var view []core.Transaction
	n := len(core.ExpensePalette) + 2
	for i := 0; i < n; i++ {
		view = append(view, tx(string(rune('a'+i)), core.Expense, string(rune('A'+i)), int64(1000-i), core.NewDate(2024, 1, 1)))
	}

	got := NewAggregator(AllTime).ExpandedBuckets(view, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	require.Len(t, got.ExpenseAnnual, n)
	assert.Equal(t, core.ExpensePalette[0], got.ExpenseAnnual[len(core.ExpensePalette)].Color)
	assert.Equal(t, core.ExpensePalette[1], got.ExpenseAnnual[len(core.ExpensePalette)+1].Color)
}
