package services

import (
	"slices"
	"time"

	"ledger/internal/core"
)

// GroupByCategory groups txs of the given kind by category label. Buckets are
// ordered by total descending; equal totals keep first-seen order. Members
// keep input order.
func GroupByCategory(txs []core.Transaction, kind core.Kind) []core.CategoryBucket {
	index := map[string]int{}
	var out []core.CategoryBucket
	for _, tx := range txs {
		if tx.Kind != kind {
			continue
		}
		label := tx.CategoryLabel()
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, core.CategoryBucket{Category: label, Kind: kind, Variant: core.VariantDetailed})
		}
		out[i].Total = out[i].Total.Add(tx.Amount)
		out[i].Members = append(out[i].Members, core.BucketMember{
			ID:          tx.ID,
			Amount:      tx.Amount,
			Description: tx.Description,
			Date:        tx.Date,
		})
	}
	sortByTotalDesc(out)
	return out
}

func sortByTotalDesc(buckets []core.CategoryBucket) {
	slices.SortStableFunc(buckets, func(a, b core.CategoryBucket) int {
		switch {
		case a.Total.Cents > b.Total.Cents:
			return -1
		case a.Total.Cents < b.Total.Cents:
			return 1
		default:
			return 0
		}
	})
}

// ApplyDetailFilter keeps members only for categories selected by filter.
// Other buckets become summaries. Totals are never touched, and applying the
// same filter twice yields the same result.
func ApplyDetailFilter(buckets []core.CategoryBucket, filter core.DetailFilter) []core.CategoryBucket {
	out := make([]core.CategoryBucket, len(buckets))
	for i, b := range buckets {
		if filter.Keeps(b.Category) {
			b.Variant = core.VariantDetailed
		} else {
			b.Variant = core.VariantSummary
			b.Members = nil
		}
		out[i] = b
	}
	return out
}

// Aggregator builds the expanded bucket set shown alongside the ledger view.
// Its annual window follows the same policy as the Summarizer.
type Aggregator struct {
	policy WindowPolicy
}

func NewAggregator(policy WindowPolicy) *Aggregator {
	if policy == "" {
		policy = AllTime
	}
	return &Aggregator{policy: policy}
}

// ExpandedBuckets groups view by kind for the annual window and for the
// monthly window (dated records in ref's calendar month).
func (a *Aggregator) ExpandedBuckets(view []core.Transaction, ref time.Time) core.ExpandedBuckets {
	refDay := core.DateOf(ref)
	annual := a.policy.AnnualWindow(view, refDay)
	var monthly []core.Transaction
	for _, tx := range view {
		if tx.Date.SameMonth(refDay) {
			monthly = append(monthly, tx)
		}
	}

	colors := assignColors(view)
	paint := func(buckets []core.CategoryBucket) []core.CategoryBucket {
		for i := range buckets {
			buckets[i].Color = colors.of(buckets[i].Kind, buckets[i].Category)
		}
		return buckets
	}

	return core.ExpandedBuckets{
		IncomeAnnual:   paint(GroupByCategory(annual, core.Income)),
		ExpenseAnnual:  paint(GroupByCategory(annual, core.Expense)),
		IncomeMonthly:  paint(GroupByCategory(monthly, core.Income)),
		ExpenseMonthly: paint(GroupByCategory(monthly, core.Expense)),
	}
}

type colorMap map[string]string

// assignColors walks the whole working set once so a category keeps the
// same color in every window.
func assignColors(txs []core.Transaction) colorMap {
	colors := colorMap{}
	for _, tx := range txs {
		if tx.Kind != core.Expense {
			continue
		}
		label := tx.CategoryLabel()
		if _, ok := colors[label]; ok {
			continue
		}
		colors[label] = core.ExpensePalette[len(colors)%len(core.ExpensePalette)]
	}
	return colors
}

func (c colorMap) of(kind core.Kind, category string) string {
	if kind == core.Income {
		return core.IncomeColor
	}
	return c[category]
}
