package ctl

import (
	"strconv"

	"ledger/internal/core"
)

type viewRow struct {
	ID          string `csv:"id" yaml:"id"`
	Date        string `csv:"date" yaml:"date"`
	Kind        string `csv:"kind" yaml:"kind"`
	Category    string `csv:"category" yaml:"category"`
	Amount      string `csv:"amount" yaml:"amount"`
	Description string `csv:"description" yaml:"description"`
	Frequency   string `csv:"frequency" yaml:"frequency,omitempty"`
	Projected   bool   `csv:"projected" yaml:"projected"`
}

func viewRows(view []core.Transaction) []viewRow {
	rows := make([]viewRow, 0, len(view))
	for _, tx := range view {
		rows = append(rows, viewRow{
			ID:          tx.ID,
			Date:        tx.Date.String(),
			Kind:        string(tx.Kind),
			Category:    tx.CategoryLabel(),
			Amount:      tx.Amount.String(),
			Description: tx.Description,
			Frequency:   string(tx.Frequency),
			Projected:   tx.IsProjected(),
		})
	}
	return rows
}

type bucketRow struct {
	Window   string `csv:"window" yaml:"window,omitempty"`
	Kind     string `csv:"kind" yaml:"kind"`
	Category string `csv:"category" yaml:"category"`
	Total    string `csv:"total" yaml:"total"`
	Color    string `csv:"color" yaml:"color,omitempty"`
	Variant  string `csv:"variant" yaml:"variant"`
	Members  int    `csv:"members" yaml:"members"`
}

func bucketRows(window string, buckets []core.CategoryBucket) []bucketRow {
	rows := make([]bucketRow, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, bucketRow{
			Window:   window,
			Kind:     string(b.Kind),
			Category: b.Category,
			Total:    b.Total.String(),
			Color:    b.Color,
			Variant:  string(b.Variant),
			Members:  len(b.Members),
		})
	}
	return rows
}

func expandedRows(e core.ExpandedBuckets) []bucketRow {
	var rows []bucketRow
	rows = append(rows, bucketRows("annual", e.IncomeAnnual)...)
	rows = append(rows, bucketRows("annual", e.ExpenseAnnual)...)
	rows = append(rows, bucketRows("monthly", e.IncomeMonthly)...)
	rows = append(rows, bucketRows("monthly", e.ExpenseMonthly)...)
	return rows
}

type metricRow struct {
	Metric string `csv:"metric" yaml:"metric"`
	Value  string `csv:"value" yaml:"value"`
}

func summaryRows(s summaryOutput) []metricRow {
	rows := []metricRow{
		{"annual_window", string(s.AnnualWindow)},
		{"annual_income", s.Summary.AnnualIncome.String()},
		{"annual_expense", s.Summary.AnnualExpense.String()},
		{"annual_balance", s.Summary.AnnualBalance.String()},
		{"monthly_income", s.Summary.MonthlyIncome.String()},
		{"monthly_expense", s.Summary.MonthlyExpense.String()},
		{"monthly_balance", s.Summary.MonthlyBalance.String()},
		{"spending_delta_percent", s.SpendingDelta.StringFixed(2)},
	}
	for i, c := range s.TopCategories.Categories {
		rows = append(rows, metricRow{
			Metric: "top_" + strconv.Itoa(i+1),
			Value:  c.Category + " " + c.Total.String() + " (" + c.Percent.StringFixed(2) + "%)",
		})
	}
	return rows
}

type curveRow struct {
	Date    string `csv:"date" yaml:"date"`
	Income  string `csv:"income" yaml:"income"`
	Expense string `csv:"expense" yaml:"expense"`
	Balance string `csv:"balance" yaml:"balance"`
}

func curveRows(points []core.BalancePoint) []curveRow {
	rows := make([]curveRow, 0, len(points))
	for _, p := range points {
		rows = append(rows, curveRow{
			Date:    p.Date.String(),
			Income:  p.Income.String(),
			Expense: p.Expense.String(),
			Balance: p.Income.Sub(p.Expense).String(),
		})
	}
	return rows
}
