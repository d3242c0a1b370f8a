package sheets

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/store"
)

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Summary", 2024, "2024 Summary"},
		{"2023 Summary", 2024, "2023 Summary"},
		{"  Ledger ", 2025, "2025 Ledger"},
		{"", 2024, ""},
		{"12345", 2024, "2024 12345"},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			assert.Equal(t, tt.want, yearPrefixedName(tt.base, tt.year))
		})
	}
}

func TestSummaryRowValues(t *testing.T) {
	row := store.SummaryRow{
		Owner:      "owner-1",
		ExportedAt: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
		Summary: core.WindowSummary{
			AnnualIncome:   core.Money{Cents: 100000},
			AnnualExpense:  core.Money{Cents: 8000},
			AnnualBalance:  core.Money{Cents: 92000},
			MonthlyIncome:  core.Money{Cents: 0},
			MonthlyExpense: core.Money{Cents: 3000},
			MonthlyBalance: core.Money{Cents: -3000},
		},
		Top: core.TopCategories{
			GrandTotal: core.Money{Cents: 8000},
			Categories: []core.CategoryShare{
				{Category: "Food", Total: core.Money{Cents: 8000}, Percent: decimal.NewFromInt(100)},
			},
		},
	}

	got := SummaryRowValues(row)

	require.Len(t, got, 12)
	assert.Equal(t, []any{
		"2024-03-01T10:30:00Z", "owner-1",
		"1000.00", "80.00", "920.00",
		"0.00", "30.00", "-30.00",
		"80.00", "Food (100.00%)", "", "",
	}, got)
}

func TestSummaryRowValues_EscapesFormulas(t *testing.T) {
	row := store.SummaryRow{
		Owner:      "=HYPERLINK(\"http://evil\")",
		ExportedAt: time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
		Summary: core.WindowSummary{
			MonthlyBalance: core.Money{Cents: -3000},
		},
		Top: core.TopCategories{
			Categories: []core.CategoryShare{
				{Category: `=IMPORTRANGE("x","A1")`, Percent: decimal.NewFromInt(50)},
				{Category: "+1", Percent: decimal.NewFromInt(30)},
				{Category: "@SUM", Percent: decimal.NewFromInt(20)},
			},
		},
	}

	got := SummaryRowValues(row)

	assert.Equal(t, `'=HYPERLINK("http://evil")`, got[1])
	assert.Equal(t, "-30.00", got[7], "numeric cells stay numeric")
	assert.Equal(t, `'=IMPORTRANGE("x","A1") (50.00%)`, got[9])
	assert.Equal(t, "'+1 (30.00%)", got[10])
	assert.Equal(t, "'@SUM (20.00%)", got[11])
}

func TestEscapeText(t *testing.T) {
	tests := map[string]string{
		"":          "",
		"Food":      "Food",
		"-5":        "'-5",
		"\tcmd":     "'\tcmd",
		"'quoted":   "''quoted",
		"Rent =1+1": "Rent =1+1",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, escapeText(in))
		})
	}
}

func TestNewExporter_RequiresConfig(t *testing.T) {
	_, err := NewExporter(context.Background(), Config{})
	assert.Error(t, err)

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err = NewExporter(context.Background(), Config{SpreadsheetID: "sheet"})
	assert.ErrorContains(t, err, "missing service account credentials")
}

func TestAppendSummary_Uninitialized(t *testing.T) {
	_, err := (&Exporter{}).AppendSummary(context.Background(), store.SummaryRow{})
	assert.Error(t, err)
}
