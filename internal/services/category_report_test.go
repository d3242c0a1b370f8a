package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/core"
	"ledger/internal/store/memory"
)

func TestReportWindow(t *testing.T) {
	now := time.Date(2024, 5, 20, 23, 59, 0, 0, time.UTC)

	start, end, err := ReportWindow("", "", now)
	require.NoError(t, err)
	assert.Equal(t, Epoch, start)
	assert.Equal(t, core.NewDate(2024, 5, 20), end)

	start, end, err = ReportWindow("2024-01-01", "2024-01-31", now)
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2024, 1, 1), start)
	assert.Equal(t, core.NewDate(2024, 1, 31), end)

	_, _, err = ReportWindow("01/01/2024", "", now)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, _, err = ReportWindow("2024-02-01", "2024-01-01", now)
	assert.ErrorIs(t, err, core.ErrInvalidDate)
}

func TestParseDetailCategories(t *testing.T) {
	assert.Nil(t, ParseDetailCategories(""))
	assert.Nil(t, ParseDetailCategories(" , "))

	f := ParseDetailCategories("Food, Rent,,")
	assert.Len(t, f, 2)
	assert.True(t, f.Keeps("Food"))
	assert.True(t, f.Keeps("Rent"))
	assert.False(t, f.Keeps("Fun"))
}

func TestCategoryReportService_AggregateByCategory(t *testing.T) {
	st := memory.New(
		tx("1", core.Expense, "Food", 5000, core.NewDate(2024, 1, 5)),
		tx("2", core.Expense, "Food", 3000, core.NewDate(2024, 2, 5)),
		tx("3", core.Income, "Salary", 100000, core.NewDate(2024, 1, 1)),
		tx("4", core.Expense, "Rent", 90000, core.NewDate(2023, 12, 1)),
		tx("5", core.Expense, "", 700, core.Date{}),
		recurring("6", core.Expense, "Gym", 2000, core.NewDate(2024, 1, 10), core.Monthly),
	)
	svc := NewCategoryReportService(st, testLogger())
	ctx := context.Background()
	start, end := core.NewDate(2024, 1, 1), core.NewDate(2024, 12, 31)

	got, err := svc.AggregateByCategory(ctx, ownerA, start, end, nil)
	require.NoError(t, err)

	// Stored rows only: the Gym template counts once, its occurrences never.
	assert.Equal(t, []string{"Food", "Gym", core.UncategorizedLabel}, categories(got))
	assert.Equal(t, int64(8000), got[0].Total.Cents)
	assert.Equal(t, int64(2000), got[1].Total.Cents)
	for _, b := range got {
		assert.Equal(t, core.VariantDetailed, b.Variant)
	}

	t.Run("detail elision keeps totals", func(t *testing.T) {
		onlyFood, err := svc.AggregateByCategory(ctx, ownerA, start, end, core.NewDetailFilter("Food"))
		require.NoError(t, err)
		foodAndGym, err := svc.AggregateByCategory(ctx, ownerA, start, end, core.NewDetailFilter("Food", "Gym"))
		require.NoError(t, err)

		for i := range got {
			assert.Equal(t, got[i].Total, onlyFood[i].Total)
			assert.Equal(t, got[i].Total, foodAndGym[i].Total)
		}
		assert.Len(t, onlyFood[0].Members, 2)
		assert.Empty(t, onlyFood[1].Members)
		assert.Equal(t, core.VariantSummary, onlyFood[1].Variant)
		assert.Len(t, foodAndGym[1].Members, 1)
	})

	t.Run("invalid owner never reaches store", func(t *testing.T) {
		fs := &failingStore{err: errStoreDown}
		_, err := NewCategoryReportService(fs, testLogger()).AggregateByCategory(ctx, "x", start, end, nil)
		assert.ErrorIs(t, err, core.ErrInvalidOwner)
		assert.Zero(t, fs.calls)
	})

	t.Run("store error returned unchanged", func(t *testing.T) {
		fs := &failingStore{err: errStoreDown}
		_, err := NewCategoryReportService(fs, testLogger()).AggregateByCategory(ctx, ownerA, start, end, nil)
		assert.Equal(t, errStoreDown, err)
		assert.Equal(t, 1, fs.calls)
	})
}
