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

func TestLedgerViewBuilder_BuildView(t *testing.T) {
	st := memory.New(
		recurring("tpl", core.Expense, "Subscription", 2000, core.NewDate(2024, 1, 15), core.Monthly),
		tx("one", core.Expense, "Food", 500, core.NewDate(2024, 2, 1)),
	)
	other := tx("other", core.Expense, "Food", 1, core.NewDate(2024, 1, 1))
	other.Owner = ownerB
	require.NoError(t, st.Insert(context.Background(), other))

	b := NewLedgerViewBuilder(st, NewProjector(testLogger()), testLogger())
	view, err := b.BuildView(context.Background(), ownerA, time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	ids := make([]string, len(view))
	for i, v := range view {
		ids[i] = v.ID
	}
	assert.Equal(t, []string{"tpl", "one", "proj:tpl_2024-02-15", "proj:tpl_2024-03-15"}, ids)
}

func TestLedgerViewBuilder_Errors(t *testing.T) {
	t.Run("store error returned unchanged", func(t *testing.T) {
		fs := &failingStore{err: errStoreDown}
		b := NewLedgerViewBuilder(fs, NewProjector(testLogger()), testLogger())
		_, err := b.BuildView(context.Background(), ownerA, time.Now())
		assert.Equal(t, errStoreDown, err)
	})

	t.Run("invalid owner rejected before store", func(t *testing.T) {
		fs := &failingStore{err: errStoreDown}
		b := NewLedgerViewBuilder(fs, NewProjector(testLogger()), testLogger())
		_, err := b.BuildView(context.Background(), "nobody", time.Now())
		assert.ErrorIs(t, err, core.ErrInvalidOwner)
		assert.Zero(t, fs.calls)
	})

	t.Run("empty ledger", func(t *testing.T) {
		b := NewLedgerViewBuilder(memory.New(), NewProjector(testLogger()), testLogger())
		view, err := b.BuildView(context.Background(), ownerA, time.Now())
		require.NoError(t, err)
		assert.Empty(t, view)
	})
}
