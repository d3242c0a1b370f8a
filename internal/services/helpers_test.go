package services

import (
	"context"
	"errors"
	"time"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/store"
)

const (
	ownerA = "5a0c3d1e-2b4f-4a6d-8e9f-0a1b2c3d4e5f"
	ownerB = "c7d8e9f0-1a2b-4c3d-9e4f-5a6b7c8d9e0f"
)

var errStoreDown = errors.New("store down")

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func testLogger() *log.Logger {
	return log.Discard(log.ComponentApp)
}

func tx(id string, kind core.Kind, cat string, cents int64, d core.Date) core.Transaction {
	return core.Transaction{
		ID:       id,
		Owner:    ownerA,
		Kind:     kind,
		Category: cat,
		Amount:   core.Money{Cents: cents},
		Date:     d,
	}
}

func recurring(id string, kind core.Kind, cat string, cents int64, anchor core.Date, f core.Frequency) core.Transaction {
	t := tx(id, kind, cat, cents, anchor)
	t.IsRecurring = true
	t.Frequency = f
	return t
}

func dates(txs []core.Transaction) []string {
	out := make([]string, len(txs))
	for i, t := range txs {
		out[i] = t.Date.String()
	}
	return out
}

// failingStore fails every call with err.
type failingStore struct {
	err   error
	calls int
}

var _ store.Store = (*failingStore)(nil)

func (f *failingStore) FindByOwner(context.Context, string) ([]core.Transaction, error) {
	f.calls++
	return nil, f.err
}

func (f *failingStore) Insert(context.Context, core.Transaction) error {
	f.calls++
	return f.err
}

func (f *failingStore) Update(context.Context, core.Transaction) error {
	f.calls++
	return f.err
}

func (f *failingStore) Delete(context.Context, string, string) error {
	f.calls++
	return f.err
}

func (f *failingStore) AggregateExpensesByCategory(context.Context, string, core.Date, core.Date) ([]core.CategoryBucket, error) {
	f.calls++
	return nil, f.err
}

func (f *failingStore) ListOwners(context.Context) ([]string, error) {
	f.calls++
	return nil, f.err
}

func (f *failingStore) Close() error { return nil }
