package store

import (
	"context"
	"time"

	"ledger/internal/core"
)

// Ports for the ledger store and outbound adapters.
type (
	TransactionReader interface {
		// FindByOwner returns every stored transaction of owner in insertion order.
		FindByOwner(ctx context.Context, owner string) ([]core.Transaction, error)
	}

	TransactionWriter interface {
		Insert(ctx context.Context, tx core.Transaction) error
		// Update replaces the mutable fields of the row matching tx.ID and tx.Owner.
		// It returns core.ErrNotFound when no such row exists.
		Update(ctx context.Context, tx core.Transaction) error
		Delete(ctx context.Context, owner, id string) error
	}

	// CategoryAggregator groups an owner's stored expenses by category in one
	// round-trip. Rows with an unset date are always included; dated rows must
	// fall in [start, end]. Buckets come back ordered by total descending, ties
	// in first-seen order, members in insertion order.
	CategoryAggregator interface {
		AggregateExpensesByCategory(ctx context.Context, owner string, start, end core.Date) ([]core.CategoryBucket, error)
	}

	OwnerLister interface {
		ListOwners(ctx context.Context) ([]string, error)
	}

	// Store is the full ledger store.
	Store interface {
		TransactionReader
		TransactionWriter
		CategoryAggregator
		OwnerLister
		Close() error
	}

	// SummaryWriter appends a rendered owner summary to an external sheet.
	SummaryWriter interface {
		AppendSummary(ctx context.Context, row SummaryRow) (rowRef string, err error)
	}
)

// SummaryRow is one exported snapshot of an owner's ledger.
type SummaryRow struct {
	Owner      string
	ExportedAt time.Time
	Summary    core.WindowSummary
	Top        core.TopCategories
}
