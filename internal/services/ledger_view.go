package services

import (
	"context"
	"time"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/store"
)

// Clock returns the current time. Services never read the wall clock directly.
type Clock func() time.Time

// LedgerViewBuilder merges stored rows with their projected occurrences.
type LedgerViewBuilder struct {
	reader    store.TransactionReader
	projector *Projector
	logger    *log.Logger
}

func NewLedgerViewBuilder(reader store.TransactionReader, projector *Projector, logger *log.Logger) *LedgerViewBuilder {
	return &LedgerViewBuilder{
		reader:    reader,
		projector: projector,
		logger:    logger.WithComponent(log.ComponentLedger),
	}
}

// BuildView returns owner's stored transactions followed by the occurrences
// projected up to now. Store errors are returned unchanged.
func (b *LedgerViewBuilder) BuildView(ctx context.Context, owner string, now time.Time) ([]core.Transaction, error) {
	if err := core.ValidateOwner(owner); err != nil {
		return nil, err
	}
	stored, err := b.reader.FindByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	projected := b.projector.Project(ctx, stored, now)

	view := make([]core.Transaction, 0, len(stored)+len(projected))
	view = append(view, stored...)
	view = append(view, projected...)

	b.logger.DebugContext(ctx, "Ledger view built",
		log.FieldOwner, owner,
		log.FieldCount, len(view),
		"projected", len(projected))
	return view, nil
}
