// Package worker exports owner summaries to Google Sheets in response to
// ledger change events.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/store"
)

// Config tunes a SummaryWorker.
type Config struct {
	TopCategories int
	Concurrency   int
}

// SummaryWorker rebuilds an owner's summary and appends it to the export sheet
type SummaryWorker struct {
	views      *services.LedgerViewBuilder
	summarizer *services.Summarizer
	owners     store.OwnerLister
	writer     store.SummaryWriter
	dedupe     *cache.Deduper
	clock      services.Clock
	cfg        Config
	logger     *log.Logger
}

func NewSummaryWorker(
	views *services.LedgerViewBuilder,
	summarizer *services.Summarizer,
	owners store.OwnerLister,
	writer store.SummaryWriter,
	dedupe *cache.Deduper,
	clock services.Clock,
	cfg Config,
	logger *log.Logger,
) *SummaryWorker {
	if cfg.TopCategories <= 0 {
		cfg.TopCategories = services.DefaultTopCategories
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if clock == nil {
		clock = time.Now
	}
	return &SummaryWorker{
		views:      views,
		summarizer: summarizer,
		owners:     owners,
		writer:     writer,
		dedupe:     dedupe,
		clock:      clock,
		cfg:        cfg,
		logger:     logger.WithComponent(log.ComponentWorker),
	}
}

// HandleChangeMessage processes one transaction change message. Messages
// already handled within the dedupe TTL are acknowledged without work.
func (w *SummaryWorker) HandleChangeMessage(ctx context.Context, msg *amqp.TransactionChangedMessage) error {
	if msg == nil {
		return errors.New("nil message")
	}
	if w.dedupe != nil && w.dedupe.Seen(msg.MessageID) {
		w.logger.DebugContext(ctx, "Skipping duplicate change message",
			"message_id", msg.MessageID,
			log.FieldOwner, msg.Owner)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing change message",
		"message_id", msg.MessageID,
		log.FieldOwner, msg.Owner,
		log.FieldTxID, msg.TransactionID,
		log.FieldOperation, msg.Operation)

	if err := w.ExportOwner(ctx, msg.Owner); err != nil {
		return err
	}
	if w.dedupe != nil {
		w.dedupe.Mark(msg.MessageID)
	}
	return nil
}

// ExportOwner appends a fresh summary row for owner.
func (w *SummaryWorker) ExportOwner(ctx context.Context, owner string) error {
	row, err := w.BuildRow(ctx, owner)
	if err != nil {
		return err
	}
	ref, err := w.writer.AppendSummary(ctx, row)
	if err != nil {
		return fmt.Errorf("append summary for %s: %w", owner, err)
	}
	w.logger.InfoContext(ctx, "Exported owner summary",
		log.FieldOwner, owner,
		log.FieldSheetsRef, ref,
		"annual_balance_cents", row.Summary.AnnualBalance.Cents)
	return nil
}

// BuildRow computes the summary snapshot of owner at the worker's clock.
func (w *SummaryWorker) BuildRow(ctx context.Context, owner string) (store.SummaryRow, error) {
	now := w.clock()
	view, err := w.views.BuildView(ctx, owner, now)
	if err != nil {
		return store.SummaryRow{}, fmt.Errorf("build view for %s: %w", owner, err)
	}
	return store.SummaryRow{
		Owner:      owner,
		ExportedAt: now,
		Summary:    w.summarizer.Summarize(view, now),
		Top:        w.summarizer.TopCategories(view, now, w.cfg.TopCategories),
	}, nil
}

// ExportAll exports every known owner with bounded concurrency. Owners that
// fail are logged and reported together; the others still export.
func (w *SummaryWorker) ExportAll(ctx context.Context) error {
	owners, err := w.owners.ListOwners(ctx)
	if err != nil {
		return fmt.Errorf("list owners: %w", err)
	}
	if len(owners) == 0 {
		w.logger.InfoContext(ctx, "No owners to export")
		return nil
	}

	errs := make([]error, len(owners))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.Concurrency)
	for i, owner := range owners {
		if err := core.ValidateOwner(owner); err != nil {
			w.logger.WarnContext(ctx, "Skipping owner with invalid reference",
				log.FieldOwner, owner,
				log.FieldErrorType, log.ErrorTypeDataIntegrity)
			continue
		}
		g.Go(func() error {
			if err := w.ExportOwner(gctx, owner); err != nil {
				w.logger.ErrorContext(gctx, "Owner export failed", log.FieldOwner, owner, log.FieldError, err)
				errs[i] = err
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, e := range errs {
		if e != nil {
			failed++
		}
	}
	w.logger.InfoContext(ctx, "Startup export completed",
		log.FieldCount, len(owners),
		"failed", failed)
	return errors.Join(errs...)
}
