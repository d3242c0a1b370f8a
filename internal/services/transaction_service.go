package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/store"
)

// ChangePublisher announces ledger changes to downstream consumers.
type ChangePublisher interface {
	PublishTransactionChanged(ctx context.Context, msg *amqp.TransactionChangedMessage) error
	Close() error
}

// TransactionService orchestrates writes to the ledger store and publishes
// change notifications.
type TransactionService struct {
	store     store.Store
	publisher ChangePublisher
	clock     Clock
	logger    *log.Logger
	events    *log.StructuredLogger
}

// NewTransactionService wires the service. publisher may be nil.
func NewTransactionService(st store.Store, publisher ChangePublisher, clock Clock, logger *log.Logger) *TransactionService {
	return &TransactionService{
		store:     st,
		publisher: publisher,
		clock:     clock,
		logger:    logger.WithComponent(log.ComponentLedger),
		events:    log.NewStructuredLogger(logger),
	}
}

// Create assigns an id, validates and stores tx, then publishes a change message.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID != "" && core.IsProjectedID(tx.ID) {
		return core.Transaction{}, core.ErrProjectedReadOnly
	}
	now := s.clock()
	tx.ID = uuid.NewString()
	tx.TemplateID = ""
	tx.CreatedAt, tx.UpdatedAt = now, now
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.Insert(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	s.logChange(ctx, log.OpCreate, tx)
	s.publish(ctx, tx.Owner, tx.ID, amqp.OpCreated)
	return tx, nil
}

// Update replaces the stored row identified by tx.ID and tx.Owner.
func (s *TransactionService) Update(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if core.IsProjectedID(tx.ID) || tx.IsProjected() {
		return core.Transaction{}, core.ErrProjectedReadOnly
	}
	if tx.ID == "" {
		return core.Transaction{}, fmt.Errorf("%w: missing transaction id", core.ErrValidation)
	}
	tx.UpdatedAt = s.clock()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.Update(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.logChange(ctx, log.OpUpdate, tx)
	s.publish(ctx, tx.Owner, tx.ID, amqp.OpUpdated)
	return tx, nil
}

// Delete removes a stored row. Projected occurrences cannot be deleted.
func (s *TransactionService) Delete(ctx context.Context, owner, id string) error {
	if core.IsProjectedID(id) {
		return core.ErrProjectedReadOnly
	}
	if err := core.ValidateOwner(owner); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, owner, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldOwner, owner,
		log.FieldTxID, id,
		log.FieldOperation, log.OpDelete)
	s.publish(ctx, owner, id, amqp.OpDeleted)
	return nil
}

func (s *TransactionService) logChange(ctx context.Context, op string, tx core.Transaction) {
	s.events.LogTransactionChanged(ctx, op, tx.Owner,
		log.NewFields().WithTransaction(tx.ID, string(tx.Kind), tx.Category, tx.Amount.Cents))
}

// publish is best effort: the row is already stored, so failures are logged only.
func (s *TransactionService) publish(ctx context.Context, owner, id, op string) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No publisher configured, skipping change message")
		return
	}
	msg := amqp.NewTransactionChangedMessage(owner, id, op, s.clock())
	if err := s.publisher.PublishTransactionChanged(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish change message",
			log.FieldOwner, owner,
			log.FieldTxID, id,
			log.FieldError, err)
	}
}

// Close closes both the store and the publisher.
func (s *TransactionService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close transaction service: %w", err)
	}
	return nil
}
