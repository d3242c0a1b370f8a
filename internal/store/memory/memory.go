// Package memory is an in-process ledger store used for development and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"ledger/internal/core"
)

type Store struct {
	mu    sync.Mutex
	items []core.Transaction
}

func New(seed ...core.Transaction) *Store {
	s := &Store{}
	s.items = append(s.items, seed...)
	return s
}

// Insert stores tx. Ids must be unique.
func (s *Store) Insert(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(tx.Owner, tx.ID) >= 0 {
		return fmt.Errorf("%w: duplicate id %q", core.ErrValidation, tx.ID)
	}
	s.items = append(s.items, tx)
	return nil
}

func (s *Store) Update(_ context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(tx.Owner, tx.ID)
	if i < 0 {
		return core.ErrNotFound
	}
	tx.CreatedAt = s.items[i].CreatedAt
	s.items[i] = tx
	return nil
}

func (s *Store) Delete(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(owner, id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

// FindByOwner returns a copy of owner's transactions in insertion order.
func (s *Store) FindByOwner(_ context.Context, owner string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, tx := range s.items {
		if tx.Owner == owner {
			out = append(out, tx)
		}
	}
	return out, nil
}

// AggregateExpensesByCategory mirrors the SQL aggregation of the SQLite store.
func (s *Store) AggregateExpensesByCategory(_ context.Context, owner string, start, end core.Date) ([]core.CategoryBucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := map[string]int{}
	var out []core.CategoryBucket
	for _, tx := range s.items {
		if tx.Owner != owner || tx.Kind != core.Expense {
			continue
		}
		if !tx.Date.IsEmpty() && !tx.Date.Between(start, end) {
			continue
		}
		label := tx.CategoryLabel()
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, core.CategoryBucket{Category: label, Kind: core.Expense, Variant: core.VariantDetailed})
		}
		out[i].Total = out[i].Total.Add(tx.Amount)
		out[i].Members = append(out[i].Members, core.BucketMember{
			ID:          tx.ID,
			Amount:      tx.Amount,
			Description: tx.Description,
			Date:        tx.Date,
		})
	}
	slices.SortStableFunc(out, func(a, b core.CategoryBucket) int {
		switch {
		case a.Total.Cents > b.Total.Cents:
			return -1
		case a.Total.Cents < b.Total.Cents:
			return 1
		default:
			return 0
		}
	})
	return out, nil
}

// ListOwners returns distinct owners in first-seen order.
func (s *Store) ListOwners(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for _, tx := range s.items {
		if _, ok := seen[tx.Owner]; ok {
			continue
		}
		seen[tx.Owner] = struct{}{}
		out = append(out, tx.Owner)
	}
	return out, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) indexOf(owner, id string) int {
	return slices.IndexFunc(s.items, func(tx core.Transaction) bool {
		return tx.Owner == owner && tx.ID == id
	})
}
