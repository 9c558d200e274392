package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgetmate/internal/core"
)

type TransactionStore interface {
	CreateTransaction(ctx context.Context, userID int64, t core.NewTransaction) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id int64) (core.Transaction, error)
}

// TransactionPublisher announces ledger changes to other processes.
type TransactionPublisher interface {
	TransactionCreated(ctx context.Context, t core.Transaction) error
	TransactionDeleted(ctx context.Context, t core.Transaction) error
}

// Invalidator drops cached data derived from a user's transactions.
type Invalidator interface {
	InvalidateUser(userID int64)
}

// TransactionService records income and expenses. The store is the source
// of truth; events and cache invalidation follow a successful write.
type TransactionService struct {
	store     TransactionStore
	publisher TransactionPublisher
	cache     Invalidator
}

// NewTransactionService accepts a nil publisher or cache.
func NewTransactionService(store TransactionStore, publisher TransactionPublisher, cache Invalidator) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		cache:     cache,
	}
}

func (s *TransactionService) Add(ctx context.Context, userID int64, nt core.NewTransaction) (core.Transaction, error) {
	if err := nt.Validate(); err != nil {
		return core.Transaction{}, err
	}

	t, err := s.store.CreateTransaction(ctx, userID, nt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.invalidate(userID)

	if s.publisher != nil {
		if err := s.publisher.TransactionCreated(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to publish transaction event",
				"transaction_id", t.ID, "kind", "created", "error", err)
		}
	}

	return t, nil
}

func (s *TransactionService) List(ctx context.Context, userID int64) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Delete removes the transaction if userID owns it. Anything else is a
// silent no-op.
func (s *TransactionService) Delete(ctx context.Context, userID, id int64) error {
	t, err := s.store.DeleteTransaction(ctx, userID, id)
	if errors.Is(err, core.ErrNotFound) {
		slog.DebugContext(ctx, "Delete ignored, transaction not owned or missing", "user_id", userID, "transaction_id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.invalidate(userID)

	if s.publisher != nil {
		if err := s.publisher.TransactionDeleted(ctx, t); err != nil {
			slog.ErrorContext(ctx, "Failed to publish transaction event",
				"transaction_id", t.ID, "kind", "deleted", "error", err)
		}
	}
	return nil
}

func (s *TransactionService) invalidate(userID int64) {
	if s.cache != nil {
		s.cache.InvalidateUser(userID)
	}
}
