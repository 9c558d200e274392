package services

import (
	"context"
	"fmt"

	"budgetmate/internal/core"
)

type BudgetStore interface {
	GetOrCreateBudget(ctx context.Context, userID int64, month core.Month) (core.Budget, error)
	SetBudget(ctx context.Context, userID int64, month core.Month, amount core.Money) (core.Budget, error)
	OpenMonth(ctx context.Context, month core.Month) (int64, error)
	TotalExpenses(ctx context.Context, userID int64) (core.Money, error)
}

type BudgetService struct {
	store BudgetStore
}

func NewBudgetService(store BudgetStore) *BudgetService {
	return &BudgetService{store: store}
}

// GetOrCreateMonthBudget returns the month's budget, 0 for a new month.
func (s *BudgetService) GetOrCreateMonthBudget(ctx context.Context, userID int64, month core.Month) (core.Money, error) {
	if err := month.Validate(); err != nil {
		return core.Money{}, err
	}
	b, err := s.store.GetOrCreateBudget(ctx, userID, month)
	if err != nil {
		return core.Money{}, fmt.Errorf("get month budget: %w", err)
	}
	return b.Amount, nil
}

func (s *BudgetService) SetBudget(ctx context.Context, userID int64, month core.Month, amount core.Money) error {
	if err := month.Validate(); err != nil {
		return err
	}
	if err := amount.Validate(); err != nil {
		return core.NewValidationError("budget", "Budget must be zero or more.")
	}
	if _, err := s.store.SetBudget(ctx, userID, month, amount); err != nil {
		return fmt.Errorf("set budget: %w", err)
	}
	return nil
}

// Summary compares the month's budget with the user's total expenses.
// Spending is not limited to the month.
func (s *BudgetService) Summary(ctx context.Context, userID int64, month core.Month) (core.BudgetSummary, error) {
	budget, err := s.GetOrCreateMonthBudget(ctx, userID, month)
	if err != nil {
		return core.BudgetSummary{}, err
	}
	spent, err := s.store.TotalExpenses(ctx, userID)
	if err != nil {
		return core.BudgetSummary{}, fmt.Errorf("total expenses: %w", err)
	}
	return core.NewBudgetSummary(month, budget, spent), nil
}

// OpenMonth creates the zero budget row for every user lacking one.
func (s *BudgetService) OpenMonth(ctx context.Context, month core.Month) (int64, error) {
	if err := month.Validate(); err != nil {
		return 0, err
	}
	n, err := s.store.OpenMonth(ctx, month)
	if err != nil {
		return 0, fmt.Errorf("open month %s: %w", month, err)
	}
	return n, nil
}
