package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"budgetmate/internal/core"
)

type GoalStore interface {
	CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
	ListGoals(ctx context.Context, userID int64) ([]core.Goal, error)
	UpdateGoal(ctx context.Context, g core.Goal) error
	DeleteGoal(ctx context.Context, userID, id int64) error
}

type GoalService struct {
	store GoalStore
}

func NewGoalService(store GoalStore) *GoalService {
	return &GoalService{store: store}
}

func (s *GoalService) Add(ctx context.Context, userID int64, name string, target, saved core.Money) (core.Goal, error) {
	g := core.Goal{UserID: userID, Name: strings.TrimSpace(name), Target: target, Saved: saved}
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	created, err := s.store.CreateGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("save goal: %w", err)
	}
	return created, nil
}

func (s *GoalService) List(ctx context.Context, userID int64) ([]core.Goal, error) {
	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// Update rewrites name, target and saved. A goal the user does not own is
// left untouched without error.
func (s *GoalService) Update(ctx context.Context, userID, id int64, name string, target, saved core.Money) error {
	g := core.Goal{ID: id, UserID: userID, Name: strings.TrimSpace(name), Target: target, Saved: saved}
	if err := g.Validate(); err != nil {
		return err
	}
	err := s.store.UpdateGoal(ctx, g)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return nil
}

func (s *GoalService) Delete(ctx context.Context, userID, id int64) error {
	err := s.store.DeleteGoal(ctx, userID, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}
