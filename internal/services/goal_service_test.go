package services

import (
	"context"
	"testing"

	"budgetmate/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoalService_AddAndList(t *testing.T) {
	store := newTestStore(t)
	svc := NewGoalService(store)
	ctx := context.Background()
	u := newTestUser(t, store, "alice")

	g, err := svc.Add(ctx, u.ID, "  Bike  ", mustMoney(t, "200"), mustMoney(t, "250"))
	require.NoError(t, err)
	assert.Equal(t, "Bike", g.Name)
	assert.Equal(t, 1.0, g.Progress())
	assert.True(t, g.Completed())

	zero, err := svc.Add(ctx, u.ID, "Someday", core.Money{}, mustMoney(t, "10"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, zero.Progress())
	assert.False(t, zero.Completed())

	goals, err := svc.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, g.ID, goals[0].ID)

	_, err = svc.Add(ctx, u.ID, "   ", core.Money{}, core.Money{})
	assert.True(t, core.IsValidationError(err))
}

func TestGoalService_UpdateAndDeleteOwnership(t *testing.T) {
	store := newTestStore(t)
	svc := NewGoalService(store)
	ctx := context.Background()
	a := newTestUser(t, store, "alice")
	b := newTestUser(t, store, "bob")

	g, err := svc.Add(ctx, a.ID, "Trip", mustMoney(t, "1000"), mustMoney(t, "100"))
	require.NoError(t, err)

	require.NoError(t, svc.Update(ctx, b.ID, g.ID, "Stolen", mustMoney(t, "1"), mustMoney(t, "1")))
	require.NoError(t, svc.Delete(ctx, b.ID, g.ID))

	goals, err := svc.List(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "Trip", goals[0].Name)

	require.NoError(t, svc.Update(ctx, a.ID, g.ID, "Trip to Rome", mustMoney(t, "1000"), mustMoney(t, "500")))
	goals, err = svc.List(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trip to Rome", goals[0].Name)
	assert.Equal(t, 50, goals[0].Percent())

	err = svc.Update(ctx, a.ID, g.ID, "Trip", core.Money{Cents: -1}, core.Money{})
	assert.True(t, core.IsValidationError(err))

	require.NoError(t, svc.Delete(ctx, a.ID, g.ID))
	goals, err = svc.List(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, goals)
}
