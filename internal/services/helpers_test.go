package services

import (
	"context"
	"path/filepath"
	"testing"

	"budgetmate/internal/core"
	"budgetmate/internal/storage"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newTestUser(t *testing.T, store *storage.SQLiteRepository, username string) core.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), username, "x")
	require.NoError(t, err)
	return u
}

func mustMoney(t *testing.T, s string) core.Money {
	t.Helper()
	m, err := core.ParseMoney(s)
	require.NoError(t, err)
	return m
}

func expense(t *testing.T, amount, date string, category core.Category) core.NewTransaction {
	t.Helper()
	d, err := core.ParseDate(date)
	require.NoError(t, err)
	return core.NewTransaction{
		Type:     core.Expense,
		Category: category,
		Amount:   mustMoney(t, amount),
		Date:     d,
	}
}
