package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"budgetmate/internal/core"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// DSN builds the connection string used by the repository and migrations.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping backs the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// inTx runs fn inside one transaction, committing when fn returns nil.
func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash string) (core.User, error) {
	row, err := r.queries.CreateUser(ctx, CreateUserParams{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().Unix(),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, core.ErrUsernameTaken
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", row.ID, "username", row.Username)
	return toCoreUser(row), nil
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	row, err := r.queries.GetUserByUsername(ctx, username)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return toCoreUser(row), nil
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	row, err := r.queries.GetUserByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return toCoreUser(row), nil
}

func (r *SQLiteRepository) CreateSession(ctx context.Context, tokenHash string, userID int64, createdAt, expiresAt time.Time) error {
	err := r.queries.CreateSession(ctx, CreateSessionParams{
		TokenHash: tokenHash,
		UserID:    userID,
		CreatedAt: createdAt.Unix(),
		ExpiresAt: expiresAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// SessionUser resolves an unexpired session to its user.
func (r *SQLiteRepository) SessionUser(ctx context.Context, tokenHash string, now time.Time) (core.User, error) {
	row, err := r.queries.GetSessionUser(ctx, tokenHash, now.Unix())
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrSessionNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get session user: %w", err)
	}
	return toCoreUser(row.User), nil
}

func (r *SQLiteRepository) DeleteSession(ctx context.Context, tokenHash string) error {
	if err := r.queries.DeleteSession(ctx, tokenHash); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	n, err := r.queries.DeleteExpiredSessions(ctx, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return n, nil
}

// GetOrCreateBudget returns the user's budget for month, inserting a zero
// budget when none exists. Concurrent callers converge on one row.
func (r *SQLiteRepository) GetOrCreateBudget(ctx context.Context, userID int64, month core.Month) (core.Budget, error) {
	var row Budget
	err := r.inTx(ctx, func(q *Queries) error {
		if err := q.EnsureBudget(ctx, userID, month.String()); err != nil {
			return fmt.Errorf("ensure budget: %w", err)
		}
		var err error
		row, err = q.GetBudget(ctx, userID, month.String())
		if err != nil {
			return fmt.Errorf("get budget: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Budget{}, err
	}
	return toCoreBudget(row), nil
}

func (r *SQLiteRepository) SetBudget(ctx context.Context, userID int64, month core.Month, amount core.Money) (core.Budget, error) {
	var row Budget
	err := r.inTx(ctx, func(q *Queries) error {
		if err := q.UpsertBudget(ctx, userID, month.String(), amount.Cents); err != nil {
			return fmt.Errorf("upsert budget: %w", err)
		}
		var err error
		row, err = q.GetBudget(ctx, userID, month.String())
		if err != nil {
			return fmt.Errorf("get budget: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Budget{}, err
	}
	slog.InfoContext(ctx, "Budget updated", "user_id", userID, "month", month, "amount_cents", amount.Cents)
	return toCoreBudget(row), nil
}

// CountUsers reports how many accounts carry username.
func (r *SQLiteRepository) CountUsers(ctx context.Context, username string) (int64, error) {
	n, err := r.queries.CountUsersByUsername(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// CountBudgets reports how many budget rows exist for the user and month.
func (r *SQLiteRepository) CountBudgets(ctx context.Context, userID int64, month core.Month) (int64, error) {
	n, err := r.queries.CountBudgets(ctx, userID, month.String())
	if err != nil {
		return 0, fmt.Errorf("count budgets: %w", err)
	}
	return n, nil
}

// OpenMonth inserts a zero budget for every user lacking one for month.
func (r *SQLiteRepository) OpenMonth(ctx context.Context, month core.Month) (int64, error) {
	n, err := r.queries.OpenMonthForAllUsers(ctx, month.String())
	if err != nil {
		return 0, fmt.Errorf("open month: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) TotalExpenses(ctx context.Context, userID int64) (core.Money, error) {
	total, err := r.queries.SumExpensesByUser(ctx, userID)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: total}, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, userID int64, t core.NewTransaction) (core.Transaction, error) {
	row, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		UserID:      userID,
		Type:        string(t.Type),
		Category:    string(t.Category),
		AmountCents: t.Amount.Cents,
		Date:        t.Date.String(),
		Note:        t.Note,
		CreatedAt:   time.Now().Unix(),
	})
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", row.ID,
		"user_id", row.UserID,
		"type", row.Type,
		"category", row.Category,
		"amount_cents", row.AmountCents,
		"date", row.Date)

	return toCoreTransaction(row)
}

// ListTransactions returns the user's transactions in insertion order.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toCoreTransaction(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// LedgerEntries returns every transaction of every user with the owner's
// username, in insertion order.
func (r *SQLiteRepository) LedgerEntries(ctx context.Context) ([]core.LedgerEntry, error) {
	rows, err := r.queries.ListAllTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all transactions: %w", err)
	}
	out := make([]core.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		t, err := toCoreTransaction(row.Transaction)
		if err != nil {
			return nil, err
		}
		out = append(out, core.LedgerEntry{Transaction: t, Username: row.Username})
	}
	return out, nil
}

// DeleteTransaction removes a transaction owned by userID and returns it.
// A missing or foreign row yields core.ErrNotFound.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id int64) (core.Transaction, error) {
	row, err := r.queries.DeleteTransaction(ctx, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("delete transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id, "user_id", userID)
	return toCoreTransaction(row)
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	row, err := r.queries.CreateGoal(ctx, CreateGoalParams{
		UserID:            g.UserID,
		Name:              g.Name,
		TargetAmountCents: g.Target.Cents,
		SavedAmountCents:  g.Saved.Cents,
	})
	if err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}
	return toCoreGoal(row), nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID int64) ([]core.Goal, error) {
	rows, err := r.queries.ListGoalsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	out := make([]core.Goal, len(rows))
	for i, row := range rows {
		out[i] = toCoreGoal(row)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) error {
	n, err := r.queries.UpdateGoal(ctx, UpdateGoalParams{
		Name:              g.Name,
		TargetAmountCents: g.Target.Cents,
		SavedAmountCents:  g.Saved.Cents,
		ID:                g.ID,
		UserID:            g.UserID,
	})
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id int64) error {
	n, err := r.queries.DeleteGoal(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func toCoreUser(u User) core.User {
	return core.User{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		CreatedAt:    time.Unix(u.CreatedAt, 0).UTC(),
	}
}

func toCoreBudget(b Budget) core.Budget {
	return core.Budget{
		ID:     b.ID,
		UserID: b.UserID,
		Month:  core.Month(b.Month),
		Amount: core.Money{Cents: b.AmountCents},
	}
}

func toCoreTransaction(t Transaction) (core.Transaction, error) {
	date, err := core.ParseDate(t.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d has bad date %q: %w", t.ID, t.Date, err)
	}
	return core.Transaction{
		ID:       t.ID,
		UserID:   t.UserID,
		Type:     core.TransactionType(t.Type),
		Category: core.Category(t.Category),
		Amount:   core.Money{Cents: t.AmountCents},
		Date:     date,
		Note:     t.Note,
	}, nil
}

func toCoreGoal(g Goal) core.Goal {
	return core.Goal{
		ID:     g.ID,
		UserID: g.UserID,
		Name:   g.Name,
		Target: core.Money{Cents: g.TargetAmountCents},
		Saved:  core.Money{Cents: g.SavedAmountCents},
	}
}
