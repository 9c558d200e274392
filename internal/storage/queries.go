package storage

import (
	"context"
)

const createUser = `-- name: CreateUser :one
INSERT INTO users (username, password_hash, created_at)
VALUES (?, ?, ?)
RETURNING id, username, password_hash, created_at
`

type CreateUserParams struct {
	Username     string
	PasswordHash string
	CreatedAt    int64
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser, arg.Username, arg.PasswordHash, arg.CreatedAt)
	var i User
	err := row.Scan(&i.ID, &i.Username, &i.PasswordHash, &i.CreatedAt)
	return i, err
}

const getUserByUsername = `-- name: GetUserByUsername :one
SELECT id, username, password_hash, created_at FROM users
WHERE username = ?
`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByUsername, username)
	var i User
	err := row.Scan(&i.ID, &i.Username, &i.PasswordHash, &i.CreatedAt)
	return i, err
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, username, password_hash, created_at FROM users
WHERE id = ?
`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByID, id)
	var i User
	err := row.Scan(&i.ID, &i.Username, &i.PasswordHash, &i.CreatedAt)
	return i, err
}

const countUsersByUsername = `-- name: CountUsersByUsername :one
SELECT COUNT(*) FROM users WHERE username = ?
`

func (q *Queries) CountUsersByUsername(ctx context.Context, username string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countUsersByUsername, username)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createSession = `-- name: CreateSession :exec
INSERT INTO sessions (token_hash, user_id, created_at, expires_at)
VALUES (?, ?, ?, ?)
`

type CreateSessionParams struct {
	TokenHash string
	UserID    int64
	CreatedAt int64
	ExpiresAt int64
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) error {
	_, err := q.db.ExecContext(ctx, createSession, arg.TokenHash, arg.UserID, arg.CreatedAt, arg.ExpiresAt)
	return err
}

const getSessionUser = `-- name: GetSessionUser :one
SELECT u.id, u.username, u.password_hash, u.created_at, s.expires_at
FROM sessions s
JOIN users u ON u.id = s.user_id
WHERE s.token_hash = ? AND s.expires_at > ?
`

type GetSessionUserRow struct {
	User      User
	ExpiresAt int64
}

func (q *Queries) GetSessionUser(ctx context.Context, tokenHash string, now int64) (GetSessionUserRow, error) {
	row := q.db.QueryRowContext(ctx, getSessionUser, tokenHash, now)
	var i GetSessionUserRow
	err := row.Scan(&i.User.ID, &i.User.Username, &i.User.PasswordHash, &i.User.CreatedAt, &i.ExpiresAt)
	return i, err
}

const deleteSession = `-- name: DeleteSession :exec
DELETE FROM sessions WHERE token_hash = ?
`

func (q *Queries) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := q.db.ExecContext(ctx, deleteSession, tokenHash)
	return err
}

const deleteExpiredSessions = `-- name: DeleteExpiredSessions :execrows
DELETE FROM sessions WHERE expires_at <= ?
`

func (q *Queries) DeleteExpiredSessions(ctx context.Context, now int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpiredSessions, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const ensureBudget = `-- name: EnsureBudget :exec
INSERT INTO budgets (user_id, month, amount_cents)
VALUES (?, ?, 0)
ON CONFLICT (user_id, month) DO NOTHING
`

func (q *Queries) EnsureBudget(ctx context.Context, userID int64, month string) error {
	_, err := q.db.ExecContext(ctx, ensureBudget, userID, month)
	return err
}

const getBudget = `-- name: GetBudget :one
SELECT id, user_id, month, amount_cents FROM budgets
WHERE user_id = ? AND month = ?
`

func (q *Queries) GetBudget(ctx context.Context, userID int64, month string) (Budget, error) {
	row := q.db.QueryRowContext(ctx, getBudget, userID, month)
	var i Budget
	err := row.Scan(&i.ID, &i.UserID, &i.Month, &i.AmountCents)
	return i, err
}

const upsertBudget = `-- name: UpsertBudget :exec
INSERT INTO budgets (user_id, month, amount_cents)
VALUES (?, ?, ?)
ON CONFLICT (user_id, month) DO UPDATE SET amount_cents = excluded.amount_cents
`

func (q *Queries) UpsertBudget(ctx context.Context, userID int64, month string, amountCents int64) error {
	_, err := q.db.ExecContext(ctx, upsertBudget, userID, month, amountCents)
	return err
}

const countBudgets = `-- name: CountBudgets :one
SELECT COUNT(*) FROM budgets WHERE user_id = ? AND month = ?
`

func (q *Queries) CountBudgets(ctx context.Context, userID int64, month string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countBudgets, userID, month)
	var count int64
	err := row.Scan(&count)
	return count, err
}

// WHERE true keeps SQLite from reading ON CONFLICT as a join constraint.
const openMonthForAllUsers = `-- name: OpenMonthForAllUsers :execrows
INSERT INTO budgets (user_id, month, amount_cents)
SELECT id, ?, 0 FROM users WHERE true
ON CONFLICT (user_id, month) DO NOTHING
`

func (q *Queries) OpenMonthForAllUsers(ctx context.Context, month string) (int64, error) {
	result, err := q.db.ExecContext(ctx, openMonthForAllUsers, month)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createTransaction = `-- name: CreateTransaction :one
INSERT INTO transactions (user_id, type, category, amount_cents, date, note, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id, user_id, type, category, amount_cents, date, note, created_at
`

type CreateTransactionParams struct {
	UserID      int64
	Type        string
	Category    string
	AmountCents int64
	Date        string
	Note        string
	CreatedAt   int64
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.UserID,
		arg.Type,
		arg.Category,
		arg.AmountCents,
		arg.Date,
		arg.Note,
		arg.CreatedAt,
	)
	var i Transaction
	err := row.Scan(&i.ID, &i.UserID, &i.Type, &i.Category, &i.AmountCents, &i.Date, &i.Note, &i.CreatedAt)
	return i, err
}

const listTransactionsByUser = `-- name: ListTransactionsByUser :many
SELECT id, user_id, type, category, amount_cents, date, note, created_at FROM transactions
WHERE user_id = ?
ORDER BY id
`

func (q *Queries) ListTransactionsByUser(ctx context.Context, userID int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(&i.ID, &i.UserID, &i.Type, &i.Category, &i.AmountCents, &i.Date, &i.Note, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listAllTransactions = `-- name: ListAllTransactions :many
SELECT t.id, t.user_id, t.type, t.category, t.amount_cents, t.date, t.note, t.created_at, u.username
FROM transactions t
JOIN users u ON u.id = t.user_id
ORDER BY t.id
`

type ListAllTransactionsRow struct {
	Transaction
	Username string
}

func (q *Queries) ListAllTransactions(ctx context.Context) ([]ListAllTransactionsRow, error) {
	rows, err := q.db.QueryContext(ctx, listAllTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListAllTransactionsRow
	for rows.Next() {
		var i ListAllTransactionsRow
		if err := rows.Scan(&i.ID, &i.UserID, &i.Type, &i.Category, &i.AmountCents, &i.Date, &i.Note, &i.CreatedAt, &i.Username); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteTransaction = `-- name: DeleteTransaction :one
DELETE FROM transactions
WHERE id = ? AND user_id = ?
RETURNING id, user_id, type, category, amount_cents, date, note, created_at
`

func (q *Queries) DeleteTransaction(ctx context.Context, id, userID int64) (Transaction, error) {
	row := q.db.QueryRowContext(ctx, deleteTransaction, id, userID)
	var i Transaction
	err := row.Scan(&i.ID, &i.UserID, &i.Type, &i.Category, &i.AmountCents, &i.Date, &i.Note, &i.CreatedAt)
	return i, err
}

const sumExpensesByUser = `-- name: SumExpensesByUser :one
SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
WHERE user_id = ? AND type = 'Expense'
`

func (q *Queries) SumExpensesByUser(ctx context.Context, userID int64) (int64, error) {
	row := q.db.QueryRowContext(ctx, sumExpensesByUser, userID)
	var total int64
	err := row.Scan(&total)
	return total, err
}

const createGoal = `-- name: CreateGoal :one
INSERT INTO goals (user_id, name, target_amount_cents, saved_amount_cents)
VALUES (?, ?, ?, ?)
RETURNING id, user_id, name, target_amount_cents, saved_amount_cents
`

type CreateGoalParams struct {
	UserID            int64
	Name              string
	TargetAmountCents int64
	SavedAmountCents  int64
}

func (q *Queries) CreateGoal(ctx context.Context, arg CreateGoalParams) (Goal, error) {
	row := q.db.QueryRowContext(ctx, createGoal, arg.UserID, arg.Name, arg.TargetAmountCents, arg.SavedAmountCents)
	var i Goal
	err := row.Scan(&i.ID, &i.UserID, &i.Name, &i.TargetAmountCents, &i.SavedAmountCents)
	return i, err
}

const listGoalsByUser = `-- name: ListGoalsByUser :many
SELECT id, user_id, name, target_amount_cents, saved_amount_cents FROM goals
WHERE user_id = ?
ORDER BY id
`

func (q *Queries) ListGoalsByUser(ctx context.Context, userID int64) ([]Goal, error) {
	rows, err := q.db.QueryContext(ctx, listGoalsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Goal
	for rows.Next() {
		var i Goal
		if err := rows.Scan(&i.ID, &i.UserID, &i.Name, &i.TargetAmountCents, &i.SavedAmountCents); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateGoal = `-- name: UpdateGoal :execrows
UPDATE goals
SET name = ?, target_amount_cents = ?, saved_amount_cents = ?
WHERE id = ? AND user_id = ?
`

type UpdateGoalParams struct {
	Name              string
	TargetAmountCents int64
	SavedAmountCents  int64
	ID                int64
	UserID            int64
}

func (q *Queries) UpdateGoal(ctx context.Context, arg UpdateGoalParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateGoal,
		arg.Name,
		arg.TargetAmountCents,
		arg.SavedAmountCents,
		arg.ID,
		arg.UserID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteGoal = `-- name: DeleteGoal :execrows
DELETE FROM goals WHERE id = ? AND user_id = ?
`

func (q *Queries) DeleteGoal(ctx context.Context, id, userID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteGoal, id, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
