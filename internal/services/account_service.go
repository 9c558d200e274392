package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"budgetmate/internal/core"

	"golang.org/x/crypto/bcrypt"
)

const sessionTokenBytes = 32

type AccountStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (core.User, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	CreateSession(ctx context.Context, tokenHash string, userID int64, createdAt, expiresAt time.Time) error
	SessionUser(ctx context.Context, tokenHash string, now time.Time) (core.User, error)
	DeleteSession(ctx context.Context, tokenHash string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// AccountService handles signup, login and server-side sessions.
type AccountService struct {
	store      AccountStore
	bcryptCost int
	sessionTTL time.Duration
	now        func() time.Time
}

func NewAccountService(store AccountStore, bcryptCost int, sessionTTL time.Duration) *AccountService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	return &AccountService{
		store:      store,
		bcryptCost: bcryptCost,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// Register validates the input and creates the user. A duplicate username
// returns core.ErrUsernameTaken.
func (s *AccountService) Register(ctx context.Context, username, password, confirm string) (core.User, error) {
	username = strings.TrimSpace(username)
	if err := core.ValidateCredentials(username, password, confirm); err != nil {
		return core.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, username, string(hash))
	if err != nil {
		if errors.Is(err, core.ErrUsernameTaken) {
			return core.User{}, err
		}
		return core.User{}, fmt.Errorf("register user: %w", err)
	}
	return user, nil
}

// Authenticate returns core.ErrInvalidCredentials for an unknown user or a
// wrong password.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (core.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, core.ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return core.User{}, core.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and opens a session. The returned Session carries the
// plaintext token; only its hash is stored.
func (s *AccountService) Login(ctx context.Context, username, password string) (core.Session, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return core.Session{}, err
	}

	token, err := newSessionToken()
	if err != nil {
		return core.Session{}, err
	}

	now := s.now()
	session := core.Session{
		Token:     token,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.store.CreateSession(ctx, hashToken(token), user.ID, session.CreatedAt, session.ExpiresAt); err != nil {
		return core.Session{}, fmt.Errorf("create session: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID, "expires_at", session.ExpiresAt)
	return session, nil
}

func (s *AccountService) SessionUser(ctx context.Context, token string) (core.User, error) {
	if token == "" {
		return core.User{}, core.ErrSessionNotFound
	}
	return s.store.SessionUser(ctx, hashToken(token), s.now())
}

// Logout deletes the session. Unknown tokens are ignored.
func (s *AccountService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.DeleteSession(ctx, hashToken(token))
}

func (s *AccountService) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return s.store.DeleteExpiredSessions(ctx, now)
}

func (s *AccountService) SessionTTL() time.Duration {
	return s.sessionTTL
}

func newSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
