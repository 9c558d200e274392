package services

import (
	"context"
	"testing"
	"time"

	"budgetmate/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAccounts(t *testing.T) *AccountService {
	t.Helper()
	return NewAccountService(newTestStore(t), bcrypt.MinCost, time.Hour)
}

func TestAccountService_Register(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		confirm  string
		field    string
	}{
		{"short username", "al", "secret1", "secret1", "username"},
		{"bad characters", "al ice", "secret1", "secret1", "username"},
		{"mismatch", "alice", "secret1", "secret2", "confirm_password"},
		{"short password", "alice", "abc", "abc", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestAccounts(t)
			_, err := svc.Register(context.Background(), tt.username, tt.password, tt.confirm)
			var ve *core.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestAccountService_RegisterTwice(t *testing.T) {
	store := newTestStore(t)
	svc := NewAccountService(store, bcrypt.MinCost, time.Hour)
	ctx := context.Background()

	u, err := svc.Register(ctx, " alice ", "secret1", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	_, err = svc.Register(ctx, "alice", "another1", "another1")
	assert.ErrorIs(t, err, core.ErrUsernameTaken)
	n, err := store.CountUsers(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// the first password still works
	_, err = svc.Authenticate(ctx, "alice", "secret1")
	assert.NoError(t, err)
}

func TestAccountService_Authenticate(t *testing.T) {
	svc := newTestAccounts(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "alice", "secret1", "secret1")
	require.NoError(t, err)

	for _, pw := range []string{"", "secret", "secret12", "SECRET1"} {
		_, err := svc.Authenticate(ctx, "alice", pw)
		assert.ErrorIs(t, err, core.ErrInvalidCredentials, "password %q", pw)
	}

	_, err = svc.Authenticate(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
}

func TestAccountService_SessionLifecycle(t *testing.T) {
	svc := newTestAccounts(t)
	ctx := context.Background()
	u, err := svc.Register(ctx, "alice", "secret1", "secret1")
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	session, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Len(t, session.Token, 2*sessionTokenBytes)
	assert.Equal(t, now.Add(time.Hour), session.ExpiresAt)

	got, err := svc.SessionUser(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.SessionUser(ctx, "")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)
	_, err = svc.SessionUser(ctx, "unknown")
	assert.ErrorIs(t, err, core.ErrSessionNotFound)

	now = now.Add(2 * time.Hour)
	_, err = svc.SessionUser(ctx, session.Token)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)

	n, err := svc.PurgeExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestAccountService_Logout(t *testing.T) {
	svc := newTestAccounts(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, "alice", "secret1", "secret1")
	require.NoError(t, err)

	session, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, session.Token))
	_, err = svc.SessionUser(ctx, session.Token)
	assert.ErrorIs(t, err, core.ErrSessionNotFound)

	assert.NoError(t, svc.Logout(ctx, session.Token))
	assert.NoError(t, svc.Logout(ctx, ""))
}

func TestHashToken(t *testing.T) {
	a := hashToken("token")
	assert.Equal(t, a, hashToken("token"))
	assert.NotEqual(t, a, hashToken("token2"))
	assert.NotContains(t, a, "token")
}
