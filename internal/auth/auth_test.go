package auth_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"notekeeper/internal/auth"
	"notekeeper/internal/lib/jwt"
	"notekeeper/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth(t *testing.T) (*auth.Auth, *memory.MemoryRepo, *jwt.Codec) {
	t.Helper()

	store := memory.New()
	codec := jwt.NewCodec("test-secret-that-is-long-enough")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return auth.New(log, store, store, codec, time.Hour, 24*time.Hour), store, codec
}

func register(t *testing.T, a *auth.Auth) auth.TokenPair {
	t.Helper()

	pair, err := a.Register(context.Background(), "John", "Doe", "a@x.com", "password1")
	require.NoError(t, err)
	return pair
}

func TestAuth_Register(t *testing.T) {
	t.Parallel()

	a, store, _ := newTestAuth(t)

	pair := register(t, a)

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	user, err := store.UserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)

	tokens, err := store.ValidTokensByUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, tokens, 2)
}

func TestAuth_Register_DuplicateEmail(t *testing.T) {
	t.Parallel()

	a, _, _ := newTestAuth(t)

	register(t, a)

	_, err := a.Register(context.Background(), "Jane", "Doe", "a@x.com", "password2")
	assert.ErrorIs(t, err, auth.ErrUserExists)
}

func TestAuth_Authenticate_WrongPassword(t *testing.T) {
	t.Parallel()

	a, store, _ := newTestAuth(t)

	register(t, a)

	_, err := a.Authenticate(context.Background(), "a@x.com", "wrong-password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	// The failed attempt must not touch the ledger.
	user, err := store.UserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)

	tokens, err := store.ValidTokensByUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, tokens, 2)
}

func TestAuth_Authenticate_UnknownUser(t *testing.T) {
	t.Parallel()

	a, _, _ := newTestAuth(t)

	_, err := a.Authenticate(context.Background(), "nobody@x.com", "password1")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuth_Authenticate_RevokesPreviousTokens(t *testing.T) {
	t.Parallel()

	a, store, _ := newTestAuth(t)

	first := register(t, a)

	second, err := a.Authenticate(context.Background(), "a@x.com", "password1")
	require.NoError(t, err)

	user, err := store.UserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)

	// Exactly the second pair is left valid.
	valid, err := store.ValidTokensByUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, valid, 2)
	values := []string{valid[0].Token, valid[1].Token}
	assert.ElementsMatch(t, values, []string{second.AccessToken, second.RefreshToken})

	stored, err := store.TokenByValue(context.Background(), first.AccessToken)
	require.NoError(t, err)
	assert.True(t, stored.Revoked)

	stored, err = store.TokenByValue(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.True(t, stored.Revoked)
}

func TestAuth_Refresh(t *testing.T) {
	t.Parallel()

	a, store, _ := newTestAuth(t)

	first := register(t, a)

	pair, err := a.RefreshFromHeader(context.Background(), "Bearer "+first.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	// The replacement pair must be distinct from the revoked one even
	// when both mints happen within the same second; otherwise the old
	// access token would resolve to the fresh unrevoked row.
	assert.NotEqual(t, first.AccessToken, pair.AccessToken)
	assert.NotEqual(t, first.RefreshToken, pair.RefreshToken)

	// The presented pair is now revoked.
	stored, err := store.TokenByValue(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.True(t, stored.Revoked)

	stored, err = store.TokenByValue(context.Background(), first.AccessToken)
	require.NoError(t, err)
	assert.True(t, stored.Revoked)
}

func TestAuth_Refresh_Failures(t *testing.T) {
	t.Parallel()

	a, _, codec := newTestAuth(t)

	first := register(t, a)

	t.Run("missing header", func(t *testing.T) {
		_, err := a.RefreshFromHeader(context.Background(), "")
		assert.ErrorIs(t, err, auth.ErrAuthMissing)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		_, err := a.RefreshFromHeader(context.Background(), "Basic credentials")
		assert.ErrorIs(t, err, auth.ErrAuthMissing)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := a.RefreshFromHeader(context.Background(), "Bearer not-a-token")
		assert.ErrorIs(t, err, auth.ErrAuthMissing)
	})

	t.Run("access token used for refresh", func(t *testing.T) {
		_, err := a.RefreshFromHeader(context.Background(), "Bearer "+first.AccessToken)
		assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	})

	t.Run("refresh token never recorded", func(t *testing.T) {
		ghost, err := codec.Encode("a@x.com", jwt.KindRefresh, time.Hour)
		require.NoError(t, err)

		_, err = a.RefreshFromHeader(context.Background(), "Bearer "+ghost)
		assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	})

	t.Run("unknown subject", func(t *testing.T) {
		ghost, err := codec.Encode("nobody@x.com", jwt.KindRefresh, time.Hour)
		require.NoError(t, err)

		_, err = a.RefreshFromHeader(context.Background(), "Bearer "+ghost)
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})
}

func TestAuth_Refresh_ReplayLoses(t *testing.T) {
	t.Parallel()

	a, _, _ := newTestAuth(t)

	first := register(t, a)

	_, err := a.RefreshFromHeader(context.Background(), "Bearer "+first.RefreshToken)
	require.NoError(t, err)

	// Second use of the same refresh token observes it revoked.
	_, err = a.RefreshFromHeader(context.Background(), "Bearer "+first.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestAuth_Logout(t *testing.T) {
	t.Parallel()

	a, store, _ := newTestAuth(t)

	pair := register(t, a)

	// A second user's sessions must survive the first user's logout.
	otherPair, err := a.Register(context.Background(), "Jane", "Roe", "b@x.com", "password2")
	require.NoError(t, err)

	require.NoError(t, a.Logout(context.Background(), "Bearer "+pair.AccessToken))

	user, err := store.UserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)

	valid, err := store.ValidTokensByUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, valid)

	other, err := store.UserByEmail(context.Background(), "b@x.com")
	require.NoError(t, err)

	otherValid, err := store.ValidTokensByUser(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Len(t, otherValid, 2)

	stored, err := store.TokenByValue(context.Background(), otherPair.AccessToken)
	require.NoError(t, err)
	assert.False(t, stored.Revoked)
}

func TestAuth_Logout_NoHeaderIsNoop(t *testing.T) {
	t.Parallel()

	a, _, _ := newTestAuth(t)

	assert.NoError(t, a.Logout(context.Background(), ""))
	assert.NoError(t, a.Logout(context.Background(), "Basic credentials"))
	assert.NoError(t, a.Logout(context.Background(), "Bearer garbage"))
}

func TestAuth_Logout_ExpiredTokenStillRevokes(t *testing.T) {
	t.Parallel()

	store := memory.New()
	codec := jwt.NewCodec("test-secret-that-is-long-enough")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Access tokens expire immediately; refresh tokens stay valid.
	a := auth.New(log, store, store, codec, -time.Minute, 24*time.Hour)

	pair, err := a.Register(context.Background(), "John", "Doe", "a@x.com", "password1")
	require.NoError(t, err)

	require.NoError(t, a.Logout(context.Background(), "Bearer "+pair.AccessToken))

	user, err := store.UserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)

	valid, err := store.ValidTokensByUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, valid)
}
