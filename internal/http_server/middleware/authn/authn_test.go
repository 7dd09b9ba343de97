package authn_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"notekeeper/internal/http_server/middleware/authn"
	resp "notekeeper/internal/lib/api/response"
	"notekeeper/internal/lib/jwt"
	"notekeeper/internal/models"
	"notekeeper/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough"

type fixture struct {
	store *memory.MemoryRepo
	codec *jwt.Codec
	user  models.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	store := memory.New()
	codec := jwt.NewCodec(testSecret)

	user := models.User{
		Firstname: "John",
		Lastname:  "Doe",
		Email:     "a@x.com",
		PassHash:  []byte("irrelevant"),
		Role:      models.RoleUser,
	}
	id, err := store.SaveUser(context.Background(), user)
	require.NoError(t, err)
	user.ID = id

	return fixture{store: store, codec: codec, user: user}
}

// issue encodes a token and records it in the ledger, mirroring what the
// auth service does on login.
func (f fixture) issue(t *testing.T, kind string, ttl time.Duration) string {
	t.Helper()

	value, err := f.codec.Encode(f.user.Email, kind, ttl)
	require.NoError(t, err)

	err = f.store.SaveTokens(context.Background(), models.Token{
		Token:     value,
		TokenType: models.TokenTypeBearer,
		ExpiresAt: time.Now().Add(ttl),
		UserID:    f.user.ID,
	})
	require.NoError(t, err)

	return value
}

// serve runs a request through Middleware into a probe handler that
// reports whether a principal was attached.
func (f fixture) serve(t *testing.T, authHeader string) (principal models.User, attached bool) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := authn.Middleware(log, f.codec, f.store, f.store)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, attached = authn.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/checklists", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	return principal, attached
}

func TestMiddleware_ValidAccessToken(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	token := f.issue(t, jwt.KindAccess, time.Hour)

	principal, ok := f.serve(t, "Bearer "+token)
	require.True(t, ok)
	assert.Equal(t, f.user.ID, principal.ID)
	assert.Equal(t, f.user.Email, principal.Email)
}

func TestMiddleware_PassesThroughUnauthenticated(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	cases := []struct {
		name   string
		header func(t *testing.T) string
	}{
		{
			name:   "no header",
			header: func(t *testing.T) string { return "" },
		},
		{
			name:   "wrong scheme",
			header: func(t *testing.T) string { return "Basic credentials" },
		},
		{
			name:   "garbage token",
			header: func(t *testing.T) string { return "Bearer not-a-token" },
		},
		{
			name: "refresh token",
			header: func(t *testing.T) string {
				return "Bearer " + f.issue(t, jwt.KindRefresh, time.Hour)
			},
		},
		{
			name: "expired token",
			header: func(t *testing.T) string {
				return "Bearer " + f.issue(t, jwt.KindAccess, -time.Minute)
			},
		},
		{
			name: "token not in ledger",
			header: func(t *testing.T) string {
				value, err := f.codec.Encode(f.user.Email, jwt.KindAccess, time.Hour)
				require.NoError(t, err)
				return "Bearer " + value
			},
		},
		{
			name: "unknown subject",
			header: func(t *testing.T) string {
				ghost := jwt.NewCodec(testSecret)
				value, err := ghost.Encode("nobody@x.com", jwt.KindAccess, time.Hour)
				require.NoError(t, err)
				return "Bearer " + value
			},
		},
		{
			name: "revoked token",
			header: func(t *testing.T) string {
				value := f.issue(t, jwt.KindAccess, time.Hour)
				stored, err := f.store.TokenByValue(context.Background(), value)
				require.NoError(t, err)
				require.NoError(t, f.store.RevokeTokens(context.Background(), []models.Token{stored}))
				return "Bearer " + value
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := f.serve(t, tc.header(t))
			assert.False(t, ok)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := authn.RequireAuth()(next)

	t.Run("no principal gets 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/checklists", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var body resp.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, http.StatusUnauthorized, body.Status)
		assert.Equal(t, "Authentication not found!", body.Message)
		assert.Equal(t, "/api/v1/checklists", body.Path)
	})

	t.Run("principal passes", func(t *testing.T) {
		f := newFixture(t)
		token := f.issue(t, jwt.KindAccess, time.Hour)

		log := slog.New(slog.NewTextHandler(io.Discard, nil))
		mw := authn.Middleware(log, f.codec, f.store, f.store)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/checklists", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		mw(handler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
