package cleanup

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"notekeeper/internal/models"
	"notekeeper/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRun(t *testing.T) {
	t.Parallel()

	loc := time.UTC

	cases := []struct {
		name string
		now  time.Time
		hour int
		want time.Time
	}{
		{
			name: "before the hour runs same day",
			now:  time.Date(2026, 8, 31, 1, 30, 0, 0, loc),
			hour: 3,
			want: time.Date(2026, 8, 31, 3, 0, 0, 0, loc),
		},
		{
			name: "after the hour rolls to next day",
			now:  time.Date(2026, 8, 31, 4, 0, 0, 0, loc),
			hour: 3,
			want: time.Date(2026, 9, 1, 3, 0, 0, 0, loc),
		},
		{
			name: "exactly on the hour rolls to next day",
			now:  time.Date(2026, 8, 31, 3, 0, 0, 0, loc),
			hour: 3,
			want: time.Date(2026, 9, 1, 3, 0, 0, 0, loc),
		},
		{
			name: "one second before",
			now:  time.Date(2026, 8, 31, 2, 59, 59, 0, loc),
			hour: 3,
			want: time.Date(2026, 8, 31, 3, 0, 0, 0, loc),
		},
		{
			name: "end of month",
			now:  time.Date(2026, 8, 31, 23, 0, 0, 0, loc),
			hour: 3,
			want: time.Date(2026, 9, 1, 3, 0, 0, 0, loc),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, nextRun(tc.now, tc.hour))
		})
	}
}

func TestPurgeRemovesOnlyDeadTokens(t *testing.T) {
	t.Parallel()

	store := memory.New()
	ctx := context.Background()

	id, err := store.SaveUser(ctx, models.User{
		Email:    "a@x.com",
		PassHash: []byte("irrelevant"),
		Role:     models.RoleUser,
	})
	require.NoError(t, err)

	now := time.Now()

	live := models.Token{Token: "live", TokenType: models.TokenTypeBearer, ExpiresAt: now.Add(time.Hour), UserID: id}
	expired := models.Token{Token: "expired", TokenType: models.TokenTypeBearer, ExpiresAt: now.Add(-time.Hour), UserID: id}
	revoked := models.Token{Token: "revoked", TokenType: models.TokenTypeBearer, ExpiresAt: now.Add(time.Hour), UserID: id}

	require.NoError(t, store.SaveTokens(ctx, live, expired, revoked))

	stored, err := store.TokenByValue(ctx, "revoked")
	require.NoError(t, err)
	require.NoError(t, store.RevokeTokens(ctx, []models.Token{stored}))

	count, err := store.PurgeExpiredOrRevoked(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	_, err = store.TokenByValue(ctx, "live")
	assert.NoError(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sweeper := New(log, memory.New(), 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on context cancel")
	}
}
