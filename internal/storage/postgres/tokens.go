package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notekeeper/internal/models"
	"notekeeper/internal/storage"

	"github.com/jackc/pgx/v5"
)

func (r *PostgresRepo) SaveTokens(ctx context.Context, tokens ...models.Token) error {
	const op = "storage.postgres.SaveTokens"

	query := `
		INSERT INTO tokens (token, token_type, revoked, expires_at, user_id)
		VALUES ($1, $2, $3, $4, $5);
	`

	for _, t := range tokens {
		if _, err := r.pool.Exec(ctx, query, t.Token, t.TokenType, t.Revoked, t.ExpiresAt, t.UserID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

func (r *PostgresRepo) TokenByValue(ctx context.Context, value string) (models.Token, error) {
	const op = "storage.postgres.TokenByValue"

	query := `
		SELECT id, token, token_type, revoked, expires_at, user_id
		FROM tokens
		WHERE token = $1;
	`

	var t models.Token
	err := r.pool.QueryRow(ctx, query, value).Scan(
		&t.ID,
		&t.Token,
		&t.TokenType,
		&t.Revoked,
		&t.ExpiresAt,
		&t.UserID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Token{}, storage.ErrTokenNotFound
		}

		return models.Token{}, fmt.Errorf("%s: %w", op, err)
	}

	return t, nil
}

// ValidTokensByUser returns the user's unrevoked rows. Expiry is not
// checked here; the codec owns expiry.
func (r *PostgresRepo) ValidTokensByUser(ctx context.Context, userID int64) ([]models.Token, error) {
	const op = "storage.postgres.ValidTokensByUser"

	query := `
		SELECT id, token, token_type, revoked, expires_at, user_id
		FROM tokens
		WHERE user_id = $1 AND revoked = FALSE;
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var tokens []models.Token
	for rows.Next() {
		var t models.Token
		if err := rows.Scan(&t.ID, &t.Token, &t.TokenType, &t.Revoked, &t.ExpiresAt, &t.UserID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		tokens = append(tokens, t)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	return tokens, nil
}

// RevokeTokens flips revoked on the given rows as one batch. A revoked
// row is never un-revoked. No-op on empty input.
func (r *PostgresRepo) RevokeTokens(ctx context.Context, tokens []models.Token) error {
	const op = "storage.postgres.RevokeTokens"

	if len(tokens) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(tokens))
	for _, t := range tokens {
		ids = append(ids, t.ID)
	}

	query := `UPDATE tokens SET revoked = TRUE WHERE id = ANY($1);`

	if _, err := r.pool.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RotateTokens revokes every unrevoked token of the user and inserts
// the replacements in a single transaction. When current is non-empty
// it must be among the rows revoked here; if a concurrent rotation got
// to it first, storage.ErrTokenRevoked is returned and nothing is
// written.
func (r *PostgresRepo) RotateTokens(ctx context.Context, userID int64, current string, replacements []models.Token) error {
	const op = "storage.postgres.RotateTokens"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}
	defer tx.Rollback(ctx)

	revokeQuery := `
		UPDATE tokens SET revoked = TRUE
		WHERE user_id = $1 AND revoked = FALSE
		RETURNING token;
	`

	rows, err := tx.Query(ctx, revokeQuery, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	currentRevoked := false
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			rows.Close()
			return fmt.Errorf("%s: %w", op, err)
		}
		if value == current {
			currentRevoked = true
		}
	}
	rows.Close()
	if rows.Err() != nil {
		return fmt.Errorf("%s: %w", op, rows.Err())
	}

	if current != "" && !currentRevoked {
		return storage.ErrTokenRevoked
	}

	insertQuery := `
		INSERT INTO tokens (token, token_type, revoked, expires_at, user_id)
		VALUES ($1, $2, $3, $4, $5);
	`

	for _, t := range replacements {
		if _, err := tx.Exec(ctx, insertQuery, t.Token, t.TokenType, t.Revoked, t.ExpiresAt, t.UserID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: failed to commit: %w", op, err)
	}

	return nil
}

// PurgeExpiredOrRevoked deletes every row already dead: expired or
// revoked. Live sessions are never touched.
func (r *PostgresRepo) PurgeExpiredOrRevoked(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.postgres.PurgeExpiredOrRevoked"

	query := `DELETE FROM tokens WHERE expires_at < $1 OR revoked = TRUE;`

	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}
