package postgres

import (
	"context"
	"errors"
	"fmt"

	"notekeeper/internal/models"
	"notekeeper/internal/storage"

	"github.com/jackc/pgx/v5"
)

func (r *PostgresRepo) SaveNote(ctx context.Context, note models.TextNote) (models.TextNote, error) {
	const op = "storage.postgres.SaveNote"

	query := `
		INSERT INTO notes (title, content, created, updated, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id;
	`

	err := r.pool.QueryRow(ctx, query,
		note.Title,
		note.Content,
		note.Created,
		note.Updated,
		note.UserID,
	).Scan(&note.ID)
	if err != nil {
		return models.TextNote{}, fmt.Errorf("%s: %w", op, err)
	}

	return note, nil
}

func (r *PostgresRepo) NoteByID(ctx context.Context, id, userID int64) (models.TextNote, error) {
	const op = "storage.postgres.NoteByID"

	query := `
		SELECT id, title, content, created, updated, user_id
		FROM notes
		WHERE id = $1 AND user_id = $2;
	`

	var n models.TextNote
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(&n.ID, &n.Title, &n.Content, &n.Created, &n.Updated, &n.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.TextNote{}, storage.ErrNoteNotFound
		}

		return models.TextNote{}, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

func (r *PostgresRepo) NotesByUser(ctx context.Context, userID int64) ([]models.TextNote, error) {
	const op = "storage.postgres.NotesByUser"

	query := `
		SELECT id, title, content, created, updated, user_id
		FROM notes
		WHERE user_id = $1
		ORDER BY id;
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var notes []models.TextNote
	for rows.Next() {
		var n models.TextNote
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.Created, &n.Updated, &n.UserID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		notes = append(notes, n)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	return notes, nil
}

func (r *PostgresRepo) UpdateNote(ctx context.Context, note models.TextNote) (models.TextNote, error) {
	const op = "storage.postgres.UpdateNote"

	query := `
		UPDATE notes SET title = $1, content = $2, updated = $3
		WHERE id = $4 AND user_id = $5
		RETURNING id, title, content, created, updated, user_id;
	`

	var n models.TextNote
	err := r.pool.QueryRow(ctx, query,
		note.Title, note.Content, note.Updated, note.ID, note.UserID,
	).Scan(&n.ID, &n.Title, &n.Content, &n.Created, &n.Updated, &n.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.TextNote{}, storage.ErrNoteNotFound
		}

		return models.TextNote{}, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}

func (r *PostgresRepo) DeleteNote(ctx context.Context, id, userID int64) error {
	const op = "storage.postgres.DeleteNote"

	query := `DELETE FROM notes WHERE id = $1 AND user_id = $2;`

	tag, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNoteNotFound
	}

	return nil
}
