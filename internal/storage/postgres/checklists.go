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

func (r *PostgresRepo) SaveChecklist(ctx context.Context, checklist models.Checklist) (models.Checklist, error) {
	const op = "storage.postgres.SaveChecklist"

	query := `
		INSERT INTO checklists (title, created, updated, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id;
	`

	err := r.pool.QueryRow(ctx, query,
		checklist.Title,
		checklist.Created,
		checklist.Updated,
		checklist.UserID,
	).Scan(&checklist.ID)
	if err != nil {
		return models.Checklist{}, fmt.Errorf("%s: %w", op, err)
	}

	return checklist, nil
}

func (r *PostgresRepo) ChecklistByID(ctx context.Context, id, userID int64) (models.Checklist, error) {
	const op = "storage.postgres.ChecklistByID"

	query := `
		SELECT id, title, created, updated, user_id
		FROM checklists
		WHERE id = $1 AND user_id = $2;
	`

	var c models.Checklist
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(&c.ID, &c.Title, &c.Created, &c.Updated, &c.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Checklist{}, storage.ErrChecklistNotFound
		}

		return models.Checklist{}, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

func (r *PostgresRepo) ChecklistsByUser(ctx context.Context, userID int64) ([]models.Checklist, error) {
	const op = "storage.postgres.ChecklistsByUser"

	query := `
		SELECT id, title, created, updated, user_id
		FROM checklists
		WHERE user_id = $1
		ORDER BY id;
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var checklists []models.Checklist
	for rows.Next() {
		var c models.Checklist
		if err := rows.Scan(&c.ID, &c.Title, &c.Created, &c.Updated, &c.UserID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		checklists = append(checklists, c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	return checklists, nil
}

func (r *PostgresRepo) UpdateChecklist(ctx context.Context, id, userID int64, title string, updated time.Time) (models.Checklist, error) {
	const op = "storage.postgres.UpdateChecklist"

	query := `
		UPDATE checklists SET title = $1, updated = $2
		WHERE id = $3 AND user_id = $4
		RETURNING id, title, created, updated, user_id;
	`

	var c models.Checklist
	err := r.pool.QueryRow(ctx, query, title, updated, id, userID).Scan(&c.ID, &c.Title, &c.Created, &c.Updated, &c.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Checklist{}, storage.ErrChecklistNotFound
		}

		return models.Checklist{}, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

// DeleteChecklist removes the checklist and, via the FK cascade, its
// items.
func (r *PostgresRepo) DeleteChecklist(ctx context.Context, id, userID int64) error {
	const op = "storage.postgres.DeleteChecklist"

	query := `DELETE FROM checklists WHERE id = $1 AND user_id = $2;`

	tag, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrChecklistNotFound
	}

	return nil
}
