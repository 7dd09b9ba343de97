package postgres

import (
	"context"
	"errors"
	"fmt"

	"notekeeper/internal/models"
	"notekeeper/internal/storage"

	"github.com/jackc/pgx/v5"
)

// Item queries verify checklist ownership in the same statement; an
// item under another user's checklist is indistinguishable from a
// missing one.

func (r *PostgresRepo) SaveItem(ctx context.Context, item models.Item, userID int64) (models.Item, error) {
	const op = "storage.postgres.SaveItem"

	if _, err := r.ChecklistByID(ctx, item.ChecklistID, userID); err != nil {
		return models.Item{}, err
	}

	query := `
		INSERT INTO items (title, status, priority, checklist_id, created, updated)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id;
	`

	err := r.pool.QueryRow(ctx, query,
		item.Title,
		item.Status,
		item.Priority,
		item.ChecklistID,
		item.Created,
		item.Updated,
	).Scan(&item.ID)
	if err != nil {
		return models.Item{}, fmt.Errorf("%s: %w", op, err)
	}

	return item, nil
}

func (r *PostgresRepo) ItemByID(ctx context.Context, id, checklistID, userID int64) (models.Item, error) {
	const op = "storage.postgres.ItemByID"

	query := `
		SELECT i.id, i.title, i.status, i.priority, i.checklist_id, i.created, i.updated
		FROM items i
		JOIN checklists c ON c.id = i.checklist_id
		WHERE i.id = $1 AND i.checklist_id = $2 AND c.user_id = $3;
	`

	var item models.Item
	err := r.pool.QueryRow(ctx, query, id, checklistID, userID).Scan(
		&item.ID, &item.Title, &item.Status, &item.Priority, &item.ChecklistID, &item.Created, &item.Updated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Item{}, storage.ErrItemNotFound
		}

		return models.Item{}, fmt.Errorf("%s: %w", op, err)
	}

	return item, nil
}

func (r *PostgresRepo) ItemsByChecklist(ctx context.Context, checklistID, userID int64) ([]models.Item, error) {
	const op = "storage.postgres.ItemsByChecklist"

	if _, err := r.ChecklistByID(ctx, checklistID, userID); err != nil {
		return nil, err
	}

	query := `
		SELECT id, title, status, priority, checklist_id, created, updated
		FROM items
		WHERE checklist_id = $1
		ORDER BY id;
	`

	rows, err := r.pool.Query(ctx, query, checklistID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.ID, &item.Title, &item.Status, &item.Priority, &item.ChecklistID, &item.Created, &item.Updated); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	return items, nil
}

func (r *PostgresRepo) UpdateItem(ctx context.Context, item models.Item, userID int64) (models.Item, error) {
	const op = "storage.postgres.UpdateItem"

	query := `
		UPDATE items i SET title = $1, status = $2, priority = $3, updated = $4
		FROM checklists c
		WHERE i.id = $5 AND i.checklist_id = $6 AND c.id = i.checklist_id AND c.user_id = $7
		RETURNING i.id, i.title, i.status, i.priority, i.checklist_id, i.created, i.updated;
	`

	var updated models.Item
	err := r.pool.QueryRow(ctx, query,
		item.Title, item.Status, item.Priority, item.Updated,
		item.ID, item.ChecklistID, userID,
	).Scan(&updated.ID, &updated.Title, &updated.Status, &updated.Priority, &updated.ChecklistID, &updated.Created, &updated.Updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Item{}, storage.ErrItemNotFound
		}

		return models.Item{}, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

func (r *PostgresRepo) DeleteItem(ctx context.Context, id, checklistID, userID int64) error {
	const op = "storage.postgres.DeleteItem"

	query := `
		DELETE FROM items i
		USING checklists c
		WHERE i.id = $1 AND i.checklist_id = $2 AND c.id = i.checklist_id AND c.user_id = $3;
	`

	tag, err := r.pool.Exec(ctx, query, id, checklistID, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrItemNotFound
	}

	return nil
}
