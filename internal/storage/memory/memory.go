// Package memory holds the whole data set behind one mutex. It backs
// local runs and the test suite; dev and prod use Postgres.
package memory

import (
	"context"
	"sync"
	"time"

	"notekeeper/internal/models"
	"notekeeper/internal/storage"
)

type MemoryRepo struct {
	mu sync.Mutex

	users      map[int64]models.User
	tokens     map[int64]models.Token
	checklists map[int64]models.Checklist
	items      map[int64]models.Item
	notes      map[int64]models.TextNote

	// Per-entity counters mirror the serial columns in Postgres.
	nextUserID      int64
	nextTokenID     int64
	nextChecklistID int64
	nextItemID      int64
	nextNoteID      int64
}

func New() *MemoryRepo {
	return &MemoryRepo{
		users:      make(map[int64]models.User),
		tokens:     make(map[int64]models.Token),
		checklists: make(map[int64]models.Checklist),
		items:      make(map[int64]models.Item),
		notes:      make(map[int64]models.TextNote),
	}
}

func (r *MemoryRepo) Close() {}

func (r *MemoryRepo) SaveUser(_ context.Context, user models.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return 0, storage.ErrUserExists
		}
	}

	r.nextUserID++
	user.ID = r.nextUserID
	r.users[user.ID] = user
	return user.ID, nil
}

func (r *MemoryRepo) UserByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, storage.ErrUserNotFound
}

func (r *MemoryRepo) SaveTokens(_ context.Context, tokens ...models.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range tokens {
		r.nextTokenID++
		t.ID = r.nextTokenID
		r.tokens[t.ID] = t
	}
	return nil
}

func (r *MemoryRepo) TokenByValue(_ context.Context, value string) (models.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tokens {
		if t.Token == value {
			return t, nil
		}
	}
	return models.Token{}, storage.ErrTokenNotFound
}

func (r *MemoryRepo) ValidTokensByUser(_ context.Context, userID int64) ([]models.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var tokens []models.Token
	for _, t := range r.tokens {
		if t.UserID == userID && !t.Revoked {
			tokens = append(tokens, t)
		}
	}
	return tokens, nil
}

func (r *MemoryRepo) RevokeTokens(_ context.Context, tokens []models.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range tokens {
		stored, ok := r.tokens[t.ID]
		if !ok {
			continue
		}
		stored.Revoked = true
		r.tokens[stored.ID] = stored
	}
	return nil
}

func (r *MemoryRepo) RotateTokens(_ context.Context, userID int64, current string, replacements []models.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	currentRevoked := false
	for id, t := range r.tokens {
		if t.UserID != userID || t.Revoked {
			continue
		}
		t.Revoked = true
		r.tokens[id] = t
		if t.Token == current {
			currentRevoked = true
		}
	}

	if current != "" && !currentRevoked {
		return storage.ErrTokenRevoked
	}

	for _, t := range replacements {
		r.nextTokenID++
		t.ID = r.nextTokenID
		r.tokens[t.ID] = t
	}
	return nil
}

func (r *MemoryRepo) PurgeExpiredOrRevoked(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for id, t := range r.tokens {
		if t.Revoked || t.ExpiresAt.Before(now) {
			delete(r.tokens, id)
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepo) SaveChecklist(_ context.Context, checklist models.Checklist) (models.Checklist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextChecklistID++
	checklist.ID = r.nextChecklistID
	r.checklists[checklist.ID] = checklist
	return checklist, nil
}

func (r *MemoryRepo) ChecklistByID(_ context.Context, id, userID int64) (models.Checklist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.checklistByID(id, userID)
}

func (r *MemoryRepo) checklistByID(id, userID int64) (models.Checklist, error) {
	c, ok := r.checklists[id]
	if !ok || c.UserID != userID {
		return models.Checklist{}, storage.ErrChecklistNotFound
	}
	return c, nil
}

func (r *MemoryRepo) ChecklistsByUser(_ context.Context, userID int64) ([]models.Checklist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var checklists []models.Checklist
	for _, c := range r.checklists {
		if c.UserID == userID {
			checklists = append(checklists, c)
		}
	}
	return checklists, nil
}

func (r *MemoryRepo) UpdateChecklist(_ context.Context, id, userID int64, title string, updated time.Time) (models.Checklist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, err := r.checklistByID(id, userID)
	if err != nil {
		return models.Checklist{}, err
	}

	c.Title = title
	c.Updated = updated
	r.checklists[id] = c
	return c, nil
}

func (r *MemoryRepo) DeleteChecklist(_ context.Context, id, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.checklistByID(id, userID); err != nil {
		return err
	}

	delete(r.checklists, id)
	for itemID, item := range r.items {
		if item.ChecklistID == id {
			delete(r.items, itemID)
		}
	}
	return nil
}

func (r *MemoryRepo) SaveItem(_ context.Context, item models.Item, userID int64) (models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.checklistByID(item.ChecklistID, userID); err != nil {
		return models.Item{}, err
	}

	r.nextItemID++
	item.ID = r.nextItemID
	r.items[item.ID] = item
	return item, nil
}

func (r *MemoryRepo) ItemByID(_ context.Context, id, checklistID, userID int64) (models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.checklistByID(checklistID, userID); err != nil {
		return models.Item{}, storage.ErrItemNotFound
	}

	item, ok := r.items[id]
	if !ok || item.ChecklistID != checklistID {
		return models.Item{}, storage.ErrItemNotFound
	}
	return item, nil
}

func (r *MemoryRepo) ItemsByChecklist(_ context.Context, checklistID, userID int64) ([]models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.checklistByID(checklistID, userID); err != nil {
		return nil, err
	}

	var items []models.Item
	for _, item := range r.items {
		if item.ChecklistID == checklistID {
			items = append(items, item)
		}
	}
	return items, nil
}

func (r *MemoryRepo) UpdateItem(_ context.Context, item models.Item, userID int64) (models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.checklistByID(item.ChecklistID, userID); err != nil {
		return models.Item{}, storage.ErrItemNotFound
	}

	stored, ok := r.items[item.ID]
	if !ok || stored.ChecklistID != item.ChecklistID {
		return models.Item{}, storage.ErrItemNotFound
	}

	stored.Title = item.Title
	stored.Status = item.Status
	stored.Priority = item.Priority
	stored.Updated = item.Updated
	r.items[stored.ID] = stored
	return stored, nil
}

func (r *MemoryRepo) DeleteItem(_ context.Context, id, checklistID, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.checklistByID(checklistID, userID); err != nil {
		return storage.ErrItemNotFound
	}

	item, ok := r.items[id]
	if !ok || item.ChecklistID != checklistID {
		return storage.ErrItemNotFound
	}

	delete(r.items, id)
	return nil
}

func (r *MemoryRepo) SaveNote(_ context.Context, note models.TextNote) (models.TextNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextNoteID++
	note.ID = r.nextNoteID
	r.notes[note.ID] = note
	return note, nil
}

func (r *MemoryRepo) NoteByID(_ context.Context, id, userID int64) (models.TextNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[id]
	if !ok || n.UserID != userID {
		return models.TextNote{}, storage.ErrNoteNotFound
	}
	return n, nil
}

func (r *MemoryRepo) NotesByUser(_ context.Context, userID int64) ([]models.TextNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var notes []models.TextNote
	for _, n := range r.notes {
		if n.UserID == userID {
			notes = append(notes, n)
		}
	}
	return notes, nil
}

func (r *MemoryRepo) UpdateNote(_ context.Context, note models.TextNote) (models.TextNote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.notes[note.ID]
	if !ok || stored.UserID != note.UserID {
		return models.TextNote{}, storage.ErrNoteNotFound
	}

	stored.Title = note.Title
	stored.Content = note.Content
	stored.Updated = note.Updated
	r.notes[stored.ID] = stored
	return stored, nil
}

func (r *MemoryRepo) DeleteNote(_ context.Context, id, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[id]
	if !ok || n.UserID != userID {
		return storage.ErrNoteNotFound
	}

	delete(r.notes, id)
	return nil
}
