package storage

import "errors"

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")

	ErrTokenNotFound = errors.New("token not found")
	// ErrTokenRevoked is returned by a rotation whose triggering token
	// was already revoked by a concurrent rotation. Exactly one of two
	// racing refreshes may win.
	ErrTokenRevoked = errors.New("token already revoked")

	ErrChecklistNotFound = errors.New("checklist not found")
	ErrItemNotFound      = errors.New("item not found")
	ErrNoteNotFound      = errors.New("note not found")
)
