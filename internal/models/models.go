package models

import "time"

const RoleUser = "USER"

type User struct {
	ID        int64
	Firstname string
	Lastname  string
	Email     string
	PassHash  []byte
	Role      string
}

// TokenTypeBearer is the only persisted token type; the access/refresh
// distinction lives inside the encoded payload.
const TokenTypeBearer = "BEARER"

type Token struct {
	ID        int64
	Token     string
	TokenType string
	Revoked   bool
	ExpiresAt time.Time
	UserID    int64
}

type Checklist struct {
	ID      int64
	Title   string
	Created time.Time
	Updated time.Time
	UserID  int64
}

const (
	ItemStatusPending   = "PENDING"
	ItemStatusCompleted = "COMPLETED"

	ItemPriorityLow    = "LOW"
	ItemPriorityMedium = "MEDIUM"
	ItemPriorityHigh   = "HIGH"
)

type Item struct {
	ID          int64
	Title       string
	Status      string
	Priority    string
	ChecklistID int64
	Created     time.Time
	Updated     time.Time
}

type TextNote struct {
	ID      int64
	Title   string
	Content string
	Created time.Time
	Updated time.Time
	UserID  int64
}

// AuthEvent is published to the message broker after a successful
// registration or login.
type AuthEvent struct {
	Event      string    `json:"event"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}
