package chat

import (
	"time"

	"github.com/google/uuid"
)

// Session statuses.
const (
	SessionOpen   = "open"
	SessionClosed = "closed"
)

// Session is one conversation between a user and a specialist.
type Session struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       string     `json:"user_id" db:"user_id"`
	SpecialistID uuid.UUID  `json:"specialist_id" db:"specialist_id"`
	Status       string     `json:"status" db:"status"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty" db:"closed_at"`
}

// Message is one chat message. SenderID is the identity provider subject of
// whoever sent it, user or specialist.
type Message struct {
	ID        uuid.UUID `json:"id" db:"id"`
	SessionID uuid.UUID `json:"session_id" db:"session_id"`
	SenderID  string    `json:"sender_id" db:"sender_id"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type StartSessionRequest struct {
	SpecialistID uuid.UUID `json:"specialist_id"`
}

type SendMessageRequest struct {
	Body string `json:"body"`
}
