package emergency

import (
	"time"

	"github.com/google/uuid"
)

// Contact is someone a user wants alerted when they ask for help.
type Contact struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Name         string    `json:"name" db:"name"`
	Relationship *string   `json:"relationship,omitempty" db:"relationship"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	Email        string    `json:"email" db:"email"`
	Notify       bool      `json:"notify" db:"notify"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type ContactRequest struct {
	Name         string  `json:"name"`
	Relationship *string `json:"relationship"`
	Phone        *string `json:"phone"`
	Email        string  `json:"email"`
	Notify       *bool   `json:"notify"`
}

// AlertRequest triggers an alert to every contact with Notify set.
type AlertRequest struct {
	Message string `json:"message"`
}

// AlertResult reports how many contacts were notified.
type AlertResult struct {
	Notified int `json:"notified"`
}
