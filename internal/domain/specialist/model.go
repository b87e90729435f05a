package specialist

import (
	"time"

	"github.com/google/uuid"
)

// Specialist is a mental-health professional users can book sessions with.
type Specialist struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      *string   `json:"user_id,omitempty" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Title       string    `json:"title" db:"title"`
	Specialties []string  `json:"specialties" db:"specialties"`
	Bio         string    `json:"bio" db:"bio"`
	Email       string    `json:"email" db:"email"`
	ImageURL    *string   `json:"image_url,omitempty" db:"image_url"`
	Rating      *float64  `json:"rating,omitempty" db:"rating"`
	Price       *float64  `json:"price,omitempty" db:"price"`
	Active      bool      `json:"active" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// AvailabilityRule is a recurring weekly working window. Weekday follows
// time.Weekday numbering (Sunday = 0). Times are local wall-clock strings
// in "HH:MM" form. An inactive rule stays on record but contributes no
// bookable slots.
type AvailabilityRule struct {
	ID           uuid.UUID `json:"id" db:"id"`
	SpecialistID uuid.UUID `json:"specialist_id" db:"specialist_id"`
	Weekday      int       `json:"weekday" db:"weekday"`
	StartTime    string    `json:"start_time" db:"start_time"`
	EndTime      string    `json:"end_time" db:"end_time"`
	Active       bool      `json:"is_active" db:"active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// TimeOff blocks a whole calendar date regardless of the weekly rules.
type TimeOff struct {
	ID           uuid.UUID `json:"id" db:"id"`
	SpecialistID uuid.UUID `json:"specialist_id" db:"specialist_id"`
	Date         string    `json:"date" db:"date"`
	Reason       *string   `json:"reason,omitempty" db:"reason"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// CreateSpecialistRequest is the admin payload for adding a specialist.
type CreateSpecialistRequest struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Specialties []string `json:"specialties"`
	Bio         string   `json:"bio"`
	Email       string   `json:"email"`
	ImageURL    *string  `json:"image_url"`
	Rating      *float64 `json:"rating"`
	Price       *float64 `json:"price"`
	UserID      *string  `json:"user_id"`
}

// UpdateSpecialistRequest carries partial updates; nil fields are untouched.
type UpdateSpecialistRequest struct {
	Name        *string  `json:"name"`
	Title       *string  `json:"title"`
	Specialties []string `json:"specialties"`
	Bio         *string  `json:"bio"`
	Email       *string  `json:"email"`
	ImageURL    *string  `json:"image_url"`
	Rating      *float64 `json:"rating"`
	Price       *float64 `json:"price"`
	Active      *bool    `json:"active"`
}

// SetAvailabilityRequest replaces the weekly rule set in one call.
type SetAvailabilityRequest struct {
	Rules []AvailabilityRuleInput `json:"rules"`
}

// AvailabilityRuleInput describes one weekly window. IsActive defaults to
// true when omitted so plain rule payloads keep working.
type AvailabilityRuleInput struct {
	Weekday   int    `json:"weekday"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsActive  *bool  `json:"is_active"`
}

// AddTimeOffRequest blocks one date.
type AddTimeOffRequest struct {
	Date   string  `json:"date"`
	Reason *string `json:"reason"`
}
