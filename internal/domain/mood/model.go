package mood

import (
	"time"

	"github.com/google/uuid"
)

// Mood values. Closed set; anything else is rejected.
const (
	MoodGreat    = "great"
	MoodGood     = "good"
	MoodOkay     = "okay"
	MoodLow      = "low"
	MoodTerrible = "terrible"
)

var ValidMoods = map[string]bool{
	MoodGreat:    true,
	MoodGood:     true,
	MoodOkay:     true,
	MoodLow:      true,
	MoodTerrible: true,
}

// Entry is one mood check-in. Date is the civil day the entry is for, which
// may trail CreatedAt when a user logs yesterday's mood. Factors are
// free-form contributing tags like "sleep" or "exams".
type Entry struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Mood      string    `json:"mood" db:"mood"`
	Intensity *int      `json:"intensity,omitempty" db:"intensity"`
	Note      *string   `json:"note,omitempty" db:"note"`
	Factors   []string  `json:"factors" db:"factors"`
	Date      string    `json:"date" db:"date"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateEntryRequest logs a mood. Date defaults to today when empty.
type CreateEntryRequest struct {
	Mood      string   `json:"mood"`
	Intensity *int     `json:"intensity"`
	Note      *string  `json:"note"`
	Factors   []string `json:"factors"`
	Date      string   `json:"date"`
}

// UpdateEntryRequest edits an entry in place; nil fields are untouched.
// The entry's date is fixed at creation.
type UpdateEntryRequest struct {
	Mood      *string  `json:"mood"`
	Intensity *int     `json:"intensity"`
	Note      *string  `json:"note"`
	Factors   []string `json:"factors"`
}

// Summary aggregates a date range for the trends view.
type Summary struct {
	FromDate string         `json:"from_date"`
	ToDate   string         `json:"to_date"`
	Total    int            `json:"total"`
	Counts   map[string]int `json:"counts"`
}
