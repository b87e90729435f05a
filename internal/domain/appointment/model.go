package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. The set is closed; anything else is rejected at the
// edge.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Appointment types.
const (
	TypeTherapy      = "therapy"
	TypeCheckIn      = "check_in"
	TypeSupportGroup = "support_group"
	TypeOther        = "other"
)

var ValidStatuses = map[string]bool{
	StatusScheduled: true,
	StatusCompleted: true,
	StatusCancelled: true,
}

var ValidTypes = map[string]bool{
	TypeTherapy:      true,
	TypeCheckIn:      true,
	TypeSupportGroup: true,
	TypeOther:        true,
}

// DefaultReminderMinutes is how far before the start the reminder email goes
// out unless the booking says otherwise.
const DefaultReminderMinutes = 60

// Appointment is one booked session. Date is a civil "YYYY-MM-DD" string
// and the times are "HH:MM" wall-clock strings; both compare correctly as
// plain strings. The interval [StartTime, EndTime) is half-open.
type Appointment struct {
	ID             uuid.UUID `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	SpecialistID   uuid.UUID `json:"specialist_id" db:"specialist_id"`
	SpecialistName string    `json:"specialist_name" db:"specialist_name"`
	Title          string    `json:"title" db:"title"`
	Description    *string   `json:"description,omitempty" db:"description"`
	Date           string    `json:"date" db:"date"`
	StartTime      string    `json:"start_time" db:"start_time"`
	EndTime        string    `json:"end_time" db:"end_time"`
	Type           string    `json:"type" db:"type"`
	Location       *string   `json:"location,omitempty" db:"location"`
	ReminderTime   int       `json:"reminder_time" db:"reminder_time"`
	Status         string    `json:"status" db:"status"`
	IdempotencyKey *string   `json:"-" db:"idempotency_key"`
	Version        int       `json:"version" db:"version"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Overlaps reports whether two half-open time ranges on the same date
// intersect.
func (a *Appointment) Overlaps(date, start, end string) bool {
	return a.Date == date && a.StartTime < end && start < a.EndTime
}

// UpdateRequest reschedules or annotates an appointment. Version must match
// the stored row or the update is rejected.
type UpdateRequest struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Date         *string `json:"date"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	Type         *string `json:"type"`
	Location     *string `json:"location"`
	ReminderTime *int    `json:"reminder_time"`
	Version      int     `json:"version"`
}

// UpdateStatusRequest moves an appointment through its lifecycle.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}
