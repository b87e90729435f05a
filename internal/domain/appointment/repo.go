package appointment

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence surface for appointments.
//
// CreateBooked is the only write path for new appointments: it must check
// for overlapping scheduled appointments and insert atomically, returning
// ErrConflict when the range is taken.
type Repository interface {
	CreateBooked(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	FindByIdempotencyKey(ctx context.Context, userID, key string) (*Appointment, error)

	ListByUser(ctx context.Context, userID string, status string, limit, offset int) ([]*Appointment, int, error)
	ListBySpecialist(ctx context.Context, specialistID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error)

	// ListScheduledInRange returns scheduled appointments for a specialist
	// with fromDate <= date <= toDate. The availability calculator reads
	// through this.
	ListScheduledInRange(ctx context.Context, specialistID uuid.UUID, fromDate, toDate string) ([]*Appointment, error)

	// ListScheduledForUserMonth returns a user's scheduled appointments in
	// one calendar month, for the month grid.
	ListScheduledForUserMonth(ctx context.Context, userID string, fromDate, toDate string) ([]*Appointment, error)

	// Update writes a rescheduled appointment. expectedVersion must match
	// the stored version or ErrVersionMismatch is returned; on success the
	// stored version is incremented.
	Update(ctx context.Context, a *Appointment, expectedVersion int) error

	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
}
