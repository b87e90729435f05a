package specialist

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no specialist matches the given id.
var ErrNotFound = errors.New("specialist: not found")

// Repository is the persistence surface for specialists and their
// availability configuration.
type Repository interface {
	Create(ctx context.Context, s *Specialist) error
	GetByID(ctx context.Context, id uuid.UUID) (*Specialist, error)
	GetByUserID(ctx context.Context, userID string) (*Specialist, error)
	List(ctx context.Context, onlyActive bool, specialty string, limit, offset int) ([]*Specialist, int, error)
	Update(ctx context.Context, s *Specialist) error

	ListRules(ctx context.Context, specialistID uuid.UUID) ([]*AvailabilityRule, error)
	ReplaceRules(ctx context.Context, specialistID uuid.UUID, rules []*AvailabilityRule) error

	ListTimeOff(ctx context.Context, specialistID uuid.UUID, fromDate string) ([]*TimeOff, error)
	AddTimeOff(ctx context.Context, t *TimeOff) error
	DeleteTimeOff(ctx context.Context, specialistID, timeOffID uuid.UUID) error
}
