package mood

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("mood: entry not found")

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*Entry, error)
	ListByUser(ctx context.Context, userID, fromDate, toDate string, limit, offset int) ([]*Entry, int, error)
	Update(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	CountByMood(ctx context.Context, userID, fromDate, toDate string) (map[string]int, error)
}
