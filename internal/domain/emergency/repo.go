package emergency

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("emergency: contact not found")

// maxContacts caps the list per user.
const maxContacts = 10

type Repository interface {
	Create(ctx context.Context, c *Contact) error
	ListByUser(ctx context.Context, userID string) ([]*Contact, error)
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*Contact, error)
	Update(ctx context.Context, c *Contact) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	CountByUser(ctx context.Context, userID string) (int, error)
}
