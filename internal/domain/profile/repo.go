package profile

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("profile: not found")

type Repository interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	Upsert(ctx context.Context, p *Profile) error
	GetSettings(ctx context.Context, userID string) (*Settings, error)
	UpsertSettings(ctx context.Context, s *Settings) error

	// DeleteAll removes the profile and settings rows for a user.
	DeleteAll(ctx context.Context, userID string) error
}
