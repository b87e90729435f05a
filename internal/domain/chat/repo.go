package chat

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("chat: session not found")
	ErrSessionClosed = errors.New("chat: session is closed")
)

type Repository interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*Session, error)
	ListSessionsByUser(ctx context.Context, userID string, limit, offset int) ([]*Session, int, error)
	CloseSession(ctx context.Context, id uuid.UUID) error

	CreateMessage(ctx context.Context, m *Message) error
	ListMessages(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]*Message, int, error)
}
