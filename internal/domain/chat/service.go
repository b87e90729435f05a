package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/esaha/esaha/internal/domain/specialist"
	"github.com/esaha/esaha/internal/platform/auth"
)

const maxMessageLen = 4000

// SpecialistStore verifies the specialist a session is started with.
type SpecialistStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*specialist.Specialist, error)
}

type Service struct {
	repo        Repository
	specialists SpecialistStore
}

func NewService(repo Repository, specialists SpecialistStore) *Service {
	return &Service{repo: repo, specialists: specialists}
}

func (s *Service) Start(ctx context.Context, req StartSessionRequest) (*Session, error) {
	sp, err := s.specialists.GetByID(ctx, req.SpecialistID)
	if err != nil {
		return nil, err
	}
	if !sp.Active {
		return nil, fmt.Errorf("specialist is not available for chat")
	}

	session := &Session{
		ID:           uuid.New(),
		UserID:       auth.UserIDFromContext(ctx),
		SpecialistID: req.SpecialistID,
		Status:       SessionOpen,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) ListMine(ctx context.Context, limit, offset int) ([]*Session, int, error) {
	return s.repo.ListSessionsByUser(ctx, auth.UserIDFromContext(ctx), limit, offset)
}

func (s *Service) Close(ctx context.Context, sessionID uuid.UUID) error {
	if _, err := s.accessible(ctx, sessionID); err != nil {
		return err
	}
	return s.repo.CloseSession(ctx, sessionID)
}

func (s *Service) Send(ctx context.Context, sessionID uuid.UUID, req SendMessageRequest) (*Message, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, fmt.Errorf("message body is required")
	}
	if len(body) > maxMessageLen {
		return nil, fmt.Errorf("message exceeds %d characters", maxMessageLen)
	}

	session, err := s.accessible(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != SessionOpen {
		return nil, ErrSessionClosed
	}

	m := &Message{
		ID:        uuid.New(),
		SessionID: sessionID,
		SenderID:  auth.UserIDFromContext(ctx),
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Messages(ctx context.Context, sessionID uuid.UUID, limit, offset int) ([]*Message, int, error) {
	if _, err := s.accessible(ctx, sessionID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListMessages(ctx, sessionID, limit, offset)
}

// accessible loads a session the caller participates in. Non-participants
// get ErrNotFound rather than a hint the session exists.
func (s *Service) accessible(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	roles := auth.RolesFromContext(ctx)
	if auth.HasRole(roles, auth.RoleAdmin) || auth.HasRole(roles, auth.RoleSpecialist) {
		return session, nil
	}
	if session.UserID != auth.UserIDFromContext(ctx) {
		return nil, ErrNotFound
	}
	return session, nil
}
