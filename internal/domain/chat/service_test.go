package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/esaha/esaha/internal/domain/specialist"
	"github.com/esaha/esaha/internal/platform/auth"
)

type mockRepo struct {
	sessions map[uuid.UUID]*Session
	messages []*Message
}

func newMockRepo() *mockRepo {
	return &mockRepo{sessions: make(map[uuid.UUID]*Session)}
}

func (m *mockRepo) CreateSession(_ context.Context, s *Session) error {
	m.sessions[s.ID] = s
	return nil
}

func (m *mockRepo) GetSession(_ context.Context, id uuid.UUID) (*Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *mockRepo) ListSessionsByUser(_ context.Context, userID string, _, _ int) ([]*Session, int, error) {
	var out []*Session
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) CloseSession(_ context.Context, id uuid.UUID) error {
	s, ok := m.sessions[id]
	if !ok || s.Status != SessionOpen {
		return ErrNotFound
	}
	now := time.Now().UTC()
	s.Status = SessionClosed
	s.ClosedAt = &now
	return nil
}

func (m *mockRepo) CreateMessage(_ context.Context, msg *Message) error {
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockRepo) ListMessages(_ context.Context, sessionID uuid.UUID, _, _ int) ([]*Message, int, error) {
	var out []*Message
	for _, msg := range m.messages {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	return out, len(out), nil
}

type mockSpecialists struct {
	specialists map[uuid.UUID]*specialist.Specialist
}

func (m *mockSpecialists) GetByID(_ context.Context, id uuid.UUID) (*specialist.Specialist, error) {
	sp, ok := m.specialists[id]
	if !ok {
		return nil, specialist.ErrNotFound
	}
	return sp, nil
}

func userCtx(userID string) context.Context {
	return auth.WithIdentity(context.Background(), userID, []string{"user"}, userID+"@example.com")
}

func newTestService() (*Service, *mockRepo, uuid.UUID) {
	id := uuid.New()
	repo := newMockRepo()
	svc := NewService(repo, &mockSpecialists{
		specialists: map[uuid.UUID]*specialist.Specialist{
			id: {ID: id, Name: "Dr. Amal", Active: true},
		},
	})
	return svc, repo, id
}

func TestStartSession(t *testing.T) {
	svc, _, specialistID := newTestService()

	s, err := svc.Start(userCtx("user-1"), StartSessionRequest{SpecialistID: specialistID})
	if err != nil {
		t.Fatal(err)
	}
	if s.Status != SessionOpen {
		t.Errorf("expected open session, got %s", s.Status)
	}
}

func TestStartSessionUnknownSpecialist(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Start(userCtx("user-1"), StartSessionRequest{SpecialistID: uuid.New()})
	if !errors.Is(err, specialist.ErrNotFound) {
		t.Fatalf("expected specialist.ErrNotFound, got %v", err)
	}
}

func TestSendAndListMessages(t *testing.T) {
	svc, _, specialistID := newTestService()
	ctx := userCtx("user-1")

	s, err := svc.Start(ctx, StartSessionRequest{SpecialistID: specialistID})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Send(ctx, s.ID, SendMessageRequest{Body: "  hello  "}); err != nil {
		t.Fatal(err)
	}

	msgs, total, err := svc.Messages(ctx, s.ID, 20, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Fatalf("expected 1 message, got %d", total)
	}
	if msgs[0].Body != "hello" {
		t.Errorf("body should be trimmed, got %q", msgs[0].Body)
	}
}

func TestSendValidation(t *testing.T) {
	svc, _, specialistID := newTestService()
	ctx := userCtx("user-1")
	s, _ := svc.Start(ctx, StartSessionRequest{SpecialistID: specialistID})

	if _, err := svc.Send(ctx, s.ID, SendMessageRequest{Body: "   "}); err == nil {
		t.Error("expected an error for an empty body")
	}
	if _, err := svc.Send(ctx, s.ID, SendMessageRequest{Body: strings.Repeat("a", maxMessageLen+1)}); err == nil {
		t.Error("expected an error for an oversized body")
	}
}

func TestSendToClosedSession(t *testing.T) {
	svc, _, specialistID := newTestService()
	ctx := userCtx("user-1")
	s, _ := svc.Start(ctx, StartSessionRequest{SpecialistID: specialistID})

	if err := svc.Close(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Send(ctx, s.ID, SendMessageRequest{Body: "hello"})
	if !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestNonParticipantSeesNotFound(t *testing.T) {
	svc, _, specialistID := newTestService()
	s, _ := svc.Start(userCtx("user-1"), StartSessionRequest{SpecialistID: specialistID})

	_, _, err := svc.Messages(userCtx("user-2"), s.ID, 20, 0)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a non-participant, got %v", err)
	}
	_, err = svc.Send(userCtx("user-2"), s.ID, SendMessageRequest{Body: "hi"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a non-participant, got %v", err)
	}
}
