package emergency

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/esaha/esaha/internal/platform/auth"
	"github.com/esaha/esaha/internal/platform/jobs"
)

// Alerter queues alert emails. *jobs.Enqueuer satisfies it.
type Alerter interface {
	EnqueueEmergencyAlert(ctx context.Context, p jobs.EmergencyAlertPayload) error
}

type Service struct {
	repo    Repository
	alerter Alerter
	logger  zerolog.Logger
}

func NewService(repo Repository, alerter Alerter, logger zerolog.Logger) *Service {
	return &Service{repo: repo, alerter: alerter, logger: logger}
}

func (s *Service) Add(ctx context.Context, req ContactRequest) (*Contact, error) {
	if err := validateContact(req); err != nil {
		return nil, err
	}
	userID := auth.UserIDFromContext(ctx)

	n, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if n >= maxContacts {
		return nil, fmt.Errorf("at most %d emergency contacts allowed", maxContacts)
	}

	now := time.Now().UTC()
	c := &Contact{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         req.Name,
		Relationship: req.Relationship,
		Phone:        req.Phone,
		Email:        req.Email,
		Notify:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.Notify != nil {
		c.Notify = *req.Notify
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]*Contact, error) {
	return s.repo.ListByUser(ctx, auth.UserIDFromContext(ctx))
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req ContactRequest) (*Contact, error) {
	if err := validateContact(req); err != nil {
		return nil, err
	}
	c, err := s.repo.GetByID(ctx, auth.UserIDFromContext(ctx), id)
	if err != nil {
		return nil, err
	}
	c.Name = req.Name
	c.Relationship = req.Relationship
	c.Phone = req.Phone
	c.Email = req.Email
	if req.Notify != nil {
		c.Notify = *req.Notify
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) Remove(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, auth.UserIDFromContext(ctx), id)
}

// Alert queues an email to every contact with Notify set. The alert goes to
// the critical queue; one bad address never blocks the rest.
func (s *Service) Alert(ctx context.Context, req AlertRequest) (*AlertResult, error) {
	userID := auth.UserIDFromContext(ctx)
	contacts, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		message = "They triggered an emergency alert from the app."
	}

	userName := auth.EmailFromContext(ctx)
	if userName == "" {
		userName = "A person you know"
	}

	notified := 0
	for _, c := range contacts {
		if !c.Notify {
			continue
		}
		err := s.alerter.EnqueueEmergencyAlert(ctx, jobs.EmergencyAlertPayload{
			ContactEmail: c.Email,
			ContactName:  c.Name,
			UserName:     userName,
			Message:      message,
		})
		if err != nil {
			s.logger.Error().Err(err).Str("contact_id", c.ID.String()).Msg("failed to queue alert")
			continue
		}
		notified++
	}

	s.logger.Warn().
		Str("user_id", userID).
		Int("notified", notified).
		Msg("emergency alert triggered")
	return &AlertResult{Notified: notified}, nil
}

func validateContact(req ContactRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if !strings.Contains(req.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	return nil
}
