package profile

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/esaha/esaha/internal/platform/auth"
)

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the caller's profile, materializing a default one on first
// access.
func (s *Service) Get(ctx context.Context) (*Profile, error) {
	userID := auth.UserIDFromContext(ctx)
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return s.defaultProfile(ctx, userID)
	}
	return p, err
}

func (s *Service) defaultProfile(ctx context.Context, userID string) (*Profile, error) {
	now := time.Now().UTC()
	p := &Profile{
		UserID:      userID,
		DisplayName: auth.EmailFromContext(ctx),
		Language:    "en",
		Timezone:    "UTC",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, req UpdateProfileRequest) (*Profile, error) {
	p, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		p.DisplayName = *req.DisplayName
	}
	if req.Phone != nil {
		p.Phone = req.Phone
	}
	if req.DateOfBirth != nil {
		if *req.DateOfBirth != "" && !dateRe.MatchString(*req.DateOfBirth) {
			return nil, fmt.Errorf("date_of_birth must be YYYY-MM-DD, got %q", *req.DateOfBirth)
		}
		p.DateOfBirth = req.DateOfBirth
	}
	if req.Language != nil {
		p.Language = *req.Language
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return nil, fmt.Errorf("unknown timezone %q", *req.Timezone)
		}
		p.Timezone = *req.Timezone
	}

	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Export bundles the user's stored account data for download.
type Export struct {
	Profile  *Profile  `json:"profile"`
	Settings *Settings `json:"settings"`
}

func (s *Service) ExportData(ctx context.Context) (*Export, error) {
	p, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	st, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	return &Export{Profile: p, Settings: st}, nil
}

// Delete removes the caller's profile and settings. Appointments and mood
// history are owned by their own domains and stay; the identity itself
// lives at the external provider.
func (s *Service) Delete(ctx context.Context) error {
	return s.repo.DeleteAll(ctx, auth.UserIDFromContext(ctx))
}

func (s *Service) GetSettings(ctx context.Context) (*Settings, error) {
	userID := auth.UserIDFromContext(ctx)
	st, err := s.repo.GetSettings(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		st = &Settings{
			UserID:            userID,
			AppointmentEmails: true,
			MoodReminders:     false,
			UpdatedAt:         time.Now().UTC(),
		}
		if err := s.repo.UpsertSettings(ctx, st); err != nil {
			return nil, err
		}
		return st, nil
	}
	return st, err
}

func (s *Service) UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (*Settings, error) {
	st, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	if req.AppointmentEmails != nil {
		st.AppointmentEmails = *req.AppointmentEmails
	}
	if req.MoodReminders != nil {
		st.MoodReminders = *req.MoodReminders
	}
	if err := s.repo.UpsertSettings(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}
