package appointment

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/esaha/esaha/internal/domain/specialist"
	"github.com/esaha/esaha/internal/platform/auth"
)

var (
	timeRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Allowed status transitions. Terminal statuses have no exits.
var transitions = map[string]map[string]bool{
	StatusScheduled: {
		StatusCompleted: true,
		StatusCancelled: true,
	},
}

// CacheInvalidator drops cached availability for a specialist's date after a
// write changes what is bookable.
type CacheInvalidator interface {
	InvalidateAvailability(ctx context.Context, specialistID uuid.UUID, date string)
}

// ReminderCanceler removes a queued reminder for an appointment.
type ReminderCanceler interface {
	CancelScheduledReminder(appointmentID string)
}

// SpecialistDirectory resolves the specialist record linked to an
// authenticated user account. specialist.Repository satisfies it.
type SpecialistDirectory interface {
	GetByUserID(ctx context.Context, userID string) (*specialist.Specialist, error)
}

// Service owns the appointment lifecycle after booking: listing,
// rescheduling, status changes and cancellation. New appointments are
// created by the scheduling coordinator, not here.
type Service struct {
	repo        Repository
	specialists SpecialistDirectory
	invalidate  CacheInvalidator
	reminders   ReminderCanceler
	logger      zerolog.Logger
}

func NewService(repo Repository, specialists SpecialistDirectory, invalidate CacheInvalidator, reminders ReminderCanceler, logger zerolog.Logger) *Service {
	return &Service{repo: repo, specialists: specialists, invalidate: invalidate, reminders: reminders, logger: logger}
}

// Get returns an appointment the caller is allowed to see: the booking user,
// the specialist it belongs to, or an admin.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ListMine(ctx context.Context, status string, limit, offset int) ([]*Appointment, int, error) {
	userID := auth.UserIDFromContext(ctx)
	if status != "" && !ValidStatuses[status] {
		return nil, 0, fmt.Errorf("invalid status %q", status)
	}
	return s.repo.ListByUser(ctx, userID, status, limit, offset)
}

// ListForSpecialist lists a specialist's calendar. Non-admin callers may
// only list the calendar of the specialist record linked to their own
// account.
func (s *Service) ListForSpecialist(ctx context.Context, specialistID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	if status != "" && !ValidStatuses[status] {
		return nil, 0, fmt.Errorf("invalid status %q", status)
	}
	if !auth.HasRole(auth.RolesFromContext(ctx), auth.RoleAdmin) {
		own, err := s.ownSpecialistID(ctx)
		if err != nil || own != specialistID {
			return nil, 0, ErrForbidden
		}
	}
	return s.repo.ListBySpecialist(ctx, specialistID, status, limit, offset)
}

// Update reschedules an appointment. The repo enforces both the version
// check and the no-overlap rule, so a stale client gets ErrVersionMismatch
// and a taken range gets ErrConflict.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, a); err != nil {
		return nil, err
	}
	if a.Status != StatusScheduled {
		return nil, fmt.Errorf("%w: cannot reschedule a %s appointment", ErrInvalidTransition, a.Status)
	}

	oldDate := a.Date
	if req.Title != nil {
		if *req.Title == "" {
			return nil, fmt.Errorf("title cannot be empty")
		}
		a.Title = *req.Title
	}
	if req.Description != nil {
		a.Description = req.Description
	}
	if req.Date != nil {
		if !dateRe.MatchString(*req.Date) {
			return nil, fmt.Errorf("date must be YYYY-MM-DD, got %q", *req.Date)
		}
		a.Date = *req.Date
	}
	if req.StartTime != nil {
		if !timeRe.MatchString(*req.StartTime) {
			return nil, fmt.Errorf("start_time must be HH:MM, got %q", *req.StartTime)
		}
		a.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		if !timeRe.MatchString(*req.EndTime) {
			return nil, fmt.Errorf("end_time must be HH:MM, got %q", *req.EndTime)
		}
		a.EndTime = *req.EndTime
	}
	if a.EndTime <= a.StartTime {
		return nil, fmt.Errorf("end_time %q must be after start_time %q", a.EndTime, a.StartTime)
	}
	if req.Type != nil {
		if !ValidTypes[*req.Type] {
			return nil, fmt.Errorf("invalid type %q", *req.Type)
		}
		a.Type = *req.Type
	}
	if req.Location != nil {
		a.Location = req.Location
	}
	if req.ReminderTime != nil {
		if *req.ReminderTime < 0 {
			return nil, fmt.Errorf("reminder_time cannot be negative")
		}
		a.ReminderTime = *req.ReminderTime
	}

	if err := s.repo.Update(ctx, a, req.Version); err != nil {
		return nil, err
	}

	s.invalidateDay(ctx, a.SpecialistID, oldDate)
	if a.Date != oldDate {
		s.invalidateDay(ctx, a.SpecialistID, a.Date)
	}
	return a, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*Appointment, error) {
	if !ValidStatuses[status] {
		return nil, fmt.Errorf("invalid status %q", status)
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, a); err != nil {
		return nil, err
	}
	if !transitions[a.Status][status] {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, status)
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	a.Status = status
	a.Version++

	// Leaving the scheduled state frees the range.
	s.invalidateDay(ctx, a.SpecialistID, a.Date)
	if status == StatusCancelled && s.reminders != nil {
		s.reminders.CancelScheduledReminder(a.ID.String())
	}
	return a, nil
}

// Delete permanently removes an appointment. Cancelling through the status
// endpoint keeps the row for history; delete is for records the user wants
// gone entirely. A still-scheduled appointment frees its slot and drops any
// queued reminder on the way out.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, a); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if a.Status == StatusScheduled {
		s.invalidateDay(ctx, a.SpecialistID, a.Date)
		if s.reminders != nil {
			s.reminders.CancelScheduledReminder(a.ID.String())
		}
	}
	return nil
}

func (s *Service) authorize(ctx context.Context, a *Appointment) error {
	roles := auth.RolesFromContext(ctx)
	if auth.HasRole(roles, auth.RoleAdmin) {
		return nil
	}
	userID := auth.UserIDFromContext(ctx)
	if a.UserID == userID {
		return nil
	}
	// A specialist may act on an appointment only when it sits on their
	// own calendar.
	if auth.HasRole(roles, auth.RoleSpecialist) {
		if own, err := s.ownSpecialistID(ctx); err == nil && own == a.SpecialistID {
			return nil
		}
	}
	return ErrForbidden
}

// ownSpecialistID resolves the caller to the specialist record their user
// account is linked to.
func (s *Service) ownSpecialistID(ctx context.Context) (uuid.UUID, error) {
	if s.specialists == nil {
		return uuid.Nil, ErrForbidden
	}
	sp, err := s.specialists.GetByUserID(ctx, auth.UserIDFromContext(ctx))
	if err != nil {
		return uuid.Nil, ErrForbidden
	}
	return sp.ID, nil
}

func (s *Service) invalidateDay(ctx context.Context, specialistID uuid.UUID, date string) {
	if s.invalidate != nil {
		s.invalidate.InvalidateAvailability(ctx, specialistID, date)
	}
}
