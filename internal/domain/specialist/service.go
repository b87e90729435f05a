package specialist

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/esaha/esaha/internal/platform/auth"
)

var timeOfDayRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ErrForbidden is returned when a specialist tries to manage a schedule
// that is not their own.
var ErrForbidden = errors.New("specialist: not allowed")

// AvailabilityInvalidator drops cached slot computations for a specialist
// after their rules or time off change. The scheduling slot cache
// satisfies it.
type AvailabilityInvalidator interface {
	InvalidateSpecialist(ctx context.Context, specialistID uuid.UUID)
}

// Service owns validation and orchestration for the specialist directory.
type Service struct {
	repo  Repository
	cache AvailabilityInvalidator
}

func NewService(repo Repository, cache AvailabilityInvalidator) *Service {
	return &Service{repo: repo, cache: cache}
}

// authorizeManage allows admins and the specialist's own linked user
// account to change the schedule.
func (s *Service) authorizeManage(ctx context.Context, sp *Specialist) error {
	roles := auth.RolesFromContext(ctx)
	if auth.HasRole(roles, auth.RoleAdmin) {
		return nil
	}
	userID := auth.UserIDFromContext(ctx)
	if sp.UserID != nil && *sp.UserID == userID {
		return nil
	}
	return ErrForbidden
}

func (s *Service) invalidate(ctx context.Context, specialistID uuid.UUID) {
	if s.cache != nil {
		s.cache.InvalidateSpecialist(ctx, specialistID)
	}
}

func (s *Service) Create(ctx context.Context, req CreateSpecialistRequest) (*Specialist, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if req.Email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if err := validateRating(req.Rating); err != nil {
		return nil, err
	}
	if err := validatePrice(req.Price); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sp := &Specialist{
		ID:          uuid.New(),
		UserID:      req.UserID,
		Name:        req.Name,
		Title:       req.Title,
		Specialties: req.Specialties,
		Bio:         req.Bio,
		Email:       req.Email,
		ImageURL:    req.ImageURL,
		Rating:      req.Rating,
		Price:       req.Price,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if sp.Specialties == nil {
		sp.Specialties = []string{}
	}
	if err := s.repo.Create(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Specialist, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, onlyActive bool, specialty string, limit, offset int) ([]*Specialist, int, error) {
	return s.repo.List(ctx, onlyActive, specialty, limit, offset)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateSpecialistRequest) (*Specialist, error) {
	sp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		sp.Name = *req.Name
	}
	if req.Title != nil {
		sp.Title = *req.Title
	}
	if req.Specialties != nil {
		sp.Specialties = req.Specialties
	}
	if req.Bio != nil {
		sp.Bio = *req.Bio
	}
	if req.Email != nil {
		sp.Email = *req.Email
	}
	if req.ImageURL != nil {
		sp.ImageURL = req.ImageURL
	}
	if req.Rating != nil {
		if err := validateRating(req.Rating); err != nil {
			return nil, err
		}
		sp.Rating = req.Rating
	}
	if req.Price != nil {
		if err := validatePrice(req.Price); err != nil {
			return nil, err
		}
		sp.Price = req.Price
	}
	if req.Active != nil {
		sp.Active = *req.Active
	}

	if err := s.repo.Update(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

// SetAvailability replaces the full weekly rule set. Rules with an end not
// after the start or a bad weekday are rejected before anything is written.
// Only admins and the specialist's own account may call it.
func (s *Service) SetAvailability(ctx context.Context, specialistID uuid.UUID, req SetAvailabilityRequest) ([]*AvailabilityRule, error) {
	sp, err := s.repo.GetByID(ctx, specialistID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeManage(ctx, sp); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rules := make([]*AvailabilityRule, 0, len(req.Rules))
	for _, in := range req.Rules {
		if in.Weekday < 0 || in.Weekday > 6 {
			return nil, fmt.Errorf("weekday must be 0..6, got %d", in.Weekday)
		}
		if !timeOfDayRe.MatchString(in.StartTime) || !timeOfDayRe.MatchString(in.EndTime) {
			return nil, fmt.Errorf("times must be HH:MM, got %q..%q", in.StartTime, in.EndTime)
		}
		if in.EndTime <= in.StartTime {
			return nil, fmt.Errorf("end time %q must be after start time %q", in.EndTime, in.StartTime)
		}
		active := true
		if in.IsActive != nil {
			active = *in.IsActive
		}
		rules = append(rules, &AvailabilityRule{
			ID:           uuid.New(),
			SpecialistID: specialistID,
			Weekday:      in.Weekday,
			StartTime:    in.StartTime,
			EndTime:      in.EndTime,
			Active:       active,
			CreatedAt:    now,
		})
	}

	if err := s.repo.ReplaceRules(ctx, specialistID, rules); err != nil {
		return nil, err
	}
	s.invalidate(ctx, specialistID)
	return rules, nil
}

func (s *Service) Availability(ctx context.Context, specialistID uuid.UUID) ([]*AvailabilityRule, error) {
	if _, err := s.repo.GetByID(ctx, specialistID); err != nil {
		return nil, err
	}
	return s.repo.ListRules(ctx, specialistID)
}

func (s *Service) AddTimeOff(ctx context.Context, specialistID uuid.UUID, req AddTimeOffRequest) (*TimeOff, error) {
	if !dateRe.MatchString(req.Date) {
		return nil, fmt.Errorf("date must be YYYY-MM-DD, got %q", req.Date)
	}
	sp, err := s.repo.GetByID(ctx, specialistID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeManage(ctx, sp); err != nil {
		return nil, err
	}

	t := &TimeOff{
		ID:           uuid.New(),
		SpecialistID: specialistID,
		Date:         req.Date,
		Reason:       req.Reason,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.AddTimeOff(ctx, t); err != nil {
		return nil, err
	}
	s.invalidate(ctx, specialistID)
	return t, nil
}

func (s *Service) RemoveTimeOff(ctx context.Context, specialistID, timeOffID uuid.UUID) error {
	sp, err := s.repo.GetByID(ctx, specialistID)
	if err != nil {
		return err
	}
	if err := s.authorizeManage(ctx, sp); err != nil {
		return err
	}
	if err := s.repo.DeleteTimeOff(ctx, specialistID, timeOffID); err != nil {
		return err
	}
	s.invalidate(ctx, specialistID)
	return nil
}

func (s *Service) TimeOff(ctx context.Context, specialistID uuid.UUID, fromDate string) ([]*TimeOff, error) {
	sp, err := s.repo.GetByID(ctx, specialistID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeManage(ctx, sp); err != nil {
		return nil, err
	}
	return s.repo.ListTimeOff(ctx, specialistID, fromDate)
}

func validateRating(r *float64) error {
	if r != nil && (*r < 0 || *r > 5) {
		return fmt.Errorf("rating must be 0..5, got %v", *r)
	}
	return nil
}

func validatePrice(p *float64) error {
	if p != nil && *p < 0 {
		return fmt.Errorf("price cannot be negative, got %v", *p)
	}
	return nil
}
