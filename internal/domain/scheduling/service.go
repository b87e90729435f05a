package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/esaha/esaha/internal/domain/appointment"
	"github.com/esaha/esaha/internal/domain/specialist"
	"github.com/esaha/esaha/internal/platform/auth"
	"github.com/esaha/esaha/internal/platform/jobs"
)

// ErrSlotInvalid means the requested slot does not exist in the
// specialist's schedule at all; this is a bad request, not a conflict.
var ErrSlotInvalid = errors.New("scheduling: no such slot")

// AppointmentStore is the slice of the appointment repository the
// coordinator needs. appointment.Repository satisfies it.
type AppointmentStore interface {
	CreateBooked(ctx context.Context, a *appointment.Appointment) error
	FindByIdempotencyKey(ctx context.Context, userID, key string) (*appointment.Appointment, error)
	ListScheduledInRange(ctx context.Context, specialistID uuid.UUID, fromDate, toDate string) ([]*appointment.Appointment, error)
	ListScheduledForUserMonth(ctx context.Context, userID string, fromDate, toDate string) ([]*appointment.Appointment, error)
}

// SpecialistStore is the slice of the specialist repository the coordinator
// needs. specialist.Repository satisfies it.
type SpecialistStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*specialist.Specialist, error)
	ListRules(ctx context.Context, specialistID uuid.UUID) ([]*specialist.AvailabilityRule, error)
	ListTimeOff(ctx context.Context, specialistID uuid.UUID, fromDate string) ([]*specialist.TimeOff, error)
}

// Notifier queues the post-booking emails. *jobs.Enqueuer satisfies it.
type Notifier interface {
	EnqueueConfirmation(ctx context.Context, p jobs.AppointmentMailPayload) error
	EnqueueReminder(ctx context.Context, p jobs.AppointmentMailPayload, at time.Time) error
}

// Service computes calendars and availability and coordinates booking.
type Service struct {
	appts       AppointmentStore
	specialists SpecialistStore
	slotCache   *SlotCache
	notifier    Notifier
	slotMinutes int
	horizonDays int
	logger      zerolog.Logger

	now func() time.Time
}

func NewService(
	appts AppointmentStore,
	specialists SpecialistStore,
	slotCache *SlotCache,
	notifier Notifier,
	slotMinutes, horizonDays int,
	logger zerolog.Logger,
) *Service {
	return &Service{
		appts:       appts,
		specialists: specialists,
		slotCache:   slotCache,
		notifier:    notifier,
		slotMinutes: slotMinutes,
		horizonDays: horizonDays,
		logger:      logger,
		now:         time.Now,
	}
}

// monthBounds returns the first and last civil dates of a month after
// normalization.
func monthBounds(year, month int) (first time.Time, fromDate, toDate string) {
	first = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first, first.Format("2006-01-02"), last.Format("2006-01-02")
}

// MonthGrid returns the caller's calendar for one month, with their
// scheduled appointments marked on the grid.
func (s *Service) MonthGrid(ctx context.Context, year, month int) (*MonthGrid, error) {
	userID := auth.UserIDFromContext(ctx)
	_, fromDate, toDate := monthBounds(year, month)

	appts, err := s.appts.ListScheduledForUserMonth(ctx, userID, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("load month appointments: %w", err)
	}

	grid := BuildMonthGrid(year, month, appts, s.now())
	return &grid, nil
}

// AvailableDates lists the dates in a month on which the specialist has at
// least one free slot.
func (s *Service) AvailableDates(ctx context.Context, specialistID uuid.UUID, year, month int) ([]string, error) {
	if _, err := s.specialists.GetByID(ctx, specialistID); err != nil {
		return nil, err
	}

	first, fromDate, toDate := monthBounds(year, month)
	rules, timeOff, appts, err := s.loadSchedule(ctx, specialistID, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	apptsByDate := groupByDate(appts)
	now := s.now()

	dates := []string{}
	for d := first; d.Format("2006-01-02") <= toDate; d = d.AddDate(0, 0, 1) {
		date := d.Format("2006-01-02")
		slots, err := deriveSlots(specialistID, date, rules, timeOff, apptsByDate[date], s.slotMinutes, now)
		if err != nil {
			return nil, err
		}
		if hasFreeSlot(slots) {
			dates = append(dates, date)
		}
	}
	return dates, nil
}

// AvailableTimeSlots lists the slots still open for booking on a date.
// Slots that are taken, blocked or already past are left out entirely, so
// the response never leaks another user's booking as a greyed-out slot.
// Results are cached per specialist per date.
func (s *Service) AvailableTimeSlots(ctx context.Context, specialistID uuid.UUID, date string) ([]TimeSlot, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("date must be YYYY-MM-DD, got %q", date)
	}
	if _, err := s.specialists.GetByID(ctx, specialistID); err != nil {
		return nil, err
	}

	if s.slotCache != nil {
		if slots, ok := s.slotCache.GetDay(ctx, specialistID, date); ok {
			return openOnly(slots), nil
		}
	}

	slots, err := s.freshSlots(ctx, specialistID, date)
	if err != nil {
		return nil, err
	}

	if s.slotCache != nil {
		s.slotCache.SetDay(ctx, specialistID, date, slots)
	}
	return openOnly(slots), nil
}

// openOnly filters a derived slot set down to the bookable slots. The full
// flagged set still backs the cache and the booking path, which needs to
// tell a taken slot apart from one that never existed.
func openOnly(slots []TimeSlot) []TimeSlot {
	open := []TimeSlot{}
	for _, slot := range slots {
		if slot.Available {
			open = append(open, slot)
		}
	}
	return open
}

// freshSlots derives slots for one date straight from the database,
// bypassing the cache. Booking always uses this path.
func (s *Service) freshSlots(ctx context.Context, specialistID uuid.UUID, date string) ([]TimeSlot, error) {
	rules, timeOff, appts, err := s.loadSchedule(ctx, specialistID, date, date)
	if err != nil {
		return nil, err
	}
	slots, err := deriveSlots(specialistID, date, rules, timeOff, appts, s.slotMinutes, s.now())
	if err != nil {
		return nil, err
	}
	if slots == nil {
		slots = []TimeSlot{}
	}
	return slots, nil
}

func (s *Service) loadSchedule(ctx context.Context, specialistID uuid.UUID, fromDate, toDate string) ([]*specialist.AvailabilityRule, []*specialist.TimeOff, []*appointment.Appointment, error) {
	rules, err := s.specialists.ListRules(ctx, specialistID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load rules: %w", err)
	}
	timeOff, err := s.specialists.ListTimeOff(ctx, specialistID, fromDate)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load time off: %w", err)
	}
	appts, err := s.appts.ListScheduledInRange(ctx, specialistID, fromDate, toDate)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load appointments: %w", err)
	}
	return rules, timeOff, appts, nil
}

func groupByDate(appts []*appointment.Appointment) map[string][]*appointment.Appointment {
	m := make(map[string][]*appointment.Appointment, len(appts))
	for _, a := range appts {
		m[a.Date] = append(m[a.Date], a)
	}
	return m
}

// Book books one slot for the authenticated user. The requested slot must
// exist in the specialist's derived schedule; a slot that exists but is
// taken returns appointment.ErrConflict. The insert itself re-checks
// overlap under an advisory lock, so two racing bookings cannot both win.
//
// When idempotencyKey is non-empty and an appointment with that key already
// exists for the user, the stored appointment is returned instead of
// booking twice.
func (s *Service) Book(ctx context.Context, req BookRequest, idempotencyKey string) (*appointment.Appointment, error) {
	userID := auth.UserIDFromContext(ctx)

	if idempotencyKey != "" {
		if existing, err := s.appts.FindByIdempotencyKey(ctx, userID, idempotencyKey); err == nil {
			return existing, nil
		} else if !errors.Is(err, appointment.ErrNotFound) {
			return nil, err
		}
	}

	sp, err := s.specialists.GetByID(ctx, req.SpecialistID)
	if err != nil {
		return nil, err
	}
	if !sp.Active {
		return nil, fmt.Errorf("specialist is not accepting bookings")
	}
	if req.Type == "" {
		req.Type = appointment.TypeTherapy
	}
	if !appointment.ValidTypes[req.Type] {
		return nil, fmt.Errorf("invalid type %q", req.Type)
	}

	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("date must be YYYY-MM-DD, got %q", req.Date)
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(today) {
		return nil, fmt.Errorf("cannot book a past date")
	}
	if day.After(today.AddDate(0, 0, s.horizonDays)) {
		return nil, fmt.Errorf("date is beyond the %d-day booking window", s.horizonDays)
	}

	slots, err := s.freshSlots(ctx, req.SpecialistID, req.Date)
	if err != nil {
		return nil, err
	}

	var slot *TimeSlot
	for i := range slots {
		if slots[i].StartTime == req.StartTime {
			slot = &slots[i]
			break
		}
	}
	if slot == nil {
		return nil, fmt.Errorf("%w: %s at %s", ErrSlotInvalid, req.Date, req.StartTime)
	}
	if !slot.Available {
		return nil, appointment.ErrConflict
	}

	title := req.Title
	if title == "" {
		title = "Appointment with " + sp.Name
	}
	reminder := appointment.DefaultReminderMinutes
	if req.ReminderTime != nil {
		if *req.ReminderTime < 0 {
			return nil, fmt.Errorf("reminder_time cannot be negative")
		}
		reminder = *req.ReminderTime
	}

	nowUTC := now.UTC()
	a := &appointment.Appointment{
		ID:             uuid.New(),
		UserID:         userID,
		SpecialistID:   req.SpecialistID,
		SpecialistName: sp.Name,
		Title:          title,
		Description:    req.Description,
		Date:           req.Date,
		StartTime:      slot.StartTime,
		EndTime:        slot.EndTime,
		Type:           req.Type,
		Location:       req.Location,
		ReminderTime:   reminder,
		Status:         appointment.StatusScheduled,
		Version:        1,
		CreatedAt:      nowUTC,
		UpdatedAt:      nowUTC,
	}
	if idempotencyKey != "" {
		a.IdempotencyKey = &idempotencyKey
	}

	if err := s.appts.CreateBooked(ctx, a); err != nil {
		return nil, err
	}

	if s.slotCache != nil {
		s.slotCache.InvalidateAvailability(ctx, req.SpecialistID, req.Date)
	}
	s.notify(ctx, a, sp)

	s.logger.Info().
		Str("appointment_id", a.ID.String()).
		Str("specialist_id", req.SpecialistID.String()).
		Str("date", req.Date).
		Str("start", a.StartTime).
		Msg("appointment booked")
	return a, nil
}

// notify queues the confirmation and reminder emails. Mail failures never
// fail the booking.
func (s *Service) notify(ctx context.Context, a *appointment.Appointment, sp *specialist.Specialist) {
	if s.notifier == nil {
		return
	}
	email := auth.EmailFromContext(ctx)
	if email == "" {
		return
	}

	payload := jobs.AppointmentMailPayload{
		AppointmentID:  a.ID.String(),
		UserEmail:      email,
		UserName:       email,
		SpecialistName: sp.Name,
		Title:          a.Title,
		Date:           a.Date,
		StartTime:      a.StartTime,
		EndTime:        a.EndTime,
		Type:           a.Type,
	}

	if err := s.notifier.EnqueueConfirmation(ctx, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to queue confirmation")
	}

	start, err := time.ParseInLocation("2006-01-02 15:04", a.Date+" "+a.StartTime, time.Local)
	if err != nil {
		return
	}
	lead := time.Duration(a.ReminderTime) * time.Minute
	if err := s.notifier.EnqueueReminder(ctx, payload, start.Add(-lead)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to queue reminder")
	}
}
