package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/esaha/esaha/internal/domain/appointment"
	"github.com/esaha/esaha/internal/domain/specialist"
	"github.com/esaha/esaha/internal/platform/auth"
	"github.com/esaha/esaha/internal/platform/jobs"
)

type mockApptStore struct {
	appts []*appointment.Appointment
}

func (m *mockApptStore) CreateBooked(_ context.Context, a *appointment.Appointment) error {
	for _, existing := range m.appts {
		if existing.SpecialistID == a.SpecialistID &&
			existing.Status == appointment.StatusScheduled &&
			existing.Overlaps(a.Date, a.StartTime, a.EndTime) {
			return appointment.ErrConflict
		}
	}
	m.appts = append(m.appts, a)
	return nil
}

func (m *mockApptStore) FindByIdempotencyKey(_ context.Context, userID, key string) (*appointment.Appointment, error) {
	for _, a := range m.appts {
		if a.UserID == userID && a.IdempotencyKey != nil && *a.IdempotencyKey == key {
			return a, nil
		}
	}
	return nil, appointment.ErrNotFound
}

func (m *mockApptStore) ListScheduledInRange(_ context.Context, specialistID uuid.UUID, fromDate, toDate string) ([]*appointment.Appointment, error) {
	var out []*appointment.Appointment
	for _, a := range m.appts {
		if a.SpecialistID == specialistID && a.Status == appointment.StatusScheduled &&
			a.Date >= fromDate && a.Date <= toDate {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockApptStore) ListScheduledForUserMonth(_ context.Context, userID, fromDate, toDate string) ([]*appointment.Appointment, error) {
	var out []*appointment.Appointment
	for _, a := range m.appts {
		if a.UserID == userID && a.Status == appointment.StatusScheduled &&
			a.Date >= fromDate && a.Date <= toDate {
			out = append(out, a)
		}
	}
	return out, nil
}

type mockSpecialistStore struct {
	specialists map[uuid.UUID]*specialist.Specialist
	rules       []*specialist.AvailabilityRule
	timeOff     []*specialist.TimeOff
}

func (m *mockSpecialistStore) GetByID(_ context.Context, id uuid.UUID) (*specialist.Specialist, error) {
	sp, ok := m.specialists[id]
	if !ok {
		return nil, specialist.ErrNotFound
	}
	return sp, nil
}

func (m *mockSpecialistStore) ListRules(_ context.Context, specialistID uuid.UUID) ([]*specialist.AvailabilityRule, error) {
	var out []*specialist.AvailabilityRule
	for _, r := range m.rules {
		if r.SpecialistID == specialistID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockSpecialistStore) ListTimeOff(_ context.Context, specialistID uuid.UUID, fromDate string) ([]*specialist.TimeOff, error) {
	var out []*specialist.TimeOff
	for _, t := range m.timeOff {
		if t.SpecialistID == specialistID && t.Date >= fromDate {
			out = append(out, t)
		}
	}
	return out, nil
}

type mockNotifier struct {
	confirmations []jobs.AppointmentMailPayload
	reminders     []time.Time
}

func (m *mockNotifier) EnqueueConfirmation(_ context.Context, p jobs.AppointmentMailPayload) error {
	m.confirmations = append(m.confirmations, p)
	return nil
}

func (m *mockNotifier) EnqueueReminder(_ context.Context, _ jobs.AppointmentMailPayload, at time.Time) error {
	m.reminders = append(m.reminders, at)
	return nil
}

func userCtx(userID string) context.Context {
	return auth.WithIdentity(context.Background(), userID, []string{"user"}, userID+"@example.com")
}

// newTestService wires a service around one active specialist working
// Wednesdays 09:00-12:00, with "now" pinned to 2026-08-01.
func newTestService(t *testing.T) (*Service, *mockApptStore, *mockSpecialistStore, *mockNotifier, uuid.UUID) {
	t.Helper()

	id := uuid.New()
	specialists := &mockSpecialistStore{
		specialists: map[uuid.UUID]*specialist.Specialist{
			id: {ID: id, Name: "Dr. Amal", Active: true},
		},
		rules: []*specialist.AvailabilityRule{
			{ID: uuid.New(), SpecialistID: id, Weekday: 3, StartTime: "09:00", EndTime: "12:00", Active: true},
		},
	}
	appts := &mockApptStore{}
	notifier := &mockNotifier{}

	svc := NewService(appts, specialists, nil, notifier, 60, 90, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 8, 1, 8, 0, 0, 0, time.UTC) }
	return svc, appts, specialists, notifier, id
}

func TestBookSuccess(t *testing.T) {
	svc, appts, _, notifier, specialistID := newTestService(t)
	ctx := userCtx("user-1")

	a, err := svc.Book(ctx, BookRequest{
		SpecialistID: specialistID,
		Date:         wednesday,
		StartTime:    "10:00",
	}, "")
	if err != nil {
		t.Fatal(err)
	}

	if a.Status != appointment.StatusScheduled {
		t.Errorf("expected scheduled, got %s", a.Status)
	}
	if a.EndTime != "11:00" {
		t.Errorf("expected end 11:00, got %s", a.EndTime)
	}
	if a.Title != "Appointment with Dr. Amal" {
		t.Errorf("expected default title, got %q", a.Title)
	}
	if a.Type != appointment.TypeTherapy {
		t.Errorf("expected default type therapy, got %s", a.Type)
	}
	if a.ReminderTime != appointment.DefaultReminderMinutes {
		t.Errorf("expected default reminder 60, got %d", a.ReminderTime)
	}
	if a.UserID != "user-1" {
		t.Errorf("expected user-1, got %s", a.UserID)
	}
	if a.Version != 1 {
		t.Errorf("expected version 1, got %d", a.Version)
	}
	if len(appts.appts) != 1 {
		t.Fatalf("expected 1 stored appointment, got %d", len(appts.appts))
	}
	if len(notifier.confirmations) != 1 {
		t.Errorf("expected a confirmation email, got %d", len(notifier.confirmations))
	}
	if len(notifier.reminders) != 1 {
		t.Errorf("expected a reminder, got %d", len(notifier.reminders))
	}
}

func TestBookTakenSlotConflicts(t *testing.T) {
	svc, _, _, _, specialistID := newTestService(t)

	req := BookRequest{
		SpecialistID: specialistID,
		Date:         wednesday,
		StartTime:    "10:00",
	}
	if _, err := svc.Book(userCtx("user-1"), req, ""); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Book(userCtx("user-2"), req, "")
	if !errors.Is(err, appointment.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestBookNonexistentSlotRejected(t *testing.T) {
	svc, _, _, _, specialistID := newTestService(t)

	// 14:00 is outside the 09:00-12:00 window.
	_, err := svc.Book(userCtx("user-1"), BookRequest{
		SpecialistID: specialistID,
		Date:         wednesday,
		StartTime:    "14:00",
	}, "")
	if !errors.Is(err, ErrSlotInvalid) {
		t.Fatalf("expected ErrSlotInvalid, got %v", err)
	}
}

func TestBookUnknownSpecialist(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	_, err := svc.Book(userCtx("user-1"), BookRequest{
		SpecialistID: uuid.New(),
		Date:         wednesday,
		StartTime:    "10:00",
	}, "")
	if !errors.Is(err, specialist.ErrNotFound) {
		t.Fatalf("expected specialist.ErrNotFound, got %v", err)
	}
}

func TestBookInactiveSpecialistRejected(t *testing.T) {
	svc, _, specialists, _, specialistID := newTestService(t)
	specialists.specialists[specialistID].Active = false

	_, err := svc.Book(userCtx("user-1"), BookRequest{
		SpecialistID: specialistID,
		Date:         wednesday,
		StartTime:    "10:00",
	}, "")
	if err == nil {
		t.Fatal("expected an error booking an inactive specialist")
	}
}

func TestBookPastDateRejected(t *testing.T) {
	svc, _, _, _, specialistID := newTestService(t)

	_, err := svc.Book(userCtx("user-1"), BookRequest{
		SpecialistID: specialistID,
		Date:         "2026-07-29", // a Wednesday before "now"
		StartTime:    "10:00",
	}, "")
	if err == nil {
		t.Fatal("expected an error booking a past date")
	}
}

func TestBookBeyondHorizonRejected(t *testing.T) {
	svc, _, _, _, specialistID := newTestService(t)

	_, err := svc.Book(userCtx("user-1"), BookRequest{
		SpecialistID: specialistID,
		Date:         "2027-01-06", // a Wednesday past the 90-day window
		StartTime:    "10:00",
	}, "")
	if err == nil {
		t.Fatal("expected an error booking beyond the horizon")
	}
}

func TestBookInvalidType(t *testing.T) {
	svc, _, _, _, specialistID := newTestService(t)

	_, err := svc.Book(userCtx("user-1"), BookRequest{
		SpecialistID: specialistID,
		Date:         wednesday,
		StartTime:    "10:00",
		Type:         "hologram",
	}, "")
	if err == nil {
		t.Fatal("expected an error for an unknown appointment type")
	}
}

func TestBookIdempotencyReplay(t *testing.T) {
	svc, appts, _, _, specialistID := newTestService(t)
	ctx := userCtx("user-1")

	req := BookRequest{
		SpecialistID: specialistID,
		Date:         wednesday,
		StartTime:    "10:00",
	}

	first, err := svc.Book(ctx, req, "key-123")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Book(ctx, req, "key-123")
	if err != nil {
		t.Fatalf("replay should succeed, got %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("replay returned a different appointment: %s vs %s", first.ID, second.ID)
	}
	if len(appts.appts) != 1 {
		t.Errorf("replay should not create a second row, got %d", len(appts.appts))
	}
}

func TestAvailableTimeSlotsOmitsBooked(t *testing.T) {
	svc, _, _, _, specialistID := newTestService(t)
	ctx := userCtx("user-1")

	slots, err := svc.AvailableTimeSlots(ctx, specialistID, wednesday)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 3 {
		t.Fatalf("expected 3 open slots before booking, got %d", len(slots))
	}

	if _, err := svc.Book(ctx, BookRequest{
		SpecialistID: specialistID,
		Date:         wednesday,
		StartTime:    "09:00",
	}, ""); err != nil {
		t.Fatal(err)
	}

	// The taken 09:00 slot disappears from the listing rather than showing
	// up flagged as unavailable.
	slots, err = svc.AvailableTimeSlots(ctx, specialistID, wednesday)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 open slots after booking, got %d", len(slots))
	}
	for _, s := range slots {
		if s.StartTime == "09:00" {
			t.Error("booked slot should be omitted from the listing")
		}
		if !s.Available {
			t.Errorf("slot %s: listed slots must all be open", s.StartTime)
		}
	}
}

func TestAvailableDatesOnlyWorkingDays(t *testing.T) {
	svc, _, specialists, _, specialistID := newTestService(t)
	ctx := userCtx("user-1")

	// Block one Wednesday with time off.
	specialists.timeOff = []*specialist.TimeOff{
		{SpecialistID: specialistID, Date: "2026-08-26"},
	}

	dates, err := svc.AvailableDates(ctx, specialistID, 2026, 8)
	if err != nil {
		t.Fatal(err)
	}

	// Wednesdays in Aug 2026: 5, 12, 19, 26. The 26th is off and nothing is
	// in the past relative to Aug 1.
	want := []string{"2026-08-05", "2026-08-12", "2026-08-19"}
	if len(dates) != len(want) {
		t.Fatalf("expected %v, got %v", want, dates)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Errorf("date %d: expected %s, got %s", i, want[i], dates[i])
		}
	}
}

func TestAvailableDatesFullyBookedDayExcluded(t *testing.T) {
	svc, appts, _, _, specialistID := newTestService(t)
	ctx := userCtx("user-1")

	// Book all three slots on the 5th.
	for _, start := range []string{"09:00", "10:00", "11:00"} {
		if _, err := svc.Book(ctx, BookRequest{
			SpecialistID: specialistID,
			Date:         "2026-08-05",
			StartTime:    start,
		}, ""); err != nil {
			t.Fatal(err)
		}
	}
	if len(appts.appts) != 3 {
		t.Fatalf("expected 3 bookings, got %d", len(appts.appts))
	}

	dates, err := svc.AvailableDates(ctx, specialistID, 2026, 8)
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range dates {
		if d == "2026-08-05" {
			t.Error("fully booked day should not be listed as available")
		}
	}
}

func TestMonthGridShowsOwnAppointmentsOnly(t *testing.T) {
	svc, appts, _, _, specialistID := newTestService(t)

	if _, err := svc.Book(userCtx("user-1"), BookRequest{
		SpecialistID: specialistID,
		Date:         wednesday,
		StartTime:    "09:00",
	}, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Book(userCtx("user-2"), BookRequest{
		SpecialistID: specialistID,
		Date:         wednesday,
		StartTime:    "10:00",
	}, ""); err != nil {
		t.Fatal(err)
	}
	if len(appts.appts) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(appts.appts))
	}

	grid, err := svc.MonthGrid(userCtx("user-1"), 2026, 8)
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range grid.Days {
		if d.Date == wednesday {
			if d.Appointments != 1 {
				t.Errorf("expected 1 appointment for user-1 on %s, got %d", wednesday, d.Appointments)
			}
			return
		}
	}
	t.Fatalf("date %s missing from grid", wednesday)
}
