package scheduling

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/esaha/esaha/internal/domain/appointment"
	"github.com/esaha/esaha/internal/domain/specialist"
)

var specID = uuid.New()

// 2026-08-19 is a Wednesday.
const wednesday = "2026-08-19"

func rule(weekday int, start, end string) *specialist.AvailabilityRule {
	return &specialist.AvailabilityRule{
		ID:           uuid.New(),
		SpecialistID: specID,
		Weekday:      weekday,
		StartTime:    start,
		EndTime:      end,
		Active:       true,
	}
}

func appt(date, start, end string) *appointment.Appointment {
	return &appointment.Appointment{
		ID:           uuid.New(),
		SpecialistID: specID,
		Date:         date,
		StartTime:    start,
		EndTime:      end,
		Status:       appointment.StatusScheduled,
	}
}

func TestDeriveSlotsDiscretizesRules(t *testing.T) {
	rules := []*specialist.AvailabilityRule{rule(3, "09:00", "12:00")}
	now := date(2026, 8, 1)

	slots, err := deriveSlots(specID, wednesday, rules, nil, nil, 60, now)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots from a 3-hour window, got %d", len(slots))
	}

	want := [][2]string{{"09:00", "10:00"}, {"10:00", "11:00"}, {"11:00", "12:00"}}
	for i, w := range want {
		if slots[i].StartTime != w[0] || slots[i].EndTime != w[1] {
			t.Errorf("slot %d: expected %s-%s, got %s-%s", i, w[0], w[1], slots[i].StartTime, slots[i].EndTime)
		}
		if !slots[i].Available {
			t.Errorf("slot %d should be available", i)
		}
	}
}

func TestDeriveSlotsDropsTrailingPartial(t *testing.T) {
	// 09:00-10:30 fits one 60-minute slot; the trailing half hour is dropped.
	rules := []*specialist.AvailabilityRule{rule(3, "09:00", "10:30")}

	slots, err := deriveSlots(specID, wednesday, rules, nil, nil, 60, date(2026, 8, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if slots[0].EndTime != "10:00" {
		t.Errorf("expected slot to end at 10:00, got %s", slots[0].EndTime)
	}
}

func TestDeriveSlotsSkipsInactiveRules(t *testing.T) {
	inactive := rule(3, "09:00", "12:00")
	inactive.Active = false
	rules := []*specialist.AvailabilityRule{inactive, rule(3, "14:00", "16:00")}

	slots, err := deriveSlots(specID, wednesday, rules, nil, nil, 60, date(2026, 8, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots from the active rule only, got %d", len(slots))
	}
	for _, s := range slots {
		if s.StartTime < "14:00" {
			t.Errorf("slot %s should not exist, its rule is inactive", s.StartTime)
		}
	}
}

func TestDeriveSlotsWrongWeekdayProducesNothing(t *testing.T) {
	rules := []*specialist.AvailabilityRule{rule(1, "09:00", "17:00")} // Monday only

	slots, err := deriveSlots(specID, wednesday, rules, nil, nil, 60, date(2026, 8, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots on a day with no rules, got %d", len(slots))
	}
}

func TestDeriveSlotsBookedOverlapUnavailable(t *testing.T) {
	rules := []*specialist.AvailabilityRule{rule(3, "09:00", "12:00")}
	appts := []*appointment.Appointment{appt(wednesday, "10:00", "11:00")}

	slots, err := deriveSlots(specID, wednesday, rules, nil, appts, 60, date(2026, 8, 1))
	if err != nil {
		t.Fatal(err)
	}

	for _, s := range slots {
		booked := s.StartTime == "10:00"
		if s.Available == booked {
			t.Errorf("slot %s: available=%v, want %v", s.StartTime, s.Available, !booked)
		}
	}
}

func TestDeriveSlotsHalfOpenBoundariesDoNotConflict(t *testing.T) {
	// An appointment ending at 10:00 must not block the 10:00 slot, and one
	// starting at 11:00 must not block the slot ending at 11:00.
	rules := []*specialist.AvailabilityRule{rule(3, "09:00", "12:00")}
	appts := []*appointment.Appointment{
		appt(wednesday, "09:00", "10:00"),
		appt(wednesday, "11:00", "12:00"),
	}

	slots, err := deriveSlots(specID, wednesday, rules, nil, appts, 60, date(2026, 8, 1))
	if err != nil {
		t.Fatal(err)
	}

	var middle *TimeSlot
	for i := range slots {
		if slots[i].StartTime == "10:00" {
			middle = &slots[i]
		}
	}
	if middle == nil {
		t.Fatal("missing 10:00 slot")
	}
	if !middle.Available {
		t.Error("10:00-11:00 should be available between back-to-back bookings")
	}
}

func TestDeriveSlotsTimeOffBlocksDay(t *testing.T) {
	rules := []*specialist.AvailabilityRule{rule(3, "09:00", "12:00")}
	timeOff := []*specialist.TimeOff{{SpecialistID: specID, Date: wednesday}}

	slots, err := deriveSlots(specID, wednesday, rules, timeOff, nil, 60, date(2026, 8, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) == 0 {
		t.Fatal("expected slots to exist, just unavailable")
	}
	for _, s := range slots {
		if s.Available {
			t.Errorf("slot %s should be blocked by time off", s.StartTime)
		}
	}
}

func TestDeriveSlotsPastSlotsOnTodayUnavailable(t *testing.T) {
	rules := []*specialist.AvailabilityRule{rule(3, "09:00", "12:00")}
	// Now is 10:30 on the Wednesday itself.
	now := time.Date(2026, 8, 19, 10, 30, 0, 0, time.UTC)

	slots, err := deriveSlots(specID, wednesday, rules, nil, nil, 60, now)
	if err != nil {
		t.Fatal(err)
	}

	for _, s := range slots {
		wantAvailable := s.StartTime == "11:00"
		if s.Available != wantAvailable {
			t.Errorf("slot %s at 10:30: available=%v, want %v", s.StartTime, s.Available, wantAvailable)
		}
	}
}

func TestDeriveSlotsPastDateAllUnavailable(t *testing.T) {
	rules := []*specialist.AvailabilityRule{rule(3, "09:00", "12:00")}

	slots, err := deriveSlots(specID, wednesday, rules, nil, nil, 60, date(2026, 9, 1))
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range slots {
		if s.Available {
			t.Errorf("slot %s on a past date should be unavailable", s.StartTime)
		}
	}
}

func TestDeriveSlotsDeterministicIDs(t *testing.T) {
	rules := []*specialist.AvailabilityRule{rule(3, "09:00", "11:00")}

	first, err := deriveSlots(specID, wednesday, rules, nil, nil, 60, date(2026, 8, 1))
	if err != nil {
		t.Fatal(err)
	}
	second, err := deriveSlots(specID, wednesday, rules, nil, nil, 60, date(2026, 8, 1))
	if err != nil {
		t.Fatal(err)
	}

	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("slot %d: id changed between derivations: %s vs %s", i, first[i].ID, second[i].ID)
		}
		want := SlotID(specID, wednesday, first[i].StartTime)
		if first[i].ID != want {
			t.Errorf("slot %d: id %s, want %s", i, first[i].ID, want)
		}
	}
}

func TestDeriveSlotsThirtyMinuteGranularity(t *testing.T) {
	rules := []*specialist.AvailabilityRule{rule(3, "09:00", "11:00")}

	slots, err := deriveSlots(specID, wednesday, rules, nil, nil, 30, date(2026, 8, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 4 {
		t.Fatalf("expected 4 thirty-minute slots, got %d", len(slots))
	}
	if slots[1].StartTime != "09:30" || slots[1].EndTime != "10:00" {
		t.Errorf("unexpected second slot %s-%s", slots[1].StartTime, slots[1].EndTime)
	}
}
