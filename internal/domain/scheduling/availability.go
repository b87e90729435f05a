package scheduling

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/esaha/esaha/internal/domain/appointment"
	"github.com/esaha/esaha/internal/domain/specialist"
)

// minutesOfDay parses "HH:MM" into minutes since midnight.
func minutesOfDay(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("bad time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad time %q", s)
	}
	return h*60 + m, nil
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// deriveSlots discretizes the specialist's active weekly rules for one date
// into fixed-width slots and marks each slot available or not. Rules that
// have been switched off contribute no slots at all. A slot is
// unavailable when the date is blocked by time off, when it overlaps a
// scheduled appointment, or when it has already started relative to now.
//
// Slots are emitted in start order. Windows shorter than the slot width
// produce nothing; a trailing partial slot is dropped rather than shortened.
func deriveSlots(
	specialistID uuid.UUID,
	date string,
	rules []*specialist.AvailabilityRule,
	timeOff []*specialist.TimeOff,
	appts []*appointment.Appointment,
	slotMinutes int,
	now time.Time,
) ([]TimeSlot, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("bad date %q: %w", date, err)
	}
	weekday := int(day.Weekday())

	blocked := false
	for _, t := range timeOff {
		if t.Date == date {
			blocked = true
			break
		}
	}

	todayStr := now.Format("2006-01-02")
	nowMinutes := now.Hour()*60 + now.Minute()

	var slots []TimeSlot
	for _, rule := range rules {
		if !rule.Active || rule.Weekday != weekday {
			continue
		}
		start, err := minutesOfDay(rule.StartTime)
		if err != nil {
			return nil, err
		}
		end, err := minutesOfDay(rule.EndTime)
		if err != nil {
			return nil, err
		}

		for from := start; from+slotMinutes <= end; from += slotMinutes {
			to := from + slotMinutes
			startStr := formatMinutes(from)
			endStr := formatMinutes(to)

			available := !blocked
			if available && date < todayStr {
				available = false
			}
			if available && date == todayStr && from <= nowMinutes {
				available = false
			}
			if available {
				for _, a := range appts {
					if a.Overlaps(date, startStr, endStr) {
						available = false
						break
					}
				}
			}

			slots = append(slots, TimeSlot{
				ID:           SlotID(specialistID, date, startStr),
				SpecialistID: specialistID,
				Date:         date,
				StartTime:    startStr,
				EndTime:      endStr,
				Available:    available,
			})
		}
	}

	return slots, nil
}

// hasFreeSlot reports whether any derived slot on the date is available.
func hasFreeSlot(slots []TimeSlot) bool {
	for _, s := range slots {
		if s.Available {
			return true
		}
	}
	return false
}
