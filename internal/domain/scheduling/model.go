package scheduling

import (
	"fmt"

	"github.com/google/uuid"
)

// CalendarDay is one cell of the six-week month grid.
type CalendarDay struct {
	Date           string `json:"date"`
	Day            int    `json:"day"`
	InMonth        bool   `json:"in_month"`
	IsToday        bool   `json:"is_today"`
	IsPast         bool   `json:"is_past"`
	HasAppointment bool   `json:"has_appointment"`
	Appointments   int    `json:"appointments"`
}

// MonthGrid is the full calendar payload for one month.
type MonthGrid struct {
	Year  int           `json:"year"`
	Month int           `json:"month"`
	Days  []CalendarDay `json:"days"`
}

// TimeSlot is one bookable interval on a specific date. The interval
// [StartTime, EndTime) is half-open. ID is deterministic so a client can
// echo it back and the server can re-derive the same slot.
type TimeSlot struct {
	ID           string    `json:"id"`
	SpecialistID uuid.UUID `json:"specialist_id"`
	Date         string    `json:"date"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	Available    bool      `json:"available"`
}

// SlotID builds the canonical slot identifier.
func SlotID(specialistID uuid.UUID, date, start string) string {
	return fmt.Sprintf("%s:%s:%s", specialistID, date, start)
}

// BookRequest is the payload for booking a session. Title defaults to
// "Appointment with {specialist name}", Type to therapy and ReminderTime to
// 60 minutes when omitted.
type BookRequest struct {
	SpecialistID uuid.UUID `json:"specialist_id"`
	Date         string    `json:"date"`
	StartTime    string    `json:"start_time"`
	Title        string    `json:"title"`
	Description  *string   `json:"description"`
	Type         string    `json:"type"`
	Location     *string   `json:"location"`
	ReminderTime *int      `json:"reminder_time"`
}
