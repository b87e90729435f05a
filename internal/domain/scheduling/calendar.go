package scheduling

import (
	"time"

	"github.com/esaha/esaha/internal/domain/appointment"
)

// BuildMonthGrid lays out a whole-week grid for the given month: it walks
// back from the 1st to the preceding Sunday and forward from the last day to
// the following Saturday, so every row is a full Sunday-to-Saturday week.
// The length is always a multiple of 7 and varies with the month, from 28
// cells for a February starting on Sunday up to 42 for a long month spilling
// into six weeks.
//
// time.Date normalizes out-of-range months, so callers can pass month-1 or
// month+13 and get the right grid; December of year N-1 and January of year
// N+1 fall out for free.
func BuildMonthGrid(year, month int, appts []*appointment.Appointment, today time.Time) MonthGrid {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	year, month = first.Year(), int(first.Month())
	last := first.AddDate(0, 1, -1)

	todayStr := today.Format("2006-01-02")

	perDay := make(map[string]int, len(appts))
	for _, a := range appts {
		perDay[a.Date]++
	}

	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))

	days := make([]CalendarDay, 0, 42)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")
		days = append(days, CalendarDay{
			Date:           dateStr,
			Day:            d.Day(),
			InMonth:        d.Month() == first.Month(),
			IsToday:        dateStr == todayStr,
			IsPast:         dateStr < todayStr,
			HasAppointment: perDay[dateStr] > 0,
			Appointments:   perDay[dateStr],
		})
	}

	return MonthGrid{Year: year, Month: month, Days: days}
}
