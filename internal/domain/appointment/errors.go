package appointment

import "errors"

// Sentinel errors for the booking and appointment lifecycle. Handlers map
// them onto HTTP statuses; services compare with errors.Is.
var (
	// ErrNotFound: no appointment with that id, or the caller cannot see it.
	ErrNotFound = errors.New("appointment: not found")

	// ErrConflict: the requested time range overlaps an existing scheduled
	// appointment for the same specialist. Booking and rescheduling both
	// surface it.
	ErrConflict = errors.New("appointment: slot already booked")

	// ErrVersionMismatch: the row changed since the caller last read it.
	ErrVersionMismatch = errors.New("appointment: version mismatch")

	// ErrForbidden: the caller is authenticated but does not own the
	// appointment and holds no role that overrides ownership.
	ErrForbidden = errors.New("appointment: forbidden")

	// ErrInvalidTransition: the status change is not allowed from the
	// current status.
	ErrInvalidTransition = errors.New("appointment: invalid status transition")
)
