package profile

import "time"

// Profile is per-user account data keyed by the identity provider subject.
// A row appears lazily the first time the user touches their profile.
type Profile struct {
	UserID      string    `json:"user_id" db:"user_id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	Phone       *string   `json:"phone,omitempty" db:"phone"`
	DateOfBirth *string   `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Language    string    `json:"language" db:"language"`
	Timezone    string    `json:"timezone" db:"timezone"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Settings are the user's notification toggles.
type Settings struct {
	UserID            string    `json:"user_id" db:"user_id"`
	AppointmentEmails bool      `json:"appointment_emails" db:"appointment_emails"`
	MoodReminders     bool      `json:"mood_reminders" db:"mood_reminders"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Phone       *string `json:"phone"`
	DateOfBirth *string `json:"date_of_birth"`
	Language    *string `json:"language"`
	Timezone    *string `json:"timezone"`
}

type UpdateSettingsRequest struct {
	AppointmentEmails *bool `json:"appointment_emails"`
	MoodReminders     *bool `json:"mood_reminders"`
}
