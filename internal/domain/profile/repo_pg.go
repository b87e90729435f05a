package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgRepo struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) Repository {
	return &pgRepo{pool: pool}
}

func (r *pgRepo) Get(ctx context.Context, userID string) (*Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, display_name, phone, date_of_birth, language, timezone, created_at, updated_at
		FROM user_profiles WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.DisplayName, &p.Phone, &p.DateOfBirth, &p.Language, &p.Timezone, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (r *pgRepo) Upsert(ctx context.Context, p *Profile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_profiles (user_id, display_name, phone, date_of_birth, language, timezone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    phone = EXCLUDED.phone,
		    date_of_birth = EXCLUDED.date_of_birth,
		    language = EXCLUDED.language,
		    timezone = EXCLUDED.timezone,
		    updated_at = now()`,
		p.UserID, p.DisplayName, p.Phone, p.DateOfBirth, p.Language, p.Timezone, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (r *pgRepo) DeleteAll(ctx context.Context, userID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM user_profiles WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM notification_settings WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *pgRepo) GetSettings(ctx context.Context, userID string) (*Settings, error) {
	var s Settings
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, appointment_emails, mood_reminders, updated_at
		FROM notification_settings WHERE user_id = $1`, userID,
	).Scan(&s.UserID, &s.AppointmentEmails, &s.MoodReminders, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &s, nil
}

func (r *pgRepo) UpsertSettings(ctx context.Context, s *Settings) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_settings (user_id, appointment_emails, mood_reminders, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET appointment_emails = EXCLUDED.appointment_emails,
		    mood_reminders = EXCLUDED.mood_reminders,
		    updated_at = now()`,
		s.UserID, s.AppointmentEmails, s.MoodReminders, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
