package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgRepo struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a Postgres-backed appointment repository.
func NewPgRepository(pool *pgxpool.Pool) Repository {
	return &pgRepo{pool: pool}
}

const apptCols = `id, user_id, specialist_id, specialist_name, title, description, date, start_time, end_time, type, location, reminder_time, status, idempotency_key, version, created_at, updated_at`

func scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.UserID, &a.SpecialistID, &a.SpecialistName, &a.Title,
		&a.Description, &a.Date, &a.StartTime, &a.EndTime, &a.Type,
		&a.Location, &a.ReminderTime, &a.Status, &a.IdempotencyKey,
		&a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateBooked inserts a new scheduled appointment inside a transaction that
// holds a per-specialist-per-date advisory lock. Two concurrent bookings for
// the same specialist and date serialize on the lock, so the overlap check
// below cannot race.
func (r *pgRepo) CreateBooked(ctx context.Context, a *Appointment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin booking: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`,
		a.SpecialistID.String()+":"+a.Date,
	); err != nil {
		return fmt.Errorf("acquire booking lock: %w", err)
	}

	var taken bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE specialist_id = $1 AND date = $2 AND status = $3
			  AND start_time < $5 AND $4 < end_time
		)`,
		a.SpecialistID, a.Date, StatusScheduled, a.StartTime, a.EndTime,
	).Scan(&taken); err != nil {
		return fmt.Errorf("check overlap: %w", err)
	}
	if taken {
		return ErrConflict
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO appointments (id, user_id, specialist_id, specialist_name, title, description, date, start_time, end_time, type, location, reminder_time, status, idempotency_key, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		a.ID, a.UserID, a.SpecialistID, a.SpecialistName, a.Title,
		a.Description, a.Date, a.StartTime, a.EndTime, a.Type,
		a.Location, a.ReminderTime, a.Status, a.IdempotencyKey, a.Version,
		a.CreatedAt, a.UpdatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert appointment: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *pgRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1`, id)
	a, err := scanAppt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (r *pgRepo) FindByIdempotencyKey(ctx context.Context, userID, key string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE user_id = $1 AND idempotency_key = $2`,
		userID, key)
	a, err := scanAppt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find by idempotency key: %w", err)
	}
	return a, nil
}

func (r *pgRepo) ListByUser(ctx context.Context, userID string, status string, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `user_id = $1`, userID, status, limit, offset)
}

func (r *pgRepo) ListBySpecialist(ctx context.Context, specialistID uuid.UUID, status string, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `specialist_id = $1`, specialistID, status, limit, offset)
}

func (r *pgRepo) list(ctx context.Context, ownerClause string, owner any, status string, limit, offset int) ([]*Appointment, int, error) {
	where := `WHERE ` + ownerClause
	args := []any{owner}
	if status != "" {
		where += ` AND status = $2`
		args = append(args, status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointments `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf(
		`SELECT %s FROM appointments %s ORDER BY date DESC, start_time DESC LIMIT $%d OFFSET $%d`,
		apptCols, where, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var out []*Appointment
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *pgRepo) ListScheduledInRange(ctx context.Context, specialistID uuid.UUID, fromDate, toDate string) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apptCols+` FROM appointments
		WHERE specialist_id = $1 AND status = $2 AND date >= $3 AND date <= $4
		ORDER BY date, start_time`,
		specialistID, StatusScheduled, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("list scheduled in range: %w", err)
	}
	return collect(rows)
}

func (r *pgRepo) ListScheduledForUserMonth(ctx context.Context, userID string, fromDate, toDate string) ([]*Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+apptCols+` FROM appointments
		WHERE user_id = $1 AND status = $2 AND date >= $3 AND date <= $4
		ORDER BY date, start_time`,
		userID, StatusScheduled, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("list user month: %w", err)
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]*Appointment, error) {
	defer rows.Close()
	var out []*Appointment
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Update reschedules inside the same advisory lock discipline as
// CreateBooked, so a reschedule cannot race a new booking into the same
// range. The version check rejects lost updates.
func (r *pgRepo) Update(ctx context.Context, a *Appointment, expectedVersion int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`,
		a.SpecialistID.String()+":"+a.Date,
	); err != nil {
		return fmt.Errorf("acquire booking lock: %w", err)
	}

	var taken bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE specialist_id = $1 AND date = $2 AND status = $3 AND id <> $4
			  AND start_time < $6 AND $5 < end_time
		)`,
		a.SpecialistID, a.Date, StatusScheduled, a.ID, a.StartTime, a.EndTime,
	).Scan(&taken); err != nil {
		return fmt.Errorf("check overlap: %w", err)
	}
	if taken {
		return ErrConflict
	}

	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET title = $2, description = $3, date = $4, start_time = $5,
		    end_time = $6, type = $7, location = $8, reminder_time = $9,
		    version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $10`,
		a.ID, a.Title, a.Description, a.Date, a.StartTime, a.EndTime,
		a.Type, a.Location, a.ReminderTime, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, a.ID,
		).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrVersionMismatch
		}
		return ErrNotFound
	}
	a.Version = expectedVersion + 1

	return tx.Commit(ctx)
}

func (r *pgRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET status = $2, version = version + 1, updated_at = now()
		WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
