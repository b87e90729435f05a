package specialist

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgRepo struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a Postgres-backed specialist repository.
func NewPgRepository(pool *pgxpool.Pool) Repository {
	return &pgRepo{pool: pool}
}

const specialistCols = `id, user_id, name, title, specialties, bio, email, image_url, rating, price, active, created_at, updated_at`

func scanSpecialist(row pgx.Row) (*Specialist, error) {
	var s Specialist
	err := row.Scan(
		&s.ID, &s.UserID, &s.Name, &s.Title, &s.Specialties, &s.Bio,
		&s.Email, &s.ImageURL, &s.Rating, &s.Price, &s.Active, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *pgRepo) Create(ctx context.Context, s *Specialist) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO specialists (id, user_id, name, title, specialties, bio, email, image_url, rating, price, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		s.ID, s.UserID, s.Name, s.Title, s.Specialties, s.Bio, s.Email, s.ImageURL, s.Rating, s.Price, s.Active, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert specialist: %w", err)
	}
	return nil
}

func (r *pgRepo) GetByID(ctx context.Context, id uuid.UUID) (*Specialist, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+specialistCols+` FROM specialists WHERE id = $1`, id)
	s, err := scanSpecialist(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get specialist: %w", err)
	}
	return s, nil
}

func (r *pgRepo) GetByUserID(ctx context.Context, userID string) (*Specialist, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+specialistCols+` FROM specialists WHERE user_id = $1`, userID)
	s, err := scanSpecialist(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get specialist by user: %w", err)
	}
	return s, nil
}

func (r *pgRepo) List(ctx context.Context, onlyActive bool, specialty string, limit, offset int) ([]*Specialist, int, error) {
	where := `WHERE 1=1`
	args := []any{}
	n := 0
	if onlyActive {
		where += ` AND active`
	}
	if specialty != "" {
		n++
		where += fmt.Sprintf(` AND $%d = ANY(specialties)`, n)
		args = append(args, specialty)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM specialists `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count specialists: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT %s FROM specialists %s ORDER BY name LIMIT $%d OFFSET $%d`,
		specialistCols, where, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list specialists: %w", err)
	}
	defer rows.Close()

	var out []*Specialist
	for rows.Next() {
		s, err := scanSpecialist(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, s)
	}
	return out, total, rows.Err()
}

func (r *pgRepo) Update(ctx context.Context, s *Specialist) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE specialists
		SET user_id = $2, name = $3, title = $4, specialties = $5, bio = $6,
		    email = $7, image_url = $8, rating = $9, price = $10, active = $11, updated_at = now()
		WHERE id = $1`,
		s.ID, s.UserID, s.Name, s.Title, s.Specialties, s.Bio, s.Email, s.ImageURL, s.Rating, s.Price, s.Active,
	)
	if err != nil {
		return fmt.Errorf("update specialist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepo) ListRules(ctx context.Context, specialistID uuid.UUID) ([]*AvailabilityRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, specialist_id, weekday, start_time, end_time, active, created_at
		FROM specialist_availability
		WHERE specialist_id = $1
		ORDER BY weekday, start_time`, specialistID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []*AvailabilityRule
	for rows.Next() {
		var a AvailabilityRule
		if err := rows.Scan(&a.ID, &a.SpecialistID, &a.Weekday, &a.StartTime, &a.EndTime, &a.Active, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (r *pgRepo) ReplaceRules(ctx context.Context, specialistID uuid.UUID, rules []*AvailabilityRule) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM specialist_availability WHERE specialist_id = $1`, specialistID); err != nil {
		return fmt.Errorf("clear rules: %w", err)
	}
	for _, rule := range rules {
		if _, err := tx.Exec(ctx, `
			INSERT INTO specialist_availability (id, specialist_id, weekday, start_time, end_time, active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rule.ID, specialistID, rule.Weekday, rule.StartTime, rule.EndTime, rule.Active, rule.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert rule: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (r *pgRepo) ListTimeOff(ctx context.Context, specialistID uuid.UUID, fromDate string) ([]*TimeOff, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, specialist_id, date, reason, created_at
		FROM specialist_time_off
		WHERE specialist_id = $1 AND date >= $2
		ORDER BY date`, specialistID, fromDate)
	if err != nil {
		return nil, fmt.Errorf("list time off: %w", err)
	}
	defer rows.Close()

	var out []*TimeOff
	for rows.Next() {
		var t TimeOff
		if err := rows.Scan(&t.ID, &t.SpecialistID, &t.Date, &t.Reason, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (r *pgRepo) AddTimeOff(ctx context.Context, t *TimeOff) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO specialist_time_off (id, specialist_id, date, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (specialist_id, date) DO NOTHING`,
		t.ID, t.SpecialistID, t.Date, t.Reason, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("add time off: %w", err)
	}
	return nil
}

func (r *pgRepo) DeleteTimeOff(ctx context.Context, specialistID, timeOffID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM specialist_time_off WHERE id = $1 AND specialist_id = $2`,
		timeOffID, specialistID)
	if err != nil {
		return fmt.Errorf("delete time off: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
