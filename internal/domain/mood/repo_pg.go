package mood

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

func NewPgRepository(pool *pgxpool.Pool) Repository {
	return &pgRepo{pool: pool}
}

func (r *pgRepo) Create(ctx context.Context, e *Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO mood_entries (id, user_id, mood, intensity, note, factors, date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.UserID, e.Mood, e.Intensity, e.Note, e.Factors, e.Date, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert mood entry: %w", err)
	}
	return nil
}

func (r *pgRepo) GetByID(ctx context.Context, userID string, id uuid.UUID) (*Entry, error) {
	var e Entry
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, mood, intensity, note, factors, date, created_at
		FROM mood_entries
		WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&e.ID, &e.UserID, &e.Mood, &e.Intensity, &e.Note, &e.Factors, &e.Date, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get mood entry: %w", err)
	}
	return &e, nil
}

func (r *pgRepo) Update(ctx context.Context, e *Entry) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE mood_entries
		SET mood = $3, intensity = $4, note = $5, factors = $6
		WHERE id = $1 AND user_id = $2`,
		e.ID, e.UserID, e.Mood, e.Intensity, e.Note, e.Factors,
	)
	if err != nil {
		return fmt.Errorf("update mood entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepo) ListByUser(ctx context.Context, userID, fromDate, toDate string, limit, offset int) ([]*Entry, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM mood_entries
		WHERE user_id = $1 AND date >= $2 AND date <= $3`,
		userID, fromDate, toDate,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count mood entries: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, mood, intensity, note, factors, date, created_at
		FROM mood_entries
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date DESC, created_at DESC
		LIMIT $4 OFFSET $5`,
		userID, fromDate, toDate, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list mood entries: %w", err)
	}
	defer rows.Close()

	var out []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Mood, &e.Intensity, &e.Note, &e.Factors, &e.Date, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, &e)
	}
	return out, total, rows.Err()
}

func (r *pgRepo) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM mood_entries WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete mood entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepo) CountByMood(ctx context.Context, userID, fromDate, toDate string) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT mood, COUNT(*) FROM mood_entries
		WHERE user_id = $1 AND date >= $2 AND date <= $3
		GROUP BY mood`,
		userID, fromDate, toDate,
	)
	if err != nil {
		return nil, fmt.Errorf("count by mood: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var mood string
		var n int
		if err := rows.Scan(&mood, &n); err != nil {
			return nil, err
		}
		counts[mood] = n
	}
	return counts, rows.Err()
}
