package emergency

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

const contactCols = `id, user_id, name, relationship, phone, email, notify, created_at, updated_at`

func scanContact(row pgx.Row) (*Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Relationship, &c.Phone, &c.Email, &c.Notify, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *pgRepo) Create(ctx context.Context, c *Contact) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO emergency_contacts (id, user_id, name, relationship, phone, email, notify, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.UserID, c.Name, c.Relationship, c.Phone, c.Email, c.Notify, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

func (r *pgRepo) ListByUser(ctx context.Context, userID string) ([]*Contact, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+contactCols+` FROM emergency_contacts WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var out []*Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *pgRepo) GetByID(ctx context.Context, userID string, id uuid.UUID) (*Contact, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+contactCols+` FROM emergency_contacts WHERE id = $1 AND user_id = $2`, id, userID)
	c, err := scanContact(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

func (r *pgRepo) Update(ctx context.Context, c *Contact) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE emergency_contacts
		SET name = $3, relationship = $4, phone = $5, email = $6, notify = $7, updated_at = now()
		WHERE id = $1 AND user_id = $2`,
		c.ID, c.UserID, c.Name, c.Relationship, c.Phone, c.Email, c.Notify,
	)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepo) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM emergency_contacts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepo) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM emergency_contacts WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}
