package contact

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements Store over Postgres.
type PGStore struct {
	Pool *pgxpool.Pool
}

func (s PGStore) SaveMessage(ctx context.Context, m Message) (Message, error) {
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO contact_messages (name, email, subject, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id::text, created_at`,
		m.Name, m.Email, m.Subject, m.Message).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return Message{}, err
	}
	return m, nil
}

func (s PGStore) SaveTestimonial(ctx context.Context, t Testimonial) (Testimonial, error) {
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO testimonials (name, role, message, rating, approved)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5)
		RETURNING id::text, created_at`,
		t.Name, t.Role, t.Message, t.Rating, t.Approved).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return Testimonial{}, err
	}
	return t, nil
}

func (s PGStore) ListTestimonials(ctx context.Context, approvedOnly bool, limit int) ([]Testimonial, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id::text, name, coalesce(role, ''), message, rating, approved, created_at
		FROM testimonials
		WHERE NOT $1 OR approved
		ORDER BY created_at DESC
		LIMIT $2`, approvedOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Testimonial{}
	for rows.Next() {
		var t Testimonial
		if err := rows.Scan(&t.ID, &t.Name, &t.Role, &t.Message, &t.Rating, &t.Approved, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
