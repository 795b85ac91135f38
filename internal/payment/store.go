package payment

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mosehq/backend-mose/internal/pricing"
)

// ErrNotFound indicates the payment record does not exist.
var ErrNotFound = errors.New("payment not found")

// Record is a stored payment attempt.
type Record struct {
	ID        string
	OrderID   string
	Provider  string
	Reference string
	Amount    pricing.Money
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store abstracts payment persistence.
type Store interface {
	Create(ctx context.Context, rec Record) (Record, error)
	GetByReference(ctx context.Context, reference string) (Record, error)
	UpdateStatusByReference(ctx context.Context, reference, status string) (Record, error)
}

// PGStore implements Store over Postgres.
type PGStore struct {
	Pool *pgxpool.Pool
}

func (s PGStore) Create(ctx context.Context, rec Record) (Record, error) {
	err := s.Pool.QueryRow(ctx, `
		INSERT INTO payments (order_id, provider, reference, amount, status)
		VALUES ($1::uuid, $2, $3, $4, $5)
		RETURNING id::text, created_at, updated_at`,
		rec.OrderID, rec.Provider, rec.Reference, rec.Amount, rec.Status).
		Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s PGStore) GetByReference(ctx context.Context, reference string) (Record, error) {
	var rec Record
	err := s.Pool.QueryRow(ctx, `
		SELECT id::text, order_id::text, provider, reference, amount, status, created_at, updated_at
		FROM payments WHERE reference = $1`, reference).
		Scan(&rec.ID, &rec.OrderID, &rec.Provider, &rec.Reference, &rec.Amount, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

func (s PGStore) UpdateStatusByReference(ctx context.Context, reference, status string) (Record, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE payments SET status = $2, updated_at = now() WHERE reference = $1`,
		reference, status)
	if err != nil {
		return Record{}, err
	}
	if tag.RowsAffected() == 0 {
		return Record{}, ErrNotFound
	}
	return s.GetByReference(ctx, reference)
}
