package wishlist

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry is a wishlisted product reference.
type Entry struct {
	ProductID string    `json:"productId"`
	AddedAt   time.Time `json:"addedAt"`
}

// Store abstracts wishlist persistence.
type Store interface {
	Add(ctx context.Context, userID, productID string) error
	Remove(ctx context.Context, userID, productID string) error
	List(ctx context.Context, userID string) ([]Entry, error)
	Check(ctx context.Context, userID, productID string) (bool, error)
}

// PGStore implements Store over Postgres.
type PGStore struct {
	Pool *pgxpool.Pool
}

func (s PGStore) Add(ctx context.Context, userID, productID string) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO wishlists (user_id, product_id)
		VALUES ($1::uuid, $2::uuid)
		ON CONFLICT (user_id, product_id) DO NOTHING`,
		userID, productID)
	return err
}

func (s PGStore) Remove(ctx context.Context, userID, productID string) error {
	_, err := s.Pool.Exec(ctx, `
		DELETE FROM wishlists WHERE user_id = $1::uuid AND product_id = $2::uuid`,
		userID, productID)
	return err
}

func (s PGStore) List(ctx context.Context, userID string) ([]Entry, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT product_id::text, added_at
		FROM wishlists WHERE user_id = $1::uuid
		ORDER BY added_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ProductID, &e.AddedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s PGStore) Check(ctx context.Context, userID, productID string) (bool, error) {
	var one int
	err := s.Pool.QueryRow(ctx, `
		SELECT 1 FROM wishlists WHERE user_id = $1::uuid AND product_id = $2::uuid`,
		userID, productID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Service toggles and lists per-user wishlists.
type Service struct {
	Store Store
}

// Toggle adds the product when absent and removes it when present. It reports
// whether the product is wishlisted after the call.
func (s *Service) Toggle(ctx context.Context, userID, productID string) (bool, error) {
	exists, err := s.Store.Check(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	if exists {
		if err := s.Store.Remove(ctx, userID, productID); err != nil {
			return true, err
		}
		return false, nil
	}
	if err := s.Store.Add(ctx, userID, productID); err != nil {
		return false, err
	}
	return true, nil
}

// List returns the user's wishlist, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Entry, error) {
	return s.Store.List(ctx, userID)
}

// Check reports whether the product is wishlisted.
func (s *Service) Check(ctx context.Context, userID, productID string) (bool, error) {
	return s.Store.Check(ctx, userID, productID)
}
