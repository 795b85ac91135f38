package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mosehq/backend-mose/internal/pricing"
)

// ErrNotFound indicates the requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Status is an order lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Item is a purchased line frozen at checkout time.
type Item struct {
	ProductID      string            `json:"productId"`
	Name           string            `json:"name"`
	Customizations map[string]string `json:"customizations,omitempty"`
	Quantity       int               `json:"quantity"`
	UnitPrice      pricing.Money     `json:"unitPrice"`
	TotalPrice     pricing.Money     `json:"totalPrice"`
}

// Order is a placed order.
type Order struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId,omitempty"`
	SessionID string        `json:"sessionId,omitempty"`
	Email     string        `json:"email"`
	Status    Status        `json:"status"`
	Subtotal  pricing.Money `json:"subtotal"`
	Tax       pricing.Money `json:"tax"`
	Total     pricing.Money `json:"total"`
	Reference string        `json:"reference,omitempty"`
	Items     []Item        `json:"items,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// Store abstracts order persistence.
type Store interface {
	Create(ctx context.Context, o Order) (Order, error)
	Get(ctx context.Context, id string) (Order, error)
	GetByReference(ctx context.Context, reference string) (Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status) (Order, error)
}

// PGStore implements Store over Postgres. Order items are stored in a child
// table keyed by order id.
type PGStore struct {
	Pool *pgxpool.Pool
}

func (s PGStore) Create(ctx context.Context, o Order) (Order, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, session_id, email, status, subtotal, tax, total, reference)
		VALUES (NULLIF($1, '')::uuid, NULLIF($2, ''), $3, $4, $5, $6, $7, NULLIF($8, ''))
		RETURNING id::text, created_at, updated_at`,
		o.UserID, o.SessionID, o.Email, string(o.Status), o.Subtotal, o.Tax, o.Total, o.Reference).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		customizations, err := json.Marshal(item.Customizations)
		if err != nil {
			return Order{}, fmt.Errorf("encode customizations: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, name, customizations, quantity, unit_price, total_price)
			VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7)`,
			o.ID, item.ProductID, item.Name, customizations, item.Quantity, item.UnitPrice, item.TotalPrice)
		if err != nil {
			return Order{}, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (s PGStore) Get(ctx context.Context, id string) (Order, error) {
	return s.getOne(ctx, "o.id = $1::uuid", id)
}

func (s PGStore) GetByReference(ctx context.Context, reference string) (Order, error) {
	return s.getOne(ctx, "o.reference = $1", reference)
}

func (s PGStore) getOne(ctx context.Context, cond string, arg any) (Order, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT o.id::text, coalesce(o.user_id::text, ''), coalesce(o.session_id, ''), o.email,
		       o.status, o.subtotal, o.tax, o.total, coalesce(o.reference, ''),
		       o.created_at, o.updated_at
		FROM orders o WHERE `+cond, arg)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	items, err := s.items(ctx, o.ID)
	if err != nil {
		return Order{}, err
	}
	o.Items = items
	return o, nil
}

func (s PGStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT o.id::text, coalesce(o.user_id::text, ''), coalesce(o.session_id, ''), o.email,
		       o.status, o.subtotal, o.tax, o.total, coalesce(o.reference, ''),
		       o.created_at, o.updated_at
		FROM orders o
		WHERE o.user_id = $1::uuid
		ORDER BY o.created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (s PGStore) UpdateStatus(ctx context.Context, id string, status Status) (Order, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = now() WHERE id = $1::uuid`,
		id, string(status))
	if err != nil {
		return Order{}, err
	}
	if tag.RowsAffected() == 0 {
		return Order{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s PGStore) items(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT product_id::text, name, customizations, quantity, unit_price, total_price
		FROM order_items WHERE order_id = $1::uuid ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var (
			item Item
			raw  []byte
		)
		if err := rows.Scan(&item.ProductID, &item.Name, &raw, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &item.Customizations); err != nil {
				return nil, fmt.Errorf("decode customizations: %w", err)
			}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var (
		o      Order
		status string
	)
	err := row.Scan(&o.ID, &o.UserID, &o.SessionID, &o.Email, &status,
		&o.Subtotal, &o.Tax, &o.Total, &o.Reference, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	o.Status = Status(status)
	return o, nil
}
