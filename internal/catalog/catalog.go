package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mosehq/backend-mose/internal/pricing"
)

// ErrNotFound indicates the requested product could not be located.
var ErrNotFound = errors.New("product not found")

// Product is a storefront product. Options maps a customization name (e.g.
// "color") to the values a buyer may choose from.
type Product struct {
	ID          string              `json:"id"`
	Slug        string              `json:"slug"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Image       string              `json:"image,omitempty"`
	Price       pricing.Money       `json:"price"`
	SalePrice   *pricing.Money      `json:"salePrice,omitempty"`
	SellerID    string              `json:"sellerId,omitempty"`
	Options     map[string][]string `json:"options,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// ListQuery narrows and pages a product listing.
type ListQuery struct {
	Search   string
	SellerID string
	Page     int
	PerPage  int
}

// Store abstracts product persistence.
type Store interface {
	ListProducts(ctx context.Context, q ListQuery) ([]Product, int, error)
	GetProductBySlug(ctx context.Context, slug string) (Product, error)
	GetProductByID(ctx context.Context, id string) (Product, error)
}

// PGStore implements Store over Postgres.
type PGStore struct {
	Pool *pgxpool.Pool
}

const productColumns = `id::text, slug, title, description, image, price, sale_price, seller_id::text, options, created_at`

// ListProducts returns a page of products plus the total row count.
func (s PGStore) ListProducts(ctx context.Context, q ListQuery) ([]Product, int, error) {
	if s.Pool == nil {
		return nil, 0, errors.New("catalog store not configured")
	}
	where := []string{"TRUE"}
	args := []any{}
	if term := strings.TrimSpace(q.Search); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		where = append(where, fmt.Sprintf("lower(title) LIKE $%d", len(args)))
	}
	if q.SellerID != "" {
		args = append(args, q.SellerID)
		where = append(where, fmt.Sprintf("seller_id = $%d::uuid", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.Pool.QueryRow(ctx, "SELECT count(*) FROM products WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if q.Page > 1 {
		offset = (q.Page - 1) * limit
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(
		"SELECT %s FROM products WHERE %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d",
		productColumns, cond, len(args)-1, len(args),
	)
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

// GetProductBySlug loads one product by its URL slug.
func (s PGStore) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	return s.getOne(ctx, "slug = $1", slug)
}

// GetProductByID loads one product by identifier.
func (s PGStore) GetProductByID(ctx context.Context, id string) (Product, error) {
	return s.getOne(ctx, "id = $1::uuid", id)
}

func (s PGStore) getOne(ctx context.Context, cond string, arg any) (Product, error) {
	if s.Pool == nil {
		return Product{}, errors.New("catalog store not configured")
	}
	row := s.Pool.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE "+cond, arg)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p           Product
		description *string
		image       *string
		salePrice   *int64
		sellerID    *string
		options     []byte
	)
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &description, &image, &p.Price, &salePrice, &sellerID, &options, &p.CreatedAt); err != nil {
		return Product{}, err
	}
	if description != nil {
		p.Description = *description
	}
	if image != nil {
		p.Image = *image
	}
	if salePrice != nil {
		v := pricing.Money(*salePrice)
		p.SalePrice = &v
	}
	if sellerID != nil {
		p.SellerID = *sellerID
	}
	if len(options) > 0 {
		if err := json.Unmarshal(options, &p.Options); err != nil {
			return Product{}, fmt.Errorf("decode product options: %w", err)
		}
	}
	return p, nil
}
