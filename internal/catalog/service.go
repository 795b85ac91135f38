package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Service exposes read operations for the storefront catalog.
type Service struct {
	store        Store
	cache        *Cache
	logger       zerolog.Logger
	defaultLimit int
	maxLimit     int
}

// NewService wires a catalog service.
func NewService(store Store, cache *Cache, logger zerolog.Logger, defaultLimit, maxLimit int) *Service {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &Service{store: store, cache: cache, logger: logger, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

// ListResult pairs a page of products with paging metadata.
type ListResult struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PerPage  int       `json:"perPage"`
}

// List returns a page of products, consulting the cache first.
func (s *Service) List(ctx context.Context, q ListQuery) (ListResult, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = s.defaultLimit
	}
	if q.PerPage > s.maxLimit {
		q.PerPage = s.maxLimit
	}

	key := listCacheKey(q)
	var cached ListResult
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("catalog_cache_read_failed")
	} else if hit {
		return cached, nil
	}

	products, total, err := s.store.ListProducts(ctx, q)
	if err != nil {
		return ListResult{}, err
	}
	result := ListResult{Products: products, Total: total, Page: q.Page, PerPage: q.PerPage}
	if err := s.cache.SetJSON(ctx, key, result); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("catalog_cache_write_failed")
	}
	return result, nil
}

// Detail loads one product by slug, consulting the cache first.
func (s *Service) Detail(ctx context.Context, slug string) (Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Product{}, ErrNotFound
	}
	key := "catalog:product:" + slug
	var cached Product
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("catalog_cache_read_failed")
	} else if hit {
		return cached, nil
	}
	product, err := s.store.GetProductBySlug(ctx, slug)
	if err != nil {
		return Product{}, err
	}
	if err := s.cache.SetJSON(ctx, key, product); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("catalog_cache_write_failed")
	}
	return product, nil
}

// ByID loads one product by identifier, bypassing the cache.
func (s *Service) ByID(ctx context.Context, id string) (Product, error) {
	return s.store.GetProductByID(ctx, id)
}

func listCacheKey(q ListQuery) string {
	return fmt.Sprintf("catalog:list:%s:%s:%d:%d", strings.ToLower(q.Search), q.SellerID, q.Page, q.PerPage)
}
