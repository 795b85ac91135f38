package seller

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested seller does not exist.
var ErrNotFound = errors.New("seller not found")

// Profile is a seller's public storefront profile.
type Profile struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	Followers int       `json:"followers"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store abstracts seller persistence.
type Store interface {
	GetBySlug(ctx context.Context, slug string) (Profile, error)
	Follow(ctx context.Context, userID, sellerID string) error
	Unfollow(ctx context.Context, userID, sellerID string) error
	IsFollowing(ctx context.Context, userID, sellerID string) (bool, error)
	FollowerCount(ctx context.Context, sellerID string) (int, error)
}

// PGStore implements Store over Postgres.
type PGStore struct {
	Pool *pgxpool.Pool
}

func (s PGStore) GetBySlug(ctx context.Context, slug string) (Profile, error) {
	var (
		p      Profile
		bio    *string
		avatar *string
	)
	err := s.Pool.QueryRow(ctx, `
		SELECT s.id::text, s.slug, s.name, s.bio, s.avatar, s.created_at,
		       (SELECT count(*) FROM seller_follows f WHERE f.seller_id = s.id)
		FROM sellers s WHERE s.slug = $1`, slug).
		Scan(&p.ID, &p.Slug, &p.Name, &bio, &avatar, &p.CreatedAt, &p.Followers)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}
	if bio != nil {
		p.Bio = *bio
	}
	if avatar != nil {
		p.Avatar = *avatar
	}
	return p, nil
}

func (s PGStore) Follow(ctx context.Context, userID, sellerID string) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO seller_follows (user_id, seller_id)
		VALUES ($1::uuid, $2::uuid)
		ON CONFLICT (user_id, seller_id) DO NOTHING`,
		userID, sellerID)
	return err
}

func (s PGStore) Unfollow(ctx context.Context, userID, sellerID string) error {
	_, err := s.Pool.Exec(ctx, `
		DELETE FROM seller_follows WHERE user_id = $1::uuid AND seller_id = $2::uuid`,
		userID, sellerID)
	return err
}

func (s PGStore) IsFollowing(ctx context.Context, userID, sellerID string) (bool, error) {
	var one int
	err := s.Pool.QueryRow(ctx, `
		SELECT 1 FROM seller_follows WHERE user_id = $1::uuid AND seller_id = $2::uuid`,
		userID, sellerID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s PGStore) FollowerCount(ctx context.Context, sellerID string) (int, error) {
	var count int
	err := s.Pool.QueryRow(ctx, `
		SELECT count(*) FROM seller_follows WHERE seller_id = $1::uuid`, sellerID).Scan(&count)
	return count, err
}

// Service exposes seller profile and follow operations.
type Service struct {
	Store Store
}

// Profile loads a seller by slug with its follower count.
func (s *Service) Profile(ctx context.Context, slug string) (Profile, error) {
	return s.Store.GetBySlug(ctx, slug)
}

// ToggleFollow follows the seller when not following and unfollows otherwise.
// It returns the resulting state and follower count.
func (s *Service) ToggleFollow(ctx context.Context, userID, sellerID string) (bool, int, error) {
	following, err := s.Store.IsFollowing(ctx, userID, sellerID)
	if err != nil {
		return false, 0, err
	}
	if following {
		err = s.Store.Unfollow(ctx, userID, sellerID)
		following = false
	} else {
		err = s.Store.Follow(ctx, userID, sellerID)
		following = true
	}
	if err != nil {
		return following, 0, err
	}
	count, err := s.Store.FollowerCount(ctx, sellerID)
	return following, count, err
}

// IsFollowing reports whether the user follows the seller.
func (s *Service) IsFollowing(ctx context.Context, userID, sellerID string) (bool, error) {
	return s.Store.IsFollowing(ctx, userID, sellerID)
}
