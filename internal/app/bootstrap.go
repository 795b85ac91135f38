package app

import (
	migrate "github.com/golang-migrate/migrate/v4"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// RunMigrations applies pending migrations. An already up-to-date database
// is not an error.
func RunMigrations(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// NewAuthRateLimiter builds the fixed-window limiter guarding credential
// endpoints, counting in the shared Redis instance.
func NewAuthRateLimiter(rdb *redis.Client, rate limiter.Rate) (*limiter.Limiter, error) {
	store, err := limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix: "mose-auth-rl",
	})
	if err != nil {
		return nil, err
	}
	return limiter.New(store, rate), nil
}
