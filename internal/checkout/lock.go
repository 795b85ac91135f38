package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrCheckoutInProgress is returned when a session already has a checkout running.
var ErrCheckoutInProgress = errors.New("checkout: already in progress")

// SessionLock guards against double-submit checkouts for one cart session.
// Unlike a blocking lock, a held lock rejects immediately.
type SessionLock struct {
	R   *redis.Client
	TTL time.Duration
}

// WithLock runs fn while holding the session's checkout lock. A second caller
// for the same session gets ErrCheckoutInProgress instead of waiting.
func (l SessionLock) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	if l.R == nil {
		return errors.New("checkout: redis client not configured")
	}
	if fn == nil {
		return errors.New("checkout: callback not provided")
	}
	ttl := l.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	key := "mose-checkout-lock:" + sessionID
	token := uuid.NewString()

	ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrCheckoutInProgress
	}
	defer l.release(context.Background(), key, token)
	return fn(ctx)
}

func (l SessionLock) release(ctx context.Context, key, token string) {
	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`
	if err := l.R.Eval(ctx, script, []string{key}, token).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unknown command") {
			_ = l.R.Del(ctx, key).Err()
		}
	}
}
