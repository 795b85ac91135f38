package cart

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists cart snapshots per session. Saves are best-effort: a failed
// save never fails the mutation that triggered it, the in-memory ledger stays
// the source of truth for the running session.
type Store interface {
	Save(ctx context.Context, sessionID string, items []LineItem) error
	Load(ctx context.Context, sessionID string) ([]LineItem, bool, error)
}

// RedisStore keeps one JSON blob per session under Prefix+sessionID.
type RedisStore struct {
	Client *redis.Client
	Prefix string
	TTL    time.Duration
}

func (s RedisStore) key(sessionID string) string {
	prefix := s.Prefix
	if prefix == "" {
		prefix = "mose-cart:"
	}
	return prefix + sessionID
}

// Save serializes the item list and overwrites the session's snapshot.
func (s RedisStore) Save(ctx context.Context, sessionID string, items []LineItem) error {
	if s.Client == nil || sessionID == "" {
		return nil
	}
	if items == nil {
		items = []LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, s.key(sessionID), data, s.TTL).Err()
}

// Load reads the session's snapshot. The second return reports whether a
// snapshot existed.
func (s RedisStore) Load(ctx context.Context, sessionID string) ([]LineItem, bool, error) {
	if s.Client == nil || sessionID == "" {
		return nil, false, nil
	}
	data, err := s.Client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false, err
	}
	return items, true, nil
}

// MemoryStore is an in-process Store used in tests.
type MemoryStore struct {
	mu        sync.Mutex
	snapshots map[string][]LineItem
	SaveErr   error
}

// Save stores a copy of the item list.
func (s *MemoryStore) Save(_ context.Context, sessionID string, items []LineItem) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshots == nil {
		s.snapshots = map[string][]LineItem{}
	}
	copied := make([]LineItem, len(items))
	copy(copied, items)
	s.snapshots[sessionID] = copied
	return nil
}

// Load returns the stored copy, if any.
func (s *MemoryStore) Load(_ context.Context, sessionID string) ([]LineItem, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, ok := s.snapshots[sessionID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]LineItem, len(items))
	copy(copied, items)
	return copied, true, nil
}
