package wishlist

import (
	"context"
	"testing"
	"time"
)

type memStore struct {
	entries map[string]map[string]time.Time
}

func newMemStore() *memStore {
	return &memStore{entries: map[string]map[string]time.Time{}}
}

func (m *memStore) Add(_ context.Context, userID, productID string) error {
	if m.entries[userID] == nil {
		m.entries[userID] = map[string]time.Time{}
	}
	if _, ok := m.entries[userID][productID]; !ok {
		m.entries[userID][productID] = time.Now()
	}
	return nil
}

func (m *memStore) Remove(_ context.Context, userID, productID string) error {
	delete(m.entries[userID], productID)
	return nil
}

func (m *memStore) List(_ context.Context, userID string) ([]Entry, error) {
	out := []Entry{}
	for id, at := range m.entries[userID] {
		out = append(out, Entry{ProductID: id, AddedAt: at})
	}
	return out, nil
}

func (m *memStore) Check(_ context.Context, userID, productID string) (bool, error) {
	_, ok := m.entries[userID][productID]
	return ok, nil
}

func TestToggleFlipsMembership(t *testing.T) {
	svc := &Service{Store: newMemStore()}
	ctx := context.Background()

	on, err := svc.Toggle(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !on {
		t.Fatal("first toggle should add")
	}

	off, err := svc.Toggle(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if off {
		t.Fatal("second toggle should remove")
	}

	wishlisted, err := svc.Check(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if wishlisted {
		t.Fatal("product should no longer be wishlisted")
	}
}

func TestWishlistsAreIsolatedPerUser(t *testing.T) {
	svc := &Service{Store: newMemStore()}
	ctx := context.Background()

	if _, err := svc.Toggle(ctx, "u1", "p1"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	entries, err := svc.List(ctx, "u2")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("u2 wishlist should be empty, got %d entries", len(entries))
	}
}
