package cart

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestRedisStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()
	store := RedisStore{Client: client, Prefix: "mose-cart:"}

	ctx := context.Background()
	_, ok, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if ok {
		t.Fatal("expected no snapshot for fresh session")
	}

	items := []LineItem{
		line("p1", map[string]string{"size": "L"}, 2, 20),
		line("p2", nil, 1, 10),
	}
	if err := store.Save(ctx, "s1", items); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, ok, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatal("expected snapshot to exist")
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 items, got %d", len(loaded))
	}
	if loaded[0].Customizations["size"] != "L" {
		t.Fatalf("customizations lost on round trip: %#v", loaded[0])
	}
	if loaded[1].ProductID != "p2" {
		t.Fatalf("order lost on round trip: %#v", loaded)
	}

	if !mr.Exists("mose-cart:s1") {
		t.Fatal("expected snapshot under the mose-cart key prefix")
	}
}

func TestServiceHydratesFromStore(t *testing.T) {
	store := &MemoryStore{}
	ctx := context.Background()
	if err := store.Save(ctx, "s1", []LineItem{line("p1", nil, 2, 20)}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	svc := NewService(store, zerolog.Nop())
	ledger := svc.Ledger(ctx, "s1")
	if ledger.TotalItems() != 2 {
		t.Fatalf("expected hydrated quantity 2, got %d", ledger.TotalItems())
	}

	// Fresh session starts empty and independent.
	other := svc.Ledger(ctx, "s2")
	if other.TotalItems() != 0 {
		t.Fatal("expected independent empty ledger for new session")
	}
}

func TestServicePersistsAfterEveryMutation(t *testing.T) {
	store := &MemoryStore{}
	svc := NewService(store, zerolog.Nop())
	ctx := context.Background()

	svc.AddItem(ctx, "s1", line("p1", nil, 1, 10))
	snap, ok, _ := store.Load(ctx, "s1")
	if !ok || len(snap) != 1 {
		t.Fatalf("expected snapshot after add, got %#v", snap)
	}

	svc.UpdateQuantity(ctx, "s1", "p1", 3)
	snap, _, _ = store.Load(ctx, "s1")
	if snap[0].Quantity != 3 {
		t.Fatalf("expected snapshot quantity 3, got %d", snap[0].Quantity)
	}

	svc.Clear(ctx, "s1")
	snap, ok, _ = store.Load(ctx, "s1")
	if !ok || len(snap) != 0 {
		t.Fatalf("expected empty snapshot after clear, got %#v", snap)
	}
}

func TestSaveFailureDoesNotCorruptLedger(t *testing.T) {
	store := &MemoryStore{SaveErr: errors.New("redis down")}
	svc := NewService(store, zerolog.Nop())
	ctx := context.Background()

	svc.AddItem(ctx, "s1", line("p1", nil, 2, 20))
	ledger := svc.Ledger(ctx, "s1")
	if ledger.TotalItems() != 2 {
		t.Fatalf("in-memory state must survive a failed save, got %d items", ledger.TotalItems())
	}
	if ledger.TotalPrice() != 20 {
		t.Fatalf("expected total 20, got %d", ledger.TotalPrice())
	}
}
