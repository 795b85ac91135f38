package cart

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mosehq/backend-mose/internal/obs"
	"github.com/mosehq/backend-mose/internal/pricing"
)

// Service owns the per-session ledgers. A session's ledger is hydrated from
// the store on first access and snapshotted back after every mutation.
// Two sessions never share a ledger; cross-session writes to the same store
// key are last-write-wins by design.
type Service struct {
	Store  Store
	Logger zerolog.Logger

	mu      sync.Mutex
	ledgers map[string]*Ledger
}

// NewService constructs a cart service backed by the provided store.
func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{
		Store:   store,
		Logger:  logger,
		ledgers: map[string]*Ledger{},
	}
}

// Ledger returns the session's ledger, hydrating it from the store on first
// access. A load failure is logged and yields an empty ledger rather than an
// error: cart availability wins over persistence strictness.
func (s *Service) Ledger(ctx context.Context, sessionID string) *Ledger {
	s.mu.Lock()
	if ledger, ok := s.ledgers[sessionID]; ok {
		s.mu.Unlock()
		return ledger
	}
	s.mu.Unlock()

	var items []LineItem
	if s.Store != nil {
		loaded, ok, err := s.Store.Load(ctx, sessionID)
		if err != nil {
			s.Logger.Warn().Err(err).Str("session_id", sessionID).Msg("cart_hydrate_failed")
		} else if ok {
			items = loaded
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ledger, ok := s.ledgers[sessionID]; ok {
		return ledger
	}
	ledger := NewLedger(items)
	s.ledgers[sessionID] = ledger
	return ledger
}

// AddItem merges the line into the session's cart and snapshots it.
func (s *Service) AddItem(ctx context.Context, sessionID string, item LineItem) {
	ledger := s.Ledger(ctx, sessionID)
	ledger.AddItem(item)
	s.recordOp("add")
	s.persist(ctx, sessionID, ledger)
}

// RemoveItem removes the first line matching productID and snapshots.
func (s *Service) RemoveItem(ctx context.Context, sessionID, productID string) {
	ledger := s.Ledger(ctx, sessionID)
	ledger.RemoveItem(productID)
	s.recordOp("remove")
	s.persist(ctx, sessionID, ledger)
}

// UpdateQuantity updates the first line matching productID and snapshots.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) {
	ledger := s.Ledger(ctx, sessionID)
	ledger.UpdateQuantity(productID, quantity)
	s.recordOp("update_quantity")
	s.persist(ctx, sessionID, ledger)
}

// Clear empties the session's cart and snapshots.
func (s *Service) Clear(ctx context.Context, sessionID string) {
	ledger := s.Ledger(ctx, sessionID)
	ledger.Clear()
	s.recordOp("clear")
	s.persist(ctx, sessionID, ledger)
}

// TotalPrice returns the session cart's derived total price.
func (s *Service) TotalPrice(ctx context.Context, sessionID string) pricing.Money {
	return s.Ledger(ctx, sessionID).TotalPrice()
}

// TotalItems returns the session cart's derived item count.
func (s *Service) TotalItems(ctx context.Context, sessionID string) int {
	return s.Ledger(ctx, sessionID).TotalItems()
}

func (s *Service) persist(ctx context.Context, sessionID string, ledger *Ledger) {
	if s.Store == nil {
		return
	}
	if err := s.Store.Save(ctx, sessionID, ledger.Items()); err != nil {
		if obs.CartSaveFailures != nil {
			obs.CartSaveFailures.Inc()
		}
		s.Logger.Warn().Err(err).Str("session_id", sessionID).Msg("cart_save_failed")
	}
}

func (s *Service) recordOp(op string) {
	if obs.CartOpsTotal != nil {
		obs.CartOpsTotal.WithLabelValues(op).Inc()
	}
}
