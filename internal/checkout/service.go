package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mosehq/backend-mose/internal/cart"
	"github.com/mosehq/backend-mose/internal/events"
	"github.com/mosehq/backend-mose/internal/obs"
	"github.com/mosehq/backend-mose/internal/order"
	"github.com/mosehq/backend-mose/internal/payment"
	"github.com/mosehq/backend-mose/internal/pricing"
)

// ErrEmptyCart is returned when a checkout starts with no items.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// CartSource exposes the session ledger a checkout reads from.
type CartSource interface {
	Ledger(ctx context.Context, sessionID string) *cart.Ledger
}

// Locker serializes checkouts per session.
type Locker interface {
	WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error
}

// Service turns a cart ledger into a pending order with a payment intent.
type Service struct {
	Cart        CartSource
	Orders      order.Store
	Payments    payment.Store
	Provider    payment.Provider
	Lock        Locker
	Bus         *events.Bus
	Logger      zerolog.Logger
	TaxBps      int
	CallbackURL string
}

// StartRequest identifies the session and buyer for a checkout.
type StartRequest struct {
	SessionID string
	UserID    string
	Email     string
}

// Result is a started checkout awaiting payment.
type Result struct {
	Order       order.Order `json:"order"`
	Reference   string      `json:"reference"`
	AccessCode  string      `json:"accessCode,omitempty"`
	RedirectURL string      `json:"redirectUrl"`
}

// Start snapshots the cart into an order and opens a payment intent. The cart
// is left intact; it is cleared only when the payment webhook confirms.
func (s *Service) Start(ctx context.Context, req StartRequest) (Result, error) {
	if strings.TrimSpace(req.Email) == "" {
		return Result{}, errors.New("checkout: email is required")
	}
	var result Result
	run := func(ctx context.Context) error {
		var err error
		result, err = s.start(ctx, req)
		return err
	}
	if s.Lock != nil {
		if err := s.Lock.WithLock(ctx, req.SessionID, run); err != nil {
			if !errors.Is(err, ErrCheckoutInProgress) {
				s.recordResult("error")
			}
			return Result{}, err
		}
		return result, nil
	}
	if err := run(ctx); err != nil {
		return Result{}, err
	}
	return result, nil
}

func (s *Service) start(ctx context.Context, req StartRequest) (Result, error) {
	lines := s.Cart.Ledger(ctx, req.SessionID).Items()
	if len(lines) == 0 {
		s.recordResult("empty_cart")
		return Result{}, ErrEmptyCart
	}

	items := make([]order.Item, 0, len(lines))
	priced := make([]pricing.Item, 0, len(lines))
	for _, line := range lines {
		unit := pricing.Unit(line.Product.Price, line.Product.SalePrice)
		items = append(items, order.Item{
			ProductID:      line.ProductID,
			Name:           line.Product.Name,
			Customizations: line.Customizations,
			Quantity:       line.Quantity,
			UnitPrice:      unit,
			TotalPrice:     line.TotalPrice,
		})
		priced = append(priced, pricing.Item{Qty: line.Quantity, UnitPrice: unit})
	}
	summary := pricing.Compute(priced, s.TaxBps)

	reference := "mose-" + uuid.NewString()
	created, err := s.Orders.Create(ctx, order.Order{
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Email:     req.Email,
		Status:    order.StatusPending,
		Subtotal:  summary.Subtotal,
		Tax:       summary.Tax,
		Total:     summary.Total,
		Reference: reference,
		Items:     items,
	})
	if err != nil {
		s.recordResult("error")
		return Result{}, fmt.Errorf("checkout: create order: %w", err)
	}

	if _, err := s.Payments.Create(ctx, payment.Record{
		OrderID:   created.ID,
		Provider:  "paystack",
		Reference: reference,
		Amount:    summary.Total,
		Status:    "PENDING",
	}); err != nil {
		s.recordResult("error")
		return Result{}, fmt.Errorf("checkout: create payment record: %w", err)
	}

	intent, err := s.Provider.CreateIntent(ctx, payment.IntentRequest{
		OrderID:     created.ID,
		Reference:   reference,
		Email:       req.Email,
		Amount:      summary.Total,
		CallbackURL: s.CallbackURL,
	})
	if err != nil {
		s.recordResult("provider_error")
		return Result{}, fmt.Errorf("checkout: create payment intent: %w", err)
	}

	if s.Bus != nil {
		_, err := s.Bus.Emit(ctx, events.TopicOrderCreated, created.ID, map[string]any{
			"orderId":   created.ID,
			"reference": reference,
			"total":     int64(summary.Total),
			"email":     req.Email,
		})
		if err != nil {
			s.Logger.Warn().Err(err).Str("order_id", created.ID).Msg("order_created_event_failed")
		}
	}

	s.recordResult("started")
	return Result{
		Order:       created,
		Reference:   reference,
		AccessCode:  intent.AccessCode,
		RedirectURL: intent.RedirectURL,
	}, nil
}

func (s *Service) recordResult(result string) {
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues(result).Inc()
	}
}
