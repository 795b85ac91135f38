package payment

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/mosehq/backend-mose/internal/common"
	"github.com/mosehq/backend-mose/internal/events"
	"github.com/mosehq/backend-mose/internal/obs"
	"github.com/mosehq/backend-mose/internal/order"
)

const maxWebhookBody = 1 << 20

// CartClearer empties a session's cart after a successful payment.
type CartClearer interface {
	Clear(ctx context.Context, sessionID string)
}

// WebhookHandler receives provider callbacks and settles orders.
type WebhookHandler struct {
	Provider Provider
	Payments Store
	Orders   order.Store
	Cart     CartClearer
	Bus      *events.Bus
	Logger   zerolog.Logger
}

// Handle processes POST /api/payments/webhook.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.record("error")
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "could not read body", nil)
		return
	}

	result, err := h.Provider.VerifyWebhook(r, body)
	if err != nil {
		h.record("error")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "verification failed", nil)
		return
	}
	if !result.Valid {
		h.record("invalid_signature")
		h.Logger.Warn().Err(result.Err).Msg("payment_webhook_rejected")
		common.JSONError(w, http.StatusBadRequest, "INVALID_SIGNATURE", "signature verification failed", nil)
		return
	}

	ctx := r.Context()
	rec, err := h.Payments.GetByReference(ctx, result.Reference)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.record("unknown_reference")
			h.Logger.Warn().Str("reference", result.Reference).Msg("payment_webhook_unknown_reference")
			// Acknowledge so the provider stops retrying.
			common.JSONData(w, http.StatusOK, map[string]any{"received": true})
			return
		}
		h.record("error")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "lookup failed", nil)
		return
	}

	if rec.Status == result.Status {
		h.record("duplicate")
		common.JSONData(w, http.StatusOK, map[string]any{"received": true})
		return
	}

	if result.Amount > 0 && result.Amount != rec.Amount {
		h.record("amount_mismatch")
		h.Logger.Warn().
			Str("reference", rec.Reference).
			Int64("expected", int64(rec.Amount)).
			Int64("reported", int64(result.Amount)).
			Msg("payment_webhook_amount_mismatch")
		common.JSONError(w, http.StatusBadRequest, "AMOUNT_MISMATCH", "provider amount mismatch", nil)
		return
	}

	// A 5xx here makes the provider retry, so a transient store failure
	// cannot silently drop the confirmation.
	switch result.Status {
	case "PAID":
		if err := h.settle(ctx, rec, result); err != nil {
			common.JSONError(w, http.StatusInternalServerError, "PAYMENT_UPDATE_ERROR", "could not record payment outcome", nil)
			return
		}
	case "FAILED":
		if err := h.fail(ctx, rec, result); err != nil {
			common.JSONError(w, http.StatusInternalServerError, "PAYMENT_UPDATE_ERROR", "could not record payment outcome", nil)
			return
		}
	default:
		h.record("ignored")
		common.JSONData(w, http.StatusOK, map[string]any{"received": true})
		return
	}

	common.JSONData(w, http.StatusOK, map[string]any{"received": true})
}

func (h *WebhookHandler) settle(ctx context.Context, rec Record, result WebhookVerifyResult) error {
	if _, err := h.Payments.UpdateStatusByReference(ctx, rec.Reference, "PAID"); err != nil {
		h.record("error")
		h.Logger.Error().Err(err).Str("reference", rec.Reference).Msg("payment_update_failed")
		return err
	}
	o, err := h.Orders.UpdateStatus(ctx, rec.OrderID, order.StatusPaid)
	if err != nil {
		h.record("error")
		h.Logger.Error().Err(err).Str("order_id", rec.OrderID).Msg("order_settle_failed")
		return err
	}
	if h.Cart != nil && o.SessionID != "" {
		h.Cart.Clear(ctx, o.SessionID)
	}
	if h.Bus != nil {
		_, err := h.Bus.Emit(ctx, events.TopicOrderPaid, o.ID, map[string]any{
			"orderId":   o.ID,
			"reference": rec.Reference,
			"amount":    int64(result.Amount),
			"email":     o.Email,
		})
		if err != nil {
			h.Logger.Warn().Err(err).Str("order_id", o.ID).Msg("order_paid_event_failed")
		}
	}
	h.record("paid")
	return nil
}

func (h *WebhookHandler) fail(ctx context.Context, rec Record, result WebhookVerifyResult) error {
	if _, err := h.Payments.UpdateStatusByReference(ctx, rec.Reference, "FAILED"); err != nil {
		h.record("error")
		h.Logger.Error().Err(err).Str("reference", rec.Reference).Msg("payment_update_failed")
		return err
	}
	o, err := h.Orders.UpdateStatus(ctx, rec.OrderID, order.StatusFailed)
	if err != nil {
		h.record("error")
		h.Logger.Error().Err(err).Str("order_id", rec.OrderID).Msg("order_fail_update_failed")
		return err
	}
	if h.Bus != nil {
		_, err := h.Bus.Emit(ctx, events.TopicPaymentFailed, o.ID, map[string]any{
			"orderId":   o.ID,
			"reference": rec.Reference,
			"email":     o.Email,
		})
		if err != nil {
			h.Logger.Warn().Err(err).Str("order_id", o.ID).Msg("payment_failed_event_failed")
		}
	}
	h.record("failed")
	return nil
}

func (h *WebhookHandler) record(result string) {
	if obs.PaymentWebhookTotal != nil {
		obs.PaymentWebhookTotal.WithLabelValues("paystack", result).Inc()
	}
}
