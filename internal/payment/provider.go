package payment

import (
	"context"
	"net/http"

	"github.com/mosehq/backend-mose/internal/pricing"
)

// IntentRequest captures the information needed to open a payment with a provider.
type IntentRequest struct {
	OrderID     string
	Reference   string
	Email       string
	Amount      pricing.Money
	CallbackURL string
}

// IntentResponse is the minimal information returned when creating an intent.
type IntentResponse struct {
	Provider    string
	Reference   string
	AccessCode  string
	RedirectURL string
}

// WebhookVerifyResult is the normalised data extracted from a webhook
// notification after signature verification.
type WebhookVerifyResult struct {
	Valid           bool
	Event           string
	Reference       string
	Amount          pricing.Money
	Status          string
	ProviderPayload []byte
	Err             error
}

// Provider abstracts the upstream payment provider.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (IntentResponse, error)
	VerifyWebhook(r *http.Request, body []byte) (WebhookVerifyResult, error)
}
