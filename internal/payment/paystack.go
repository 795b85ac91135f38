package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mosehq/backend-mose/internal/resilience"
)

const defaultPaystackBaseURL = "https://api.paystack.co"

// Paystack implements Provider against the Paystack transaction API.
type Paystack struct {
	SecretKey string
	BaseURL   string
	HTTP      resilience.HTTPClient
}

type paystackInitRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	Reference   string `json:"reference,omitempty"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type paystackInitResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// CreateIntent initializes a Paystack transaction and returns the checkout URL.
func (p Paystack) CreateIntent(ctx context.Context, req IntentRequest) (IntentResponse, error) {
	if strings.TrimSpace(p.SecretKey) == "" {
		return IntentResponse{}, errors.New("payment: paystack secret key not configured")
	}
	if strings.TrimSpace(req.Email) == "" {
		return IntentResponse{}, errors.New("payment: customer email is required")
	}
	if req.Amount <= 0 {
		return IntentResponse{}, errors.New("payment: amount must be positive")
	}

	body, err := json.Marshal(paystackInitRequest{
		Email:       req.Email,
		Amount:      int64(req.Amount),
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
	})
	if err != nil {
		return IntentResponse{}, fmt.Errorf("payment: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL()+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return IntentResponse{}, fmt.Errorf("payment: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.SecretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.HTTP.Do(ctx, httpReq)
	if err != nil {
		return IntentResponse{}, fmt.Errorf("payment: initialize transaction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return IntentResponse{}, fmt.Errorf("payment: paystack returned %d: %s", resp.StatusCode, detail)
	}

	var decoded paystackInitResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return IntentResponse{}, fmt.Errorf("payment: decode response: %w", err)
	}
	if !decoded.Status {
		return IntentResponse{}, fmt.Errorf("payment: paystack rejected intent: %s", decoded.Message)
	}

	return IntentResponse{
		Provider:    "paystack",
		Reference:   decoded.Data.Reference,
		AccessCode:  decoded.Data.AccessCode,
		RedirectURL: decoded.Data.AuthorizationURL,
	}, nil
}

// VerifyWebhook checks the HMAC-SHA512 signature Paystack places in the
// x-paystack-signature header and normalises the event payload.
func (p Paystack) VerifyWebhook(r *http.Request, body []byte) (WebhookVerifyResult, error) {
	expected := p.computeSignature(body)
	provided := strings.TrimSpace(r.Header.Get("x-paystack-signature"))
	if expected == "" || provided == "" || !hmac.Equal([]byte(expected), []byte(provided)) {
		return WebhookVerifyResult{Valid: false, Err: errors.New("invalid signature")}, nil
	}

	var payload struct {
		Event string `json:"event"`
		Data  struct {
			Reference string      `json:"reference"`
			Amount    json.Number `json:"amount"`
			Status    string      `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookVerifyResult{Valid: false, Err: err}, nil
	}

	amount, _ := payload.Data.Amount.Int64()

	return WebhookVerifyResult{
		Valid:           true,
		Event:           payload.Event,
		Reference:       payload.Data.Reference,
		Amount:          amount,
		Status:          normalizeStatus(payload.Event, payload.Data.Status),
		ProviderPayload: body,
	}, nil
}

func (p Paystack) baseURL() string {
	base := strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	if base == "" {
		return defaultPaystackBaseURL
	}
	return base
}

func (p Paystack) computeSignature(body []byte) string {
	key := strings.TrimSpace(p.SecretKey)
	if key == "" {
		return ""
	}
	mac := hmac.New(sha512.New, []byte(key))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func normalizeStatus(event, status string) string {
	switch strings.ToLower(strings.TrimSpace(event)) {
	case "charge.success":
		return "PAID"
	case "charge.failed":
		return "FAILED"
	}
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success":
		return "PAID"
	case "failed", "abandoned":
		return "FAILED"
	default:
		return "PENDING"
	}
}
