package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mosehq/backend-mose/internal/obs"
	"github.com/mosehq/backend-mose/internal/resilience"
)

const defaultResendBaseURL = "https://api.resend.com"

// ResendSender delivers email through the Resend HTTP API. It implements
// common.EmailSender.
type ResendSender struct {
	APIKey  string
	From    string
	BaseURL string
	HTTP    resilience.HTTPClient
	Logger  zerolog.Logger
	Timeout time.Duration
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send posts the message to the Resend emails endpoint.
func (s *ResendSender) Send(to, subject, html string) error {
	if strings.TrimSpace(s.APIKey) == "" {
		return errors.New("notify: resend api key not configured")
	}
	if strings.TrimSpace(to) == "" {
		return errors.New("notify: recipient is required")
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	body, err := json.Marshal(resendRequest{
		From:    s.From,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("notify: encode payload: %w", err)
	}

	base := strings.TrimRight(s.BaseURL, "/")
	if base == "" {
		base = defaultResendBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(ctx, req)
	if err != nil {
		s.record("error")
		s.Logger.Warn().Err(err).Str("to", to).Msg("email_send_failed")
		return fmt.Errorf("notify: send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		s.record("error")
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.Logger.Warn().Int("status", resp.StatusCode).Str("to", to).Str("body", string(detail)).Msg("email_send_rejected")
		return fmt.Errorf("notify: resend returned %d", resp.StatusCode)
	}

	s.record("ok")
	return nil
}

func (s *ResendSender) record(result string) {
	if obs.EmailSendTotal != nil {
		obs.EmailSendTotal.WithLabelValues(result).Inc()
	}
}
