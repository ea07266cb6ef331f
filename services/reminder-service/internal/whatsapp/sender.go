package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// WebhookSender posts reminder texts to a WhatsApp gateway webhook. The
// gateway owns session state and delivery; this client only hands off
// messages.
type WebhookSender struct {
	url    string
	token  string
	client *http.Client
}

func NewWebhookSender(url, token string) *WebhookSender {
	return &WebhookSender{
		url:   url,
		token: token,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (s *WebhookSender) ProviderID() string { return "whatsapp-webhook" }

type sendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

func (s *WebhookSender) Send(ctx context.Context, contact, text string) error {
	body, err := json.Marshal(sendRequest{To: contact, Message: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("whatsapp gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// NoopSender logs instead of delivering. Used when no gateway is configured
// so local runs still exercise the full sweep path.
type NoopSender struct {
	logger *slog.Logger
}

func NewNoopSender(logger *slog.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

func (s *NoopSender) ProviderID() string { return "noop" }

func (s *NoopSender) Send(_ context.Context, contact, text string) error {
	s.logger.Info("reminder send (noop)", "contact", contact, "chars", len(text))
	return nil
}
