package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/whowhywhen/whowhywhen/internal/model"
)

// WebhookSink delivers notifications as JSON POSTs to a configured URL.
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink returns a WebhookSink posting to url. The per-delivery
// timeout comes from the caller's context.
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{url: url, client: &http.Client{}}
}

// Send posts the notification. Any non-2xx response is a delivery error.
func (s *WebhookSink) Send(ctx context.Context, n *model.AlertNotification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// LogSink writes notifications to the application log. Used when no
// webhook is configured so breaches still surface somewhere visible.
type LogSink struct {
	Logger zerolog.Logger
}

// Send logs the notification.
func (s *LogSink) Send(_ context.Context, n *model.AlertNotification) error {
	s.Logger.Warn().
		Stringer("project_id", n.ProjectID).
		Int64("notification_id", n.ID).
		Msg(n.Description)
	return nil
}
