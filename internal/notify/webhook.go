package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"media-catalog/internal/logging"
)

const webhookUserAgent = "media-catalog/0.1"

// WebhookTransport posts change deltas as JSON to a configured endpoint.
// Delivery is best-effort: failures are logged and forgotten.
type WebhookTransport struct {
	endpoint string
	client   *http.Client
}

// NewWebhookTransport builds a Transport for the endpoint. An empty
// endpoint returns nil, which the Notifier treats as "no transport".
func NewWebhookTransport(endpoint string, timeout time.Duration) *WebhookTransport {
	if endpoint == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookTransport{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// SendChangeMessage implements Transport.
func (w *WebhookTransport) SendChangeMessage(delta ChangeDelta) {
	if w == nil || w.client == nil {
		return
	}

	body, err := json.Marshal(delta)
	if err != nil {
		logging.Error("Failed to encode change message %s: %v", delta.ID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		logging.Error("Failed to build change message request: %v", err)
		return
	}
	req.Header.Set("User-Agent", webhookUserAgent)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		logging.Warn("Failed to deliver change message %s: %v", delta.ID, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		logging.Warn("Change message %s rejected with status %d", delta.ID, resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
}
