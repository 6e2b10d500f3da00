// Package notify delivers lifecycle events to an optional webhook endpoint.
// Delivery is best effort: failures are logged and counted, never escalated.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/onnwee/livechat-bot/monitor"
	"github.com/onnwee/livechat-bot/telemetry"
)

// Webhook posts {event, livestream} JSON payloads to a fixed URL.
type Webhook struct {
	URL    string
	Client *http.Client
}

// NewWebhook returns a sink for url, or nil when url is empty so callers can
// wire it unconditionally.
func NewWebhook(url string) *Webhook {
	if url == "" {
		return nil
	}
	return &Webhook{URL: url, Client: &http.Client{Timeout: 5 * time.Second}}
}

type payload struct {
	Event      monitor.EventKind      `json:"event"`
	Livestream monitor.LivestreamInfo `json:"livestream"`
}

// Notify implements monitor.Notifier.
func (w *Webhook) Notify(ctx context.Context, ev monitor.Event) {
	body, err := json.Marshal(payload{Event: ev.Kind, Livestream: ev.Livestream})
	if err != nil {
		slog.Warn("webhook payload marshal failed", slog.Any("err", err), slog.String("component", "notify"))
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		slog.Warn("webhook request build failed", slog.Any("err", err), slog.String("component", "notify"))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.Client.Do(req)
	if err != nil {
		telemetry.WebhookErrors.Inc()
		slog.Warn("webhook delivery failed", slog.Any("err", err), slog.String("event", string(ev.Kind)), slog.String("component", "notify"))
		return
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode >= 300 {
		telemetry.WebhookErrors.Inc()
		slog.Warn("webhook delivery rejected", slog.Any("err", fmt.Errorf("status %d", resp.StatusCode)), slog.String("event", string(ev.Kind)), slog.String("component", "notify"))
	}
}
