// Package notify posts audit notices about destructive table operations to
// a chat webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Webhook kinds. They differ only in the JSON field carrying the text.
const (
	KindDiscord = "discord"
	KindSlack   = "slack"
)

// Notifier delivers a one-line notice somewhere humans will see it.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Nop discards every notice.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(ctx context.Context, message string) error { return nil }

// Webhook posts notices to an incoming-webhook URL.
type Webhook struct {
	url        string
	kind       string
	httpClient *http.Client
}

// NewWebhook creates a webhook notifier. An unknown kind is treated as
// Discord.
func NewWebhook(url, kind string) *Webhook {
	return &Webhook{
		url:        url,
		kind:       kind,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// New returns a Webhook for url, or Nop when url is empty.
func New(url, kind string) Notifier {
	if url == "" {
		return Nop{}
	}
	return NewWebhook(url, kind)
}

// Notify posts message to the webhook.
func (w *Webhook) Notify(ctx context.Context, message string) error {
	field := "content"
	if w.kind == KindSlack {
		field = "text"
	}
	data, err := json.Marshal(map[string]string{field: message})
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting to %s webhook: %w", w.kindName(), err)
	}
	defer resp.Body.Close()

	// Discord answers 204, Slack answers 200.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%s webhook error: %s", w.kindName(), resp.Status)
	}
	return nil
}

func (w *Webhook) kindName() string {
	if w.kind == KindSlack {
		return KindSlack
	}
	return KindDiscord
}
