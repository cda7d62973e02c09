package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"FeedNotifier/internal/domain"
	"FeedNotifier/internal/ports"
)

const (
	embedColor          = 0x3498db
	maxTitleRunes       = 256
	maxDescriptionRunes = 4096
)

// Notifier posts articles to a Discord channel webhook as embeds.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers the webhook URL.
func NewNotifier(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Name identifies the sink inside the registry.
func (n *Notifier) Name() string {
	return "discord"
}

type embed struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Color       int    `json:"color"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

// Notify posts a single embed to the webhook.
func (n *Notifier) Notify(ctx context.Context, msg domain.Notification) error {
	if n.webhookURL == "" || n.client == nil {
		return fmt.Errorf("discord notifier misconfigured")
	}

	body, err := json.Marshal(webhookPayload{Embeds: []embed{{
		Title:       truncate(msg.Title, maxTitleRunes),
		Description: truncate(msg.Description, maxDescriptionRunes),
		URL:         msg.Link,
		Color:       embedColor,
	}}})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}
	return nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
