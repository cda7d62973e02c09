package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"FeedNotifier/internal/domain"
	"FeedNotifier/internal/ports"
)

const (
	defaultEndpoint = "https://api.telegram.org"
	// Telegram rejects messages longer than 4096 characters.
	maxMessageRunes = 4096
)

// Notifier sends articles to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	endpoint string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Name identifies the sink inside the registry.
func (n *Notifier) Name() string {
	return "telegram"
}

// Notify posts a plain-text message to Telegram.
func (n *Notifier) Notify(ctx context.Context, msg domain.Notification) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimSuffix(n.endpoint, "/"), n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", formatMessage(msg))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram error %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return nil
}

func formatMessage(msg domain.Notification) string {
	body := msg.Title
	if msg.Description != "" {
		body += "\n\n" + msg.Description
	}

	var tail string
	if msg.Link != "" {
		tail = "\n\n" + msg.Link
	}

	// The link always survives truncation.
	limit := max(maxMessageRunes-len([]rune(tail)), 1)
	if runes := []rune(body); len(runes) > limit {
		body = string(runes[:limit-1]) + "…"
	}
	return body + tail
}
