package logsink

import (
	"context"
	"log/slog"

	"FeedNotifier/internal/domain"
	"FeedNotifier/internal/ports"
)

// Notifier writes notifications to the log instead of delivering them.
type Notifier struct {
	logger *slog.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier logs through logger, falling back to slog.Default.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{logger: logger}
}

// Name identifies the sink inside the registry.
func (n *Notifier) Name() string {
	return "log"
}

// Notify writes the article at info level and never fails.
func (n *Notifier) Notify(_ context.Context, msg domain.Notification) error {
	n.logger.Info("article", "title", msg.Title, "link", msg.Link, "description", msg.Description)
	return nil
}
