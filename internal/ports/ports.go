package ports

import (
	"context"
	"time"

	"FeedNotifier/internal/domain"
)

// FeedFetcher retrieves and parses one feed source.
type FeedFetcher interface {
	Fetch(ctx context.Context, source string) ([]domain.Entry, error)
}

// ProcessedStore is the durable set of delivered identities.
type ProcessedStore interface {
	HasSeen(ctx context.Context, id domain.Identity) (bool, error)
	// MarkSeen must be durable before it returns; marking twice is a no-op.
	MarkSeen(ctx context.Context, id domain.Identity) error
}

// Pruner is implemented by stores that can drop identities older than a cutoff.
type Pruner interface {
	Prune(ctx context.Context, olderThan time.Time) (int64, error)
}

// Notifier delivers a single article to a chat or webhook.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, n domain.Notification) error
}

// Scheduler controls when cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
	Next() time.Time
}
