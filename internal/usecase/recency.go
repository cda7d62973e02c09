package usecase

import (
	"time"

	"FeedNotifier/internal/domain"
)

// DefaultRecencyWindow bounds how old a delivered entry may be.
const DefaultRecencyWindow = 24 * time.Hour

// IsRecent reports whether the entry was published strictly after now-window.
// Undated entries are never recent.
func IsRecent(entry domain.Entry, now time.Time, window time.Duration) bool {
	if !entry.HasPublishedAt() {
		return false
	}
	return entry.PublishedAt.After(now.Add(-window))
}
