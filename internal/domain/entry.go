package domain

import "time"

// DefaultTitle is used when a feed item carries no title.
const DefaultTitle = "No title"

// Entry is a feed item flattened once at parse time.
type Entry struct {
	Title       string
	Link        string
	Description string
	// RawIdentifier is the feed-native guid, or the link when the guid is empty.
	RawIdentifier string
	// PublishedAt is zero when the item had neither a published nor an updated timestamp.
	PublishedAt time.Time
}

// HasPublishedAt reports whether a timestamp was resolved for the entry.
func (e Entry) HasPublishedAt() bool {
	return !e.PublishedAt.IsZero()
}

// Identity is the deduplication key of an entry: source address and native identifier.
type Identity string

// Notification carries the plain fields handed to a sink.
type Notification struct {
	Title       string
	Link        string
	Description string
}

// NotificationFor builds the sink payload for an entry.
func NotificationFor(e Entry) Notification {
	title := e.Title
	if title == "" {
		title = DefaultTitle
	}
	return Notification{
		Title:       title,
		Link:        e.Link,
		Description: e.Description,
	}
}
