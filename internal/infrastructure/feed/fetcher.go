package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"FeedNotifier/internal/domain"
	"FeedNotifier/internal/ports"
)

const (
	defaultUserAgent = "FeedNotifier/1.0"
	// DefaultMaxBodyBytes caps how much of a feed document is read.
	DefaultMaxBodyBytes = 8 << 20
)

// Fetcher downloads RSS/Atom/JSON feeds and flattens their items into entries.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBody   int64
	logger    *slog.Logger
}

var _ ports.FeedFetcher = (*Fetcher)(nil)

// NewFetcher wires an HTTP client; a nil client gets a 20s timeout.
func NewFetcher(client *http.Client, userAgent string, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if strings.TrimSpace(userAgent) == "" {
		userAgent = defaultUserAgent
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Fetcher{client: client, userAgent: userAgent, maxBody: DefaultMaxBodyBytes, logger: logger}
}

// Fetch retrieves the feed at source. Transport problems and non-2xx statuses
// yield FetchUnreachable; undecodable documents yield FetchParseFailure.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]domain.Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchUnreachable, Source: source, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchUnreachable, Source: source, Err: fmt.Errorf("request feed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.FetchError{Kind: domain.FetchUnreachable, Source: source, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	// gofeed parsers keep per-document state, so each fetch gets its own.
	// Oversized documents are cut off and then fail to parse.
	parsed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		return nil, &domain.FetchError{Kind: domain.FetchParseFailure, Source: source, Err: err}
	}

	entries := make([]domain.Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, toEntry(item))
	}

	f.logger.Debug("feed fetched", "source", source, "title", parsed.Title, "entries", len(entries))
	return entries, nil
}

func toEntry(item *gofeed.Item) domain.Entry {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = domain.DefaultTitle
	}

	link := strings.TrimSpace(item.Link)
	raw := strings.TrimSpace(item.GUID)
	if raw == "" {
		raw = link
	}

	var publishedAt time.Time
	if item.PublishedParsed != nil {
		publishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		publishedAt = *item.UpdatedParsed
	}

	return domain.Entry{
		Title:         title,
		Link:          link,
		Description:   plainText(item.Description),
		RawIdentifier: raw,
		PublishedAt:   publishedAt,
	}
}

// plainText strips markup from a feed description and collapses whitespace.
func plainText(fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" || !strings.ContainsAny(fragment, "<&") {
		return fragment
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
