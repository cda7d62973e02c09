package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"FeedNotifier/internal/domain"
	"FeedNotifier/internal/ports"
)

// DefaultLimitPerSource caps new entries collected from one source per cycle.
const DefaultLimitPerSource = 5

// CycleDeps wires the driven adapters into the ingestion cycle.
type CycleDeps struct {
	Sources        []string
	Fetcher        ports.FeedFetcher
	Store          ports.ProcessedStore
	Notifier       ports.Notifier
	Filter         *ContentFilter
	LimitPerSource int
	RecencyWindow  time.Duration
	// Retention enables pruning of identities older than this when the store supports it.
	Retention time.Duration
	Now       func() time.Time
	Logger    *slog.Logger
}

// Cycle runs one poll pass over all configured sources.
type Cycle struct {
	sources   []string
	fetcher   ports.FeedFetcher
	store     ports.ProcessedStore
	notifier  ports.Notifier
	filter    *ContentFilter
	limit     int
	window    time.Duration
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// Report summarises one cycle.
type Report struct {
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
	Trigger    string         `json:"trigger,omitempty"`
	Sources    []SourceReport `json:"sources"`
	Delivered  int            `json:"delivered"`
	Filtered   int            `json:"filtered"`
	Failed     int            `json:"failed"`
	Pruned     int64          `json:"pruned,omitempty"`
}

// SourceReport summarises one source within a cycle.
type SourceReport struct {
	Source       string `json:"source"`
	Fetched      int    `json:"fetched"`
	Delivered    int    `json:"delivered"`
	Filtered     int    `json:"filtered"`
	NotifyFailed int    `json:"notifyFailed"`
	Error        string `json:"error,omitempty"`
}

// NewCycle constructs the ingestion cycle, applying defaults for zero values.
func NewCycle(deps CycleDeps) *Cycle {
	limit := deps.LimitPerSource
	if limit <= 0 {
		limit = DefaultLimitPerSource
	}
	window := deps.RecencyWindow
	if window <= 0 {
		window = DefaultRecencyWindow
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Cycle{
		sources:   append([]string(nil), deps.Sources...),
		fetcher:   deps.Fetcher,
		store:     deps.Store,
		notifier:  deps.Notifier,
		filter:    deps.Filter,
		limit:     limit,
		window:    window,
		retention: deps.Retention,
		now:       now,
		logger:    logger,
	}
}

var errNotConfigured = errors.New("cycle is not fully configured")

type fetchResult struct {
	entries []domain.Entry
	err     error
}

// RunCycle fetches every source concurrently, then processes them sequentially
// in configuration order. Fetch and notify failures are contained to their
// source or entry; store failures abort the cycle.
func (c *Cycle) RunCycle(ctx context.Context) (Report, error) {
	report := Report{StartedAt: c.now()}
	if c.fetcher == nil || c.store == nil || c.notifier == nil {
		return report, errNotConfigured
	}

	results := c.fetchAll(ctx)
	now := c.now()

	for i, source := range c.sources {
		if err := ctx.Err(); err != nil {
			report.FinishedAt = c.now()
			return report, err
		}

		res := results[i]
		if res.err != nil {
			c.logger.Warn("feed fetch failed", "source", source, "error", res.err)
			report.Sources = append(report.Sources, SourceReport{Source: source, Error: res.err.Error()})
			continue
		}

		sr, err := c.processSource(ctx, source, res.entries, now)
		report.Sources = append(report.Sources, sr)
		report.Delivered += sr.Delivered
		report.Filtered += sr.Filtered
		report.Failed += sr.NotifyFailed
		if err != nil {
			report.FinishedAt = c.now()
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				c.logger.Error("cycle aborted", "source", source, "error", err)
			}
			return report, fmt.Errorf("source %s: %w", source, err)
		}
	}

	if err := c.prune(ctx, now, &report); err != nil {
		report.FinishedAt = c.now()
		return report, err
	}

	report.FinishedAt = c.now()
	if report.Delivered == 0 {
		c.logger.Info("no new articles", "window", c.window.String(), "sources", len(c.sources))
	} else {
		c.logger.Info("cycle done",
			"delivered", report.Delivered,
			"filtered", report.Filtered,
			"failed", report.Failed,
			"took", report.FinishedAt.Sub(report.StartedAt).String())
	}
	return report, nil
}

func (c *Cycle) fetchAll(ctx context.Context) []fetchResult {
	results := make([]fetchResult, len(c.sources))

	var wg sync.WaitGroup
	for i, source := range c.sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entries, err := c.fetcher.Fetch(ctx, source)
			results[i] = fetchResult{entries: entries, err: err}
		}()
	}
	wg.Wait()

	return results
}

func (c *Cycle) processSource(ctx context.Context, source string, entries []domain.Entry, now time.Time) (SourceReport, error) {
	sr := SourceReport{Source: source, Fetched: len(entries)}
	collected := 0

	for _, entry := range entries {
		if collected >= c.limit {
			break
		}
		// Cancellation is honoured between entries only.
		if err := ctx.Err(); err != nil {
			return sr, err
		}

		if !IsRecent(entry, now, c.window) {
			continue
		}

		id, ok := DeriveIdentity(source, entry)
		if !ok {
			c.logger.Debug("skip entry without identifier", "source", source, "title", entry.Title)
			continue
		}

		// The check/notify/mark sequence runs detached so a cancel cannot split it.
		entryCtx := context.WithoutCancel(ctx)

		seen, err := c.store.HasSeen(entryCtx, id)
		if err != nil {
			return sr, &domain.StoreError{Op: "has seen", Err: err}
		}
		if seen {
			continue
		}
		collected++

		if term, blocked := c.filter.Match(entry); blocked {
			c.logger.Info("skip filtered article", "source", source, "title", entry.Title, "term", term)
			if err := c.store.MarkSeen(entryCtx, id); err != nil {
				return sr, &domain.StoreError{Op: "mark seen", Err: err}
			}
			sr.Filtered++
			continue
		}

		if err := c.notifier.Notify(entryCtx, domain.NotificationFor(entry)); err != nil {
			notifyErr := &domain.NotifyError{Sink: c.notifier.Name(), Err: err}
			c.logger.Warn("delivery failed, will retry next cycle", "source", source, "identity", string(id), "error", notifyErr)
			sr.NotifyFailed++
			continue
		}

		if err := c.store.MarkSeen(entryCtx, id); err != nil {
			return sr, &domain.StoreError{Op: "mark seen", Err: err}
		}
		sr.Delivered++
		c.logger.Debug("article delivered", "source", source, "identity", string(id))
	}

	return sr, nil
}

func (c *Cycle) prune(ctx context.Context, now time.Time, report *Report) error {
	if c.retention <= 0 {
		return nil
	}
	pruner, ok := c.store.(ports.Pruner)
	if !ok {
		return nil
	}

	removed, err := pruner.Prune(ctx, now.Add(-c.retention))
	if err != nil {
		return &domain.StoreError{Op: "prune", Err: err}
	}
	report.Pruned = removed
	if removed > 0 {
		c.logger.Debug("pruned processed identities", "count", removed)
	}
	return nil
}
