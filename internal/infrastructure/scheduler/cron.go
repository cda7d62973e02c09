package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"FeedNotifier/internal/ports"
)

// CronScheduler fires a job on a fixed interval using robfig/cron.
// Overlapping ticks are skipped while a job is still running.
type CronScheduler struct {
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entry   cron.EntryID
	stopped context.Context
	// done is closed by Stop so the context watcher exits.
	done chan struct{}
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler; intervals below one second are rounded up by cron.
func NewCronScheduler(interval time.Duration, logger *slog.Logger) *CronScheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CronScheduler{interval: interval, logger: logger}
}

// Start schedules job every interval until ctx is done or Stop is called.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if c.interval <= 0 {
		return fmt.Errorf("invalid interval %s", c.interval)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	logger := cronLogger{c.logger}
	cr := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.entry = cr.Schedule(cron.Every(c.interval), cron.FuncJob(func() {
		job(time.Now())
	}))
	cr.Start()
	c.cron = cr
	c.stopped = nil
	done := make(chan struct{})
	c.done = done

	go func() {
		select {
		case <-ctx.Done():
			_ = c.Stop(context.Background())
		case <-done:
		}
	}()

	return nil
}

// Stop halts the schedule and waits for a running job, bounded by ctx.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.cron != nil {
		c.stopped = c.cron.Stop()
		c.cron = nil
		close(c.done)
		c.done = nil
	}
	stopped := c.stopped
	c.mu.Unlock()

	if stopped == nil {
		return nil
	}

	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for running job: %w", ctx.Err())
	}
}

// Next reports the next activation time, or zero when stopped.
func (c *CronScheduler) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron == nil {
		return time.Time{}
	}
	return c.cron.Entry(c.entry).Next
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
