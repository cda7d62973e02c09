package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"FeedNotifier/internal/ports"
)

// Trigger names recorded on cycle reports.
const (
	TriggerStartup  = "startup"
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// CycleRunner executes one ingestion pass.
type CycleRunner interface {
	RunCycle(ctx context.Context) (Report, error)
}

// Scheduler wires the periodic driver and the manual trigger to a single
// cycle runner. A mutex spans whole cycles so two triggers never overlap.
type Scheduler struct {
	driver     ports.Scheduler
	cycle      CycleRunner
	runOnStart bool
	logger     *slog.Logger

	cycleMu sync.Mutex
	// stopping is cancelled by Stop and bounds every cycle, manual ones included.
	stopping context.Context
	stopAll  context.CancelFunc

	stateMu sync.RWMutex
	last    *Report
	lastErr error
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler returns a helper to start/stop recurring cycles.
func NewScheduler(driver ports.Scheduler, cycle CycleRunner, runOnStart bool, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	stopping, stopAll := context.WithCancel(context.Background())
	return &Scheduler{
		driver:     driver,
		cycle:      cycle,
		runOnStart: runOnStart,
		logger:     logger,
		stopping:   stopping,
		stopAll:    stopAll,
	}
}

// Start registers the cycle with the driver and optionally runs it once right away.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.cycle == nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.stateMu.Lock()
	s.cancel = cancel
	s.stateMu.Unlock()

	if s.runOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			_, _ = s.run(runCtx, TriggerStartup)
		}()
	}

	job := func(time.Time) {
		_, _ = s.run(runCtx, TriggerSchedule)
	}
	if err := s.driver.Start(runCtx, job); err != nil {
		cancel()
		return err
	}
	return nil
}

// RunNow executes a cycle immediately, waiting for any running cycle first.
// The driver's next fire time is not affected. Stop cancels it between entries.
func (s *Scheduler) RunNow(ctx context.Context) (Report, error) {
	return s.run(ctx, TriggerManual)
}

// Stop cancels future work and waits for the in-flight cycle to finish its current entry.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.stateMu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.stateMu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.stopAll()

	var err error
	if s.driver != nil {
		err = s.driver.Stop(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		s.cycleMu.Lock()
		s.cycleMu.Unlock()
		close(done)
	}()

	select {
	case <-done:
		return err
	case <-ctx.Done():
		return errors.Join(err, ctx.Err())
	}
}

// Status is a snapshot of the scheduler for the control API.
type Status struct {
	Last      *Report   `json:"last,omitempty"`
	LastError string    `json:"lastError,omitempty"`
	NextRun   time.Time `json:"nextRun"`
}

// Status returns the most recent cycle report and the next fire time.
func (s *Scheduler) Status() Status {
	var st Status
	if s.driver != nil {
		st.NextRun = s.driver.Next()
	}

	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	if s.last != nil {
		last := *s.last
		st.Last = &last
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

func (s *Scheduler) run(ctx context.Context, trigger string) (Report, error) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	cycleCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	unlink := context.AfterFunc(s.stopping, cancel)
	defer unlink()

	s.logger.Debug("cycle start", "trigger", trigger)
	report, err := s.cycle.RunCycle(cycleCtx)
	report.Trigger = trigger

	s.stateMu.Lock()
	s.last = &report
	s.lastErr = err
	s.stateMu.Unlock()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.logger.Info("cycle cancelled", "trigger", trigger)
		} else {
			s.logger.Error("cycle failed", "trigger", trigger, "error", err)
		}
	}
	return report, err
}
