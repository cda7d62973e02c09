package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"FeedNotifier/internal/api"
	"FeedNotifier/internal/config"
	"FeedNotifier/internal/infrastructure/discord"
	"FeedNotifier/internal/infrastructure/feed"
	"FeedNotifier/internal/infrastructure/logsink"
	infrasched "FeedNotifier/internal/infrastructure/scheduler"
	"FeedNotifier/internal/infrastructure/storage"
	"FeedNotifier/internal/infrastructure/telegram"
	"FeedNotifier/internal/logging"
	"FeedNotifier/internal/ports"
	"FeedNotifier/internal/sink"
	"FeedNotifier/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	scheduler *usecase.Scheduler
	closers   []func() error
}

// New opens the dedup store, resolves the sink and builds the scheduler.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	notifier, err := buildRegistry(cfg.Notifications, baseLogger).Resolve(cfg.Notifications.Sink)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	fetcher := feed.NewFetcher(
		&http.Client{Timeout: cfg.Feeds.Timeout},
		cfg.Feeds.UserAgent,
		baseLogger.With("component", "fetcher"),
	)

	cycle := usecase.NewCycle(usecase.CycleDeps{
		Sources:        cfg.Feeds.Sources,
		Fetcher:        fetcher,
		Store:          store,
		Notifier:       notifier,
		Filter:         usecase.NewContentFilter(cfg.Filter.Denylist, cfg.Filter.MatchDescription),
		LimitPerSource: cfg.Feeds.LimitPerSource,
		RecencyWindow:  cfg.Feeds.RecencyWindow,
		Retention:      cfg.Storage.Retention,
		Logger:         baseLogger.With("component", "cycle"),
	})

	driver := infrasched.NewCronScheduler(cfg.Scheduler.Interval, baseLogger.With("component", "cron"))
	a.scheduler = usecase.NewScheduler(driver, cycle, cfg.Scheduler.RunOnStart, baseLogger.With("component", "scheduler"))

	baseLogger.Info("application configured",
		"sources", len(cfg.Feeds.Sources),
		"sink", notifier.Name(),
		"store", cfg.Storage.Driver,
		"interval", cfg.Scheduler.Interval.String())

	return a, nil
}

// Run starts the schedule and the control API, blocking until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	defer a.Close()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	var srv *http.Server
	serverErr := make(chan error, 1)
	if a.cfg.HTTP.Enabled {
		gin.SetMode(gin.ReleaseMode)
		router := api.NewRouter(api.NewServer(a.scheduler, a.logger.With("component", "api")))
		srv = &http.Server{Addr: a.cfg.HTTP.Addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			a.logger.Info("starting api server", "addr", a.cfg.HTTP.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		runErr = fmt.Errorf("api server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("api server shutdown", "error", err)
		}
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("stop scheduler: %w", err))
	}

	a.logger.Info("application stopped")
	return runErr
}

// RunOnce executes a single cycle outside the schedule.
func (a *Application) RunOnce(ctx context.Context) (usecase.Report, error) {
	defer a.Close()
	return a.scheduler.RunNow(ctx)
}

// Close releases store connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *Application) openStore(ctx context.Context) (ports.ProcessedStore, error) {
	switch a.cfg.Storage.Driver {
	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{Addr: a.cfg.Storage.RedisAddr})
		a.closers = append(a.closers, client.Close)

		repo := storage.NewRedisRepository(client, a.cfg.Storage.RedisKey)
		if err := repo.Init(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
		return repo, nil
	default:
		db, err := storage.OpenPostgres(ctx, a.cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)

		repo := storage.NewPostgresRepository(db)
		if err := repo.Init(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
		return repo, nil
	}
}

// buildRegistry registers every sink whose credentials are present.
func buildRegistry(cfg config.NotificationConfig, logger *slog.Logger) *sink.Registry {
	reg := sink.NewRegistry()
	reg.Register(logsink.NewNotifier(logger.With("component", "sink.log")))
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		reg.Register(telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID))
	}
	if cfg.Discord.WebhookURL != "" {
		reg.Register(discord.NewNotifier(cfg.Discord.WebhookURL))
	}
	return reg
}
