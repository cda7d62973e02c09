package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"FeedNotifier/internal/app"
	"FeedNotifier/internal/config"
	"FeedNotifier/internal/logging"
)

const usage = `Usage: feednotifier [flags] [command]

Commands:
  run         poll feeds on the configured interval and serve the control API (default)
  fetch-once  run a single ingestion cycle and exit

Flags:
`

func main() {
	// .env is optional.
	_ = godotenv.Load()

	configPath := flag.StringP("config", "c", "", "path to YAML config (default $FEED_NOTIFIER_CONFIG)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	command := "run"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}
	if command != "run" && command != "fetch-once" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load(*configPath)
	logger := logging.NewWithWriter(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application init failed", "error", err)
		os.Exit(1)
	}

	switch command {
	case "run":
		if err := application.Run(ctx); err != nil {
			logger.Error("application stopped", "error", err)
			os.Exit(1)
		}
	case "fetch-once":
		report, err := application.RunOnce(ctx)
		if err != nil {
			logger.Error("fetch failed", "error", err)
			os.Exit(1)
		}
		logger.Info("fetch done", "delivered", report.Delivered, "filtered", report.Filtered, "failed", report.Failed)
	}
}
