package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var overrideEnvs = []string{
	configPathEnv, databaseDSNEnv, redisAddrEnv, telegramTokenEnv, telegramChatIDEnv,
	discordWebhookEnv, feedSourcesEnv, pollIntervalEnv, logLevelEnv, notifySinkEnv,
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range overrideEnvs {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load("")
	if len(cfg.Feeds.Sources) != 3 {
		t.Fatalf("expected default sources, got %v", cfg.Feeds.Sources)
	}
	if cfg.Feeds.LimitPerSource != 5 || cfg.Feeds.RecencyWindow != 24*time.Hour {
		t.Fatalf("unexpected feed defaults: %+v", cfg.Feeds)
	}
	if cfg.Scheduler.Interval != 30*time.Minute || !cfg.Scheduler.RunOnStart {
		t.Fatalf("unexpected scheduler defaults: %+v", cfg.Scheduler)
	}
	if len(cfg.Filter.Denylist) != 1 || cfg.Filter.Denylist[0] != "porn" {
		t.Fatalf("unexpected denylist: %v", cfg.Filter.Denylist)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
feeds:
  sources:
    - https://a.example/feed
  recencyWindow: 12h
scheduler:
  interval: 45m
storage:
  driver: redis
  redisAddr: localhost:6379
  retention: 720h
notifications:
  sink: log
`)

	cfg := Load(path)
	if got := strings.Join(cfg.Feeds.Sources, ","); got != "https://a.example/feed" {
		t.Fatalf("unexpected sources %q", got)
	}
	if cfg.Feeds.RecencyWindow != 12*time.Hour || cfg.Scheduler.Interval != 45*time.Minute {
		t.Fatalf("durations not decoded: %+v %+v", cfg.Feeds, cfg.Scheduler)
	}
	if cfg.Feeds.LimitPerSource != 5 {
		t.Fatalf("unset key should keep default, got %d", cfg.Feeds.LimitPerSource)
	}
	if cfg.Storage.Driver != DriverRedis || cfg.Storage.Retention != 720*time.Hour {
		t.Fatalf("unexpected storage: %+v", cfg.Storage)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(feedSourcesEnv, "https://a.example/rss, ,https://b.example/atom")
	t.Setenv(pollIntervalEnv, "5m")
	t.Setenv(databaseDSNEnv, "postgres://env/db")
	t.Setenv(telegramTokenEnv, "token")
	t.Setenv(telegramChatIDEnv, "chat")
	t.Setenv(logLevelEnv, "debug")

	cfg := Load("")
	if got := strings.Join(cfg.Feeds.Sources, ","); got != "https://a.example/rss,https://b.example/atom" {
		t.Fatalf("unexpected sources %q", got)
	}
	if cfg.Scheduler.Interval != 5*time.Minute {
		t.Fatalf("unexpected interval %s", cfg.Scheduler.Interval)
	}
	if cfg.Storage.DSN != "postgres://env/db" || cfg.Logging.Level != "debug" {
		t.Fatalf("env overrides not applied: %+v %+v", cfg.Storage, cfg.Logging)
	}
	if cfg.Notifications.Telegram.BotToken != "token" || cfg.Notifications.Telegram.ChatID != "chat" {
		t.Fatalf("telegram overrides not applied: %+v", cfg.Notifications.Telegram)
	}
}

func TestLoadKeepsIntervalOnInvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(pollIntervalEnv, "soon")

	if cfg := Load(""); cfg.Scheduler.Interval != 30*time.Minute {
		t.Fatalf("invalid interval should be ignored, got %s", cfg.Scheduler.Interval)
	}
}

func TestLoadFallsBackOnBrokenFile(t *testing.T) {
	clearEnv(t)

	cfg := Load(writeConfig(t, "feeds: [this is: not valid"))
	if cfg.Scheduler.Interval != 30*time.Minute || len(cfg.Feeds.Sources) != 3 {
		t.Fatalf("expected defaults after parse error, got %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no sources", mutate: func(c *Config) { c.Feeds.Sources = nil }, wantErr: "at least one source"},
		{name: "bad source", mutate: func(c *Config) { c.Feeds.Sources = []string{"ftp://x"} }, wantErr: "not an http(s) url"},
		{name: "zero limit", mutate: func(c *Config) { c.Feeds.LimitPerSource = 0 }, wantErr: "limitPerSource"},
		{name: "zero interval", mutate: func(c *Config) { c.Scheduler.Interval = 0 }, wantErr: "scheduler.interval"},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "sqlite" }, wantErr: "unknown driver"},
		{name: "redis without addr", mutate: func(c *Config) { c.Storage.Driver = DriverRedis }, wantErr: "redisAddr"},
		{name: "retention inside window", mutate: func(c *Config) { c.Storage.Retention = time.Hour }, wantErr: "retention"},
		{name: "empty sink", mutate: func(c *Config) { c.Notifications.Sink = "" }, wantErr: "notifications.sink"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := defaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
