package sink

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"FeedNotifier/internal/domain"
	"FeedNotifier/internal/infrastructure/discord"
	"FeedNotifier/internal/infrastructure/logsink"
)

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	reg := NewRegistry()
	reg.Register(logsink.NewNotifier(slog.New(slog.NewTextHandler(&buf, nil))))
	reg.Register(discord.NewNotifier("https://discord.example/webhook"))

	if got := strings.Join(reg.Names(), ","); got != "discord,log" {
		t.Fatalf("Names = %q", got)
	}

	n, err := reg.Resolve("log")
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if err := n.Notify(context.Background(), domain.Notification{Title: "Hello", Link: "https://x.example"}); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
	if !strings.Contains(buf.String(), "title=Hello") {
		t.Fatalf("log sink output missing title: %q", buf.String())
	}

	_, err = reg.Resolve("telegram")
	if err == nil || !strings.Contains(err.Error(), "discord") {
		t.Fatalf("expected error listing available sinks, got %v", err)
	}
}
