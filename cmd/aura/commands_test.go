package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aura/config"
	"aura/internal/analytics"
	"aura/internal/database"
	"aura/internal/handlers"
	"aura/internal/server"
)

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default(":memory:?_foreign_keys=on")
	if err := database.InitDB(cfg); err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { database.DB.Close() })

	logger := log.New(io.Discard, "", 0)
	hub := analytics.NewHub(logger)
	t.Cleanup(hub.Close)
	tickets, err := analytics.NewTicketIssuer(cfg.Security.Secret, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(server.NewRouter(cfg, handlers.New(cfg, hub, tickets, logger)))
	t.Cleanup(ts.Close)

	a, err := newApp(&config.ClientConfig{
		ServerURL: ts.URL,
		CachePath: filepath.Join(t.TempDir(), "cache.db"),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { a.local.Close() })

	var out bytes.Buffer
	a.out = &out
	a.logger = logger
	return a, &out
}

func TestCommands(t *testing.T) {
	a, out := newTestApp(t)
	ctx := context.Background()

	steps := []struct {
		args    []string
		want    string
		wantErr bool
	}{
		{[]string{"me"}, "", true},
		{[]string{"register", "alice@example.com", "alice", "password1"}, "Registered alice", false},
		{[]string{"login", "alice", "password1"}, "Logged in as alice", false},
		{[]string{"post", "hello", "aura"}, "Posted #1", false},
		{[]string{"feed"}, "hello aura", false},
		{[]string{"feed", "-filter", "nonsense"}, "", true},
		{[]string{"react", "1", "✨"}, "✨1*", false},
		{[]string{"react", "1", "🍕"}, "", true},
		{[]string{"react", "x", "✨"}, "", true},
		{[]string{"comment", "1", "first!"}, "on post #1", false},
		{[]string{"post", "-show", "1"}, "first!", false},
		{[]string{"boost", "1", "500"}, "", true},
		{[]string{"boost", "1", "10"}, "radiance", false},
		{[]string{"credits"}, "Balance: 90", false},
		{[]string{"logout"}, "Logged out.", false},
		{[]string{"feed"}, "", true},
	}

	for _, step := range steps {
		out.Reset()
		cmd, ok := commands[step.args[0]]
		if !ok {
			t.Fatalf("unknown command %q", step.args[0])
		}
		err := cmd.run(ctx, a, step.args[1:])
		if step.wantErr {
			if err == nil {
				t.Errorf("%v: expected an error, got output %q", step.args, out.String())
			}
			continue
		}
		if err != nil {
			t.Errorf("%v: %v", step.args, err)
			continue
		}
		if !strings.Contains(out.String(), step.want) {
			t.Errorf("%v: output %q does not contain %q", step.args, out.String(), step.want)
		}
	}
}

func TestLoginPersistsToken(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	if err := runRegister(ctx, a, []string{"bob@example.com", "bob", "password1"}); err != nil {
		t.Fatal(err)
	}
	if err := runLogin(ctx, a, []string{"bob", "password1"}); err != nil {
		t.Fatal(err)
	}

	restarted, err := newApp(&config.ClientConfig{ServerURL: a.cfg.ServerURL, CachePath: a.cfg.CachePath})
	if err != nil {
		t.Fatal(err)
	}
	defer restarted.local.Close()
	var out bytes.Buffer
	restarted.out = &out
	if err := runMe(ctx, restarted, nil); err != nil {
		t.Fatalf("stored token not picked up: %v", err)
	}
	if !strings.Contains(out.String(), "@bob") {
		t.Fatalf("me output %q", out.String())
	}
}
