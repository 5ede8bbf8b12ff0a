package poller

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"aura/config"
	"aura/internal/cache"
	"aura/internal/models"
	"aura/internal/state"
)

type fakeSource struct {
	mu        sync.Mutex
	calls     map[string]int
	failNotes bool
}

func (f *fakeSource) hit(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
	return f.calls[name]
}

func (f *fakeSource) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeSource) Conversations(ctx context.Context) ([]models.Conversation, error) {
	f.hit("conversations")
	return []models.Conversation{{Peer: models.User{ID: 2, Username: "bob"}, UnreadCount: 1}}, nil
}

func (f *fakeSource) Thread(ctx context.Context, peerID, afterID int) ([]models.Message, error) {
	n := f.hit("messages")
	msgs := make([]models.Message, n)
	for i := range msgs {
		msgs[i] = models.Message{ID: i + 1, SenderID: peerID}
	}
	return msgs, nil
}

func (f *fakeSource) ReactionStates(ctx context.Context, ids []int) ([]models.ReactionState, error) {
	f.hit("reactions")
	return nil, nil
}

func (f *fakeSource) Notifications(ctx context.Context) ([]models.Notification, error) {
	n := f.hit("notifications")
	if f.failNotes && n == 1 {
		return nil, errors.New("timeout")
	}
	return []models.Notification{{ID: 1, Message: "bob reacted"}}, nil
}

func TestIntervalsFrom(t *testing.T) {
	cfg := &config.ClientConfig{ConversationsInterval: time.Second, NotificationsInterval: time.Minute}
	got := IntervalsFrom(cfg)
	if got.Conversations != time.Second || got.Notifications != time.Minute || got.Messages != 0 {
		t.Fatalf("IntervalsFrom = %+v", got)
	}
}

func TestRunMergesAndRetries(t *testing.T) {
	src := &fakeSource{failNotes: true}
	var logs bytes.Buffer
	store := state.New(nil, cache.NewSession(), nil, log.New(&logs, "", 0))
	store.OpenConversation(2)

	p := New(src, store, Intervals{
		Conversations: 5 * time.Millisecond,
		Messages:      5 * time.Millisecond,
		Notifications: 5 * time.Millisecond,
	}, log.New(&logs, "", 0))

	var mu sync.Mutex
	var seenNotes, seenMsgs int
	p.OnNotifications = func(notes []models.Notification) {
		mu.Lock()
		seenNotes += len(notes)
		mu.Unlock()
	}
	p.OnMessages = func(peer int, msgs []models.Message) {
		mu.Lock()
		seenMsgs += len(msgs)
		mu.Unlock()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if src.count("notifications") < 2 {
		t.Fatalf("failed notification poll was not retried")
	}
	if src.count("reactions") != 0 {
		t.Fatalf("disabled poll ran")
	}
	if !strings.Contains(logs.String(), "notifications poll failed") {
		t.Fatalf("failure not logged: %q", logs.String())
	}
	if len(store.Conversations()) != 1 {
		t.Fatalf("conversations not merged")
	}

	mu.Lock()
	defer mu.Unlock()
	if seenNotes != 1 {
		t.Fatalf("notification reported %d times", seenNotes)
	}
	if seenMsgs != src.count("messages") || len(store.Messages(2)) != seenMsgs {
		t.Fatalf("messages seen %d, thread %d", seenMsgs, len(store.Messages(2)))
	}
}

func TestRunSkipsIdleTargets(t *testing.T) {
	src := &fakeSource{}
	store := state.New(nil, cache.NewSession(), nil, log.New(&bytes.Buffer{}, "", 0))
	p := New(src, store, Intervals{Messages: 2 * time.Millisecond, Reactions: 2 * time.Millisecond}, log.New(&bytes.Buffer{}, "", 0))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	if src.count("messages") != 0 || src.count("reactions") != 0 {
		t.Fatalf("polled without an open conversation or loaded posts: %v", src.calls)
	}
}
