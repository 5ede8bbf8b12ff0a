package client

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aura/config"
	"aura/internal/analytics"
	"aura/internal/database"
	"aura/internal/handlers"
	"aura/internal/models"
	"aura/internal/server"
)

func newServer(t *testing.T) (*httptest.Server, *analytics.Hub) {
	t.Helper()
	cfg := config.Default(":memory:?_foreign_keys=on")
	cfg.Server.RateLimit = 1000
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
	return ts, hub
}

func loggedIn(t *testing.T, baseURL, name string) (*Client, *models.User) {
	t.Helper()
	ctx := context.Background()
	c := New(baseURL, nil)
	if _, err := c.Register(ctx, name+"@example.com", name, "password1"); err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	res, err := c.Login(ctx, name, "password1")
	if err != nil {
		t.Fatalf("login %s: %v", name, err)
	}
	return c, &res.User
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func TestSessionLifecycle(t *testing.T) {
	ts, _ := newServer(t)
	ctx := context.Background()
	c := New(ts.URL, nil)

	if _, err := c.Me(ctx); statusOf(err) != http.StatusUnauthorized {
		t.Fatalf("anonymous me: %v", err)
	}
	if _, err := c.Register(ctx, "alice@example.com", "alice", "password1"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Register(ctx, "alice@example.com", "alice2", "password1"); statusOf(err) != http.StatusConflict {
		t.Fatalf("duplicate email: %v", err)
	}
	if _, err := c.Login(ctx, "alice", "wrong-password"); statusOf(err) != http.StatusUnauthorized {
		t.Fatalf("bad password: %v", err)
	}

	res, err := c.Login(ctx, "alice@example.com", "password1")
	if err != nil {
		t.Fatal(err)
	}
	if c.Token() == "" || c.Token() != res.Token {
		t.Fatalf("token not kept")
	}
	me, err := c.Me(ctx)
	if err != nil || me.Username != "alice" || me.Credits != 100 {
		t.Fatalf("me = %+v, %v", me, err)
	}

	if err := c.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Me(ctx); statusOf(err) != http.StatusUnauthorized {
		t.Fatalf("me after logout: %v", err)
	}
}

func TestPostsReactionsAndBoost(t *testing.T) {
	ts, _ := newServer(t)
	ctx := context.Background()
	alice, _ := loggedIn(t, ts.URL, "alice")
	bob, _ := loggedIn(t, ts.URL, "bob")

	post, err := alice.CreatePost(ctx, "sunrise over the bay", "")
	if err != nil {
		t.Fatal(err)
	}

	toggle, err := bob.TogglePostReaction(ctx, post.ID, "✨")
	if err != nil || !toggle.Added || toggle.Radiance != 1 {
		t.Fatalf("toggle = %+v, %v", toggle, err)
	}
	states, err := alice.ReactionStates(ctx, []int{post.ID})
	if err != nil || len(states) != 1 || states[0].Reactions["✨"] != 1 {
		t.Fatalf("states = %+v, %v", states, err)
	}

	root, err := bob.AddComment(ctx, post.ID, nil, "beautiful")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := alice.AddComment(ctx, post.ID, &root.ID, "thanks!"); err != nil {
		t.Fatal(err)
	}
	full, err := bob.Post(ctx, post.ID)
	if err != nil || full.CommentCount != 2 || len(full.Comments) != 1 || len(full.Comments[0].Replies) != 1 {
		t.Fatalf("post = %+v, %v", full, err)
	}

	if _, err := bob.BoostPost(ctx, post.ID, 101); statusOf(err) != http.StatusPaymentRequired {
		t.Fatalf("boost beyond balance: %v", err)
	}
	receipt, err := bob.BoostPost(ctx, post.ID, 20)
	if err != nil || receipt.Balance != 80 || receipt.Radiance != 21 {
		t.Fatalf("receipt = %+v, %v", receipt, err)
	}

	feed, err := bob.Feed(ctx, "boosted", 1)
	if err != nil || len(feed.Posts) != 1 || feed.Posts[0].ID != post.ID {
		t.Fatalf("boosted feed = %+v, %v", feed, err)
	}

	if err := bob.DeletePost(ctx, post.ID); statusOf(err) != http.StatusForbidden {
		t.Fatalf("deleting someone else's post: %v", err)
	}
	if err := alice.DeletePost(ctx, post.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := bob.Post(ctx, post.ID); statusOf(err) != http.StatusNotFound {
		t.Fatalf("deleted post: %v", err)
	}
}

func TestMessagesAndPrivacy(t *testing.T) {
	ts, _ := newServer(t)
	ctx := context.Background()
	alice, a := loggedIn(t, ts.URL, "alice")
	bob, b := loggedIn(t, ts.URL, "bob")

	first, err := alice.SendMessage(ctx, b.ID, "hi bob")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bob.SendMessage(ctx, a.ID, "hey alice"); err != nil {
		t.Fatal(err)
	}

	newer, err := alice.Thread(ctx, b.ID, first.ID)
	if err != nil || len(newer) != 1 || newer[0].Content != "hey alice" {
		t.Fatalf("thread after %d = %+v, %v", first.ID, newer, err)
	}
	convs, err := bob.Conversations(ctx)
	if err != nil || len(convs) != 1 || convs[0].Peer.ID != a.ID {
		t.Fatalf("conversations = %+v, %v", convs, err)
	}

	settings, err := bob.PrivacySettings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	settings.MessagePermission = models.MessagesNobody
	if err := bob.UpdatePrivacySettings(ctx, *settings); err != nil {
		t.Fatal(err)
	}
	if _, err := alice.SendMessage(ctx, b.ID, "still there?"); statusOf(err) != http.StatusForbidden {
		t.Fatalf("message to closed inbox: %v", err)
	}

	if err := bob.Block(ctx, a.ID); err != nil {
		t.Fatal(err)
	}
	blocked, err := bob.BlockedUsers(ctx)
	if err != nil || len(blocked) != 1 {
		t.Fatalf("blocked = %+v, %v", blocked, err)
	}
	if err := bob.Unblock(ctx, a.ID); err != nil {
		t.Fatal(err)
	}

	notes, err := bob.Notifications(ctx)
	if err != nil || len(notes) == 0 {
		t.Fatalf("notifications = %+v, %v", notes, err)
	}
	if err := bob.MarkAllNotificationsRead(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestAdsAndCredits(t *testing.T) {
	ts, _ := newServer(t)
	ctx := context.Background()
	alice, _ := loggedIn(t, ts.URL, "alice")
	bob, _ := loggedIn(t, ts.URL, "bob")

	ad, err := alice.CreateAd(ctx, "Handmade lamps", "Warm light for cold nights", "https://example.com/lamps", 30)
	if err != nil {
		t.Fatal(err)
	}
	summary, err := alice.Credits(ctx)
	if err != nil || summary.Balance != 70 {
		t.Fatalf("credits = %+v, %v", summary, err)
	}

	served, err := bob.Ads(ctx)
	if err != nil || len(served) != 1 || served[0].ID != ad.ID {
		t.Fatalf("served = %+v, %v", served, err)
	}
	if _, err := bob.ToggleAdReaction(ctx, ad.ID, "👏"); err != nil {
		t.Fatal(err)
	}
	if _, err := bob.AdClick(ctx, ad.ID); err != nil {
		t.Fatal(err)
	}

	mine, err := alice.MyAds(ctx)
	if err != nil || len(mine) != 1 || mine[0].Impressions != 1 || mine[0].Clicks != 1 {
		t.Fatalf("my ads = %+v, %v", mine, err)
	}
	if _, err := alice.SetAdStatus(ctx, ad.ID, models.AdPaused); err != nil {
		t.Fatal(err)
	}
	if served, _ := bob.Ads(ctx); len(served) != 0 {
		t.Fatalf("paused ad still served")
	}

	pkgs, err := bob.CreditPackages(ctx)
	if err != nil || len(pkgs) == 0 {
		t.Fatalf("packages = %+v, %v", pkgs, err)
	}
	balance, err := bob.PurchaseCredits(ctx, pkgs[0].ID)
	if err != nil || balance != 100+pkgs[0].Credits {
		t.Fatalf("balance = %d, %v", balance, err)
	}
	if _, err := bob.PurchaseCredits(ctx, "nope"); statusOf(err) != http.StatusBadRequest {
		t.Fatalf("unknown package: %v", err)
	}
}

func TestStreamAnalytics(t *testing.T) {
	ts, hub := newServer(t)
	alice, a := loggedIn(t, ts.URL, "alice")
	bob, _ := loggedIn(t, ts.URL, "bob")

	post, err := alice.CreatePost(context.Background(), "live numbers", "")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	events := make(chan models.AnalyticsEvent, 4)
	done := make(chan error, 1)
	go func() {
		done <- alice.StreamAnalytics(ctx, func(ev models.AnalyticsEvent) { events <- ev })
	}()

	for i := 0; hub.Connections(a.ID) == 0; i++ {
		if i > 500 {
			t.Fatalf("analytics stream never connected")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := bob.TogglePostReaction(context.Background(), post.ID, "🔥"); err != nil {
		t.Fatal(err)
	}
	select {
	case ev := <-events:
		if ev.Type != models.EventReaction || ev.PostID != post.ID || ev.Radiance != 1 {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-ctx.Done():
		t.Fatalf("no analytics event received")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("stream ended with %v", err)
	}
}
