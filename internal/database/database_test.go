package database

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"aura/config"
	"aura/internal/models"
)

func setupDB(t *testing.T) {
	t.Helper()
	if err := InitDB(config.Default(":memory:?_foreign_keys=on")); err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { DB.Close() })
}

func mustUser(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := CreateUser(name+"@example.com", name, "hash", 100)
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func mustPost(t *testing.T, userID int, content string) *models.Post {
	t.Helper()
	p, err := CreatePost(userID, content, "")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func TestCreateUserGrantsStartingCredits(t *testing.T) {
	setupDB(t)
	u := mustUser(t, "alice")
	if u.Credits != 100 || u.TrustScore != 50 {
		t.Fatalf("got credits=%d trust=%d, want 100/50", u.Credits, u.TrustScore)
	}
	summary, err := GetCreditSummary(u.ID, 10)
	if err != nil {
		t.Fatalf("credit summary: %v", err)
	}
	if len(summary.Transactions) != 1 || summary.Transactions[0].Kind != models.CreditGrant {
		t.Fatalf("expected one grant transaction, got %+v", summary.Transactions)
	}
	if _, err := CreateUser("other@example.com", "ALICE", "hash", 0); err == nil {
		t.Fatalf("expected case-insensitive username conflict")
	}
}

func TestTogglePostReactionTwiceRestores(t *testing.T) {
	setupDB(t)
	alice := mustUser(t, "alice")
	bob := mustUser(t, "bob")
	post := mustPost(t, alice.ID, "hello")

	res, err := TogglePostReaction(bob.ID, post.ID, "🔥")
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !res.Added || res.State.Reactions["🔥"] != 1 || res.State.Radiance != 1 {
		t.Fatalf("unexpected state after add: %+v", res)
	}
	if len(res.State.UserReactions) != 1 || res.State.UserReactions[0] != "🔥" {
		t.Fatalf("user reactions = %v", res.State.UserReactions)
	}

	res, err = TogglePostReaction(bob.ID, post.ID, "🔥")
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if res.Added || len(res.State.Reactions) != 0 || res.State.Radiance != 0 || len(res.State.UserReactions) != 0 {
		t.Fatalf("toggle twice did not restore: %+v", res.State)
	}

	notes, err := ListNotifications(alice.ID, 10)
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	if len(notes) != 1 || notes[0].Type != models.NotifyReaction {
		t.Fatalf("expected one reaction notification, got %+v", notes)
	}
}

func TestReactionValidation(t *testing.T) {
	setupDB(t)
	alice := mustUser(t, "alice")
	post := mustPost(t, alice.ID, "hello")

	if _, err := TogglePostReaction(alice.ID, post.ID, "💩"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := TogglePostReaction(alice.ID, post.ID+100, "✨"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := TogglePostReaction(alice.ID, post.ID, "✨"); err != nil {
		t.Fatalf("own reaction: %v", err)
	}
	notes, _ := ListNotifications(alice.ID, 10)
	if len(notes) != 0 {
		t.Fatalf("reacting to your own post must not notify, got %d", len(notes))
	}
}

func TestBoostPost(t *testing.T) {
	setupDB(t)
	alice := mustUser(t, "alice")
	post := mustPost(t, alice.ID, "boost me")

	if _, err := BoostPost(alice.ID, post.ID, 500, 1, time.Hour); !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	user, _ := GetUserByID(alice.ID)
	if user.Credits != 100 {
		t.Fatalf("failed boost changed balance to %d", user.Credits)
	}

	res, err := BoostPost(alice.ID, post.ID, 30, 2, time.Hour)
	if err != nil {
		t.Fatalf("boost: %v", err)
	}
	if res.Balance != 70 || res.State.Radiance != 60 {
		t.Fatalf("got balance=%d radiance=%d, want 70/60", res.Balance, res.State.Radiance)
	}
	first := res.BoostedUntil

	res, err = BoostPost(alice.ID, post.ID, 10, 2, time.Hour)
	if err != nil {
		t.Fatalf("second boost: %v", err)
	}
	if !res.BoostedUntil.Equal(first.Add(time.Hour)) {
		t.Fatalf("boost window should extend from the current end: %v vs %v", res.BoostedUntil, first)
	}

	summary, _ := GetCreditSummary(alice.ID, 10)
	if len(summary.Transactions) != 3 || summary.Transactions[0].Amount != -10 {
		t.Fatalf("unexpected transactions %+v", summary.Transactions)
	}
}

func TestFeedBoostedFirstAndPaging(t *testing.T) {
	setupDB(t)
	alice := mustUser(t, "alice")
	var first *models.Post
	for i := 0; i < 12; i++ {
		p := mustPost(t, alice.ID, fmt.Sprintf("post %d", i))
		if i == 0 {
			first = p
		}
	}
	if _, err := BoostPost(alice.ID, first.ID, 1, 1, time.Hour); err != nil {
		t.Fatalf("boost: %v", err)
	}

	page, err := Feed(alice.ID, FilterAll, 1)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if page.TotalPages != 2 || len(page.Posts) != PostsPerPage {
		t.Fatalf("got %d posts, %d pages", len(page.Posts), page.TotalPages)
	}
	if page.Posts[0].ID != first.ID {
		t.Fatalf("boosted post should lead the feed, got %d", page.Posts[0].ID)
	}
	if page.Posts[1].Content != "post 11" {
		t.Fatalf("expected newest after boosted, got %q", page.Posts[1].Content)
	}

	page, err = Feed(alice.ID, FilterAll, 2)
	if err != nil {
		t.Fatalf("feed page 2: %v", err)
	}
	if len(page.Posts) != 2 {
		t.Fatalf("page 2 has %d posts", len(page.Posts))
	}

	boosted, err := Feed(alice.ID, FilterBoosted, 1)
	if err != nil || len(boosted.Posts) != 1 {
		t.Fatalf("boosted filter: %v %+v", err, boosted)
	}
	if _, err := Feed(alice.ID, "weird", 1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown filter, got %v", err)
	}
}

func TestCommentTree(t *testing.T) {
	setupDB(t)
	alice := mustUser(t, "alice")
	bob := mustUser(t, "bob")
	p1 := mustPost(t, alice.ID, "one")
	p2 := mustPost(t, alice.ID, "two")

	top, err := CreateComment(bob.ID, p1.ID, nil, "nice")
	if err != nil {
		t.Fatalf("comment: %v", err)
	}
	if _, err := CreateComment(alice.ID, p1.ID, &top.Comment.ID, "thanks"); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if _, err := CreateComment(alice.ID, p2.ID, &top.Comment.ID, "wrong post"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for cross-post reply, got %v", err)
	}

	post, err := GetPost(bob.ID, p1.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if len(post.Comments) != 1 || len(post.Comments[0].Replies) != 1 {
		t.Fatalf("unexpected tree %+v", post.Comments)
	}

	notes, _ := ListNotifications(bob.ID, 10)
	if len(notes) != 1 || notes[0].Type != models.NotifyReply {
		t.Fatalf("bob should get one reply notification, got %+v", notes)
	}

	if err := DeleteComment(alice.ID, top.Comment.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := DeleteComment(bob.ID, top.Comment.ID); err != nil {
		t.Fatalf("delete comment: %v", err)
	}
	post, _ = GetPost(bob.ID, p1.ID)
	if len(post.Comments) != 0 || post.CommentCount != 0 {
		t.Fatalf("replies should be deleted with their parent, got %+v", post.Comments)
	}
}

func TestAcquaintanceIsMutual(t *testing.T) {
	setupDB(t)
	alice := mustUser(t, "alice")
	bob := mustUser(t, "bob")

	rel, err := RequestAcquaintance(alice.ID, bob.ID)
	if err != nil || rel != models.RelationRequested {
		t.Fatalf("request: %q %v", rel, err)
	}
	ok, _ := areAcquaintances(DB, alice.ID, bob.ID)
	if ok {
		t.Fatalf("a pending request is not an acquaintance")
	}

	rel, err = RequestAcquaintance(bob.ID, alice.ID)
	if err != nil || rel != models.RelationAcquaintance {
		t.Fatalf("accept: %q %v", rel, err)
	}
	a, _ := GetUserByID(alice.ID)
	if a.TrustScore != 52 {
		t.Fatalf("trust score = %d, want 52", a.TrustScore)
	}

	list, err := ListAcquaintances(alice.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Acquaintances) != 1 || list.Acquaintances[0].ID != bob.ID {
		t.Fatalf("unexpected acquaintances %+v", list)
	}
}

func TestBlockHidesContent(t *testing.T) {
	setupDB(t)
	alice := mustUser(t, "alice")
	bob := mustUser(t, "bob")
	post := mustPost(t, alice.ID, "secret-ish")
	if _, err := RequestAcquaintance(alice.ID, bob.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := RequestAcquaintance(bob.ID, alice.ID); err != nil {
		t.Fatal(err)
	}

	if err := BlockUser(alice.ID, bob.ID); err != nil {
		t.Fatalf("block: %v", err)
	}
	if ok, _ := areAcquaintances(DB, alice.ID, bob.ID); ok {
		t.Fatalf("blocking must remove the acquaintance")
	}
	b, _ := GetUserByID(bob.ID)
	if b.TrustScore != 47 {
		t.Fatalf("trust score = %d, want 47", b.TrustScore)
	}

	if _, err := GetPost(bob.ID, post.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("blocked user should not see the post, got %v", err)
	}
	feed, _ := Feed(bob.ID, FilterAll, 1)
	if len(feed.Posts) != 0 {
		t.Fatalf("blocked user's feed has %d posts", len(feed.Posts))
	}
	if _, err := GetProfile(bob.ID, alice.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for blocked profile, got %v", err)
	}
	if _, err := SendMessage(bob.ID, alice.ID, "hi"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := SendMessage(alice.ID, bob.ID, "hi"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("block must apply both ways, got %v", err)
	}

	if err := UnblockUser(alice.ID, bob.ID); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	if _, err := GetPost(bob.ID, post.ID); err != nil {
		t.Fatalf("post should be visible after unblock: %v", err)
	}
}

func TestProfileVisibility(t *testing.T) {
	setupDB(t)
	alice := mustUser(t, "alice")
	bob := mustUser(t, "bob")
	mustPost(t, alice.ID, "friends only")

	settings := models.DefaultPrivacySettings()
	settings.ProfileVisibility = models.VisibilityAcquaintances
	settings.ShowTrustScore = false
	if err := UpdatePrivacySettings(alice.ID, settings); err != nil {
		t.Fatalf("update settings: %v", err)
	}

	profile, err := GetProfile(bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if !profile.Restricted || profile.TrustScore != 0 || profile.Email != "" {
		t.Fatalf("profile leaks private fields: %+v", profile)
	}
	feed, _ := Feed(bob.ID, FilterAll, 1)
	if len(feed.Posts) != 0 {
		t.Fatalf("non-acquaintance sees %d posts", len(feed.Posts))
	}

	RequestAcquaintance(alice.ID, bob.ID)
	RequestAcquaintance(bob.ID, alice.ID)
	feed, _ = Feed(bob.ID, FilterAcquaintances, 1)
	if len(feed.Posts) != 1 {
		t.Fatalf("acquaintance sees %d posts, want 1", len(feed.Posts))
	}

	settings.MessagePermission = "sometimes"
	if err := UpdatePrivacySettings(alice.ID, settings); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMessagesAndConversations(t *testing.T) {
	setupDB(t)
	alice := mustUser(t, "alice")
	bob := mustUser(t, "bob")

	first, err := SendMessage(alice.ID, bob.ID, "hi bob")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := SendMessage(alice.ID, bob.ID, "are you there?"); err != nil {
		t.Fatalf("send: %v", err)
	}

	convs, err := Conversations(bob.ID)
	if err != nil {
		t.Fatalf("conversations: %v", err)
	}
	if len(convs) != 1 || convs[0].UnreadCount != 2 || convs[0].LastMessage.Content != "are you there?" {
		t.Fatalf("unexpected conversations %+v", convs)
	}

	msgs, err := Thread(bob.ID, alice.ID, first.ID)
	if err != nil {
		t.Fatalf("thread: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "are you there?" {
		t.Fatalf("thread after %d returned %+v", first.ID, msgs)
	}
	convs, _ = Conversations(bob.ID)
	if convs[0].UnreadCount != 0 {
		t.Fatalf("opening the thread should mark messages read")
	}

	settings := models.DefaultPrivacySettings()
	settings.MessagePermission = models.MessagesNobody
	if err := UpdatePrivacySettings(bob.ID, settings); err != nil {
		t.Fatal(err)
	}
	if _, err := SendMessage(alice.ID, bob.ID, "hello?"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAdsLifecycle(t *testing.T) {
	setupDB(t)
	alice := mustUser(t, "alice")
	bob := mustUser(t, "bob")

	if _, err := CreateAd(alice.ID, "Big", "too expensive", "", 1000); !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if mine, _ := MyAds(alice.ID); len(mine) != 0 {
		t.Fatalf("failed ad must not be stored")
	}

	ad, err := CreateAd(alice.ID, "Glow", "shine on", "https://example.com", 2)
	if err != nil {
		t.Fatalf("create ad: %v", err)
	}
	u, _ := GetUserByID(alice.ID)
	if u.Credits != 98 {
		t.Fatalf("balance = %d, want 98", u.Credits)
	}

	if own, _ := ServeAds(alice.ID); len(own) != 0 {
		t.Fatalf("owners are not served their own ads")
	}
	for i := 0; i < 2; i++ {
		served, err := ServeAds(bob.ID)
		if err != nil || len(served) != 1 {
			t.Fatalf("serve %d: %v %+v", i, err, served)
		}
	}
	if served, _ := ServeAds(bob.ID); len(served) != 0 {
		t.Fatalf("exhausted ad was served")
	}

	mine, _ := MyAds(alice.ID)
	if mine[0].Status != models.AdExhausted || mine[0].Impressions != 2 || mine[0].Budget != 0 {
		t.Fatalf("unexpected ad stats %+v", mine[0])
	}
	notes, _ := ListNotifications(alice.ID, 10)
	if len(notes) != 1 || notes[0].Type != models.NotifyAdExhausted {
		t.Fatalf("expected an exhaustion notification, got %+v", notes)
	}

	if _, err := SetAdStatus(alice.ID, ad.ID, models.AdActive); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, err := SetAdStatus(bob.ID, ad.ID, models.AdPaused); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	res, err := ToggleAdReaction(bob.ID, ad.ID, "👏")
	if err != nil || !res.Added || res.State.Reactions["👏"] != 1 {
		t.Fatalf("ad reaction: %v %+v", err, res)
	}
	clicked, err := RecordAdClick(bob.ID, ad.ID)
	if err != nil || clicked.Clicks != 1 {
		t.Fatalf("click: %v %+v", err, clicked)
	}
}

func TestSessions(t *testing.T) {
	setupDB(t)
	alice := mustUser(t, "alice")

	s, err := CreateSession(alice.ID, time.Hour)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	u, err := SessionUser(s.UUID)
	if err != nil || u.ID != alice.ID {
		t.Fatalf("session user: %v %+v", err, u)
	}

	expired, _ := CreateSession(alice.ID, -time.Minute)
	if _, err := SessionUser(expired.UUID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired session, got %v", err)
	}

	if ok, _ := DeleteSession(s.UUID); !ok {
		t.Fatalf("delete should report an existing session")
	}
	if ok, _ := DeleteSession(s.UUID); ok {
		t.Fatalf("second delete should report nothing removed")
	}
}

func TestPurchaseCredits(t *testing.T) {
	setupDB(t)
	alice := mustUser(t, "alice")

	balance, err := PurchaseCredits(alice.ID, "glow")
	if err != nil || balance != 650 {
		t.Fatalf("purchase: %d %v", balance, err)
	}
	if _, err := PurchaseCredits(alice.ID, "nope"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestReactionSummariesAcrossEntities(t *testing.T) {
	setupDB(t)
	alice := mustUser(t, "alice")
	bob := mustUser(t, "bob")
	first := mustPost(t, alice.ID, "first")
	second := mustPost(t, alice.ID, "second")

	for _, r := range []struct {
		user, post int
		emoji      string
	}{
		{bob.ID, first.ID, "✨"},
		{alice.ID, first.ID, "✨"},
		{bob.ID, second.ID, "🔥"},
	} {
		if _, err := TogglePostReaction(r.user, r.post, r.emoji); err != nil {
			t.Fatalf("toggle: %v", err)
		}
	}

	states, err := ReactionStates(bob.ID, []int{first.ID, second.ID})
	if err != nil || len(states) != 2 {
		t.Fatalf("states = %+v, %v", states, err)
	}
	byPost := map[int]models.ReactionState{}
	for _, s := range states {
		byPost[s.PostID] = s
	}
	if byPost[first.ID].Reactions["✨"] != 2 || len(byPost[first.ID].UserReactions) != 1 {
		t.Fatalf("first post summary %+v", byPost[first.ID])
	}
	if byPost[second.ID].Reactions["🔥"] != 1 || byPost[second.ID].UserReactions[0] != "🔥" {
		t.Fatalf("second post summary %+v", byPost[second.ID])
	}

	ad, err := CreateAd(alice.ID, "Lamps", "Warm light", "", 5)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ToggleAdReaction(bob.ID, ad.ID, "👏"); err != nil {
		t.Fatal(err)
	}
	mine, err := MyAds(alice.ID)
	if err != nil || len(mine) != 1 || mine[0].Reactions["👏"] != 1 || len(mine[0].UserReactions) != 0 {
		t.Fatalf("my ads = %+v, %v", mine, err)
	}
}
