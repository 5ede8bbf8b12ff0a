package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"aura/config"
	"aura/internal/auth"
	"aura/internal/database"
	"aura/internal/models"

	"github.com/gorilla/mux"
)

type fakeHub struct {
	mu     sync.Mutex
	events map[int][]models.AnalyticsEvent
}

func (h *fakeHub) Publish(userID int, event models.AnalyticsEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.events == nil {
		h.events = make(map[int][]models.AnalyticsEvent)
	}
	h.events[userID] = append(h.events[userID], event)
}

func (h *fakeHub) ServeWS(w http.ResponseWriter, r *http.Request, userID int) {
	w.WriteHeader(http.StatusSwitchingProtocols)
}

type fakeTickets struct{}

func (fakeTickets) Issue(userID int) (string, time.Time, error) {
	return fmt.Sprintf("ticket-%d", userID), time.Now().Add(time.Minute), nil
}

func (fakeTickets) Verify(ticket string) (int, error) {
	var id int
	if _, err := fmt.Sscanf(ticket, "ticket-%d", &id); err != nil {
		return 0, errors.New("bad ticket")
	}
	return id, nil
}

func setup(t *testing.T) (*API, *fakeHub) {
	t.Helper()
	cfg := config.Default(":memory:?_foreign_keys=on")
	if err := database.InitDB(cfg); err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { database.DB.Close() })
	hub := &fakeHub{}
	return New(cfg, hub, fakeTickets{}, log.New(io.Discard, "", 0)), hub
}

func mustUser(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := auth.RegisterUser(name+"@example.com", name, "password1", 100)
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return u
}

// call runs h as user with the given JSON body and route variables.
func call(h http.HandlerFunc, user *models.User, method, target string, body interface{}, vars map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	if user != nil {
		req = req.WithContext(auth.WithUser(req.Context(), user))
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{database.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", database.ErrForbidden), http.StatusForbidden},
		{database.ErrInvalidInput, http.StatusBadRequest},
		{auth.ErrInvalidInput, http.StatusBadRequest},
		{database.ErrConflict, http.StatusConflict},
		{auth.ErrUsernameExists, http.StatusConflict},
		{database.ErrInsufficientCredits, http.StatusPaymentRequired},
		{auth.ErrSessionNotFound, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := statusFor(c.err); got != c.want {
			t.Errorf("statusFor(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestCheckTextCountsRunes(t *testing.T) {
	if _, err := checkText("comment", strings.Repeat("✨", maxCommentRunes), maxCommentRunes, true); err != nil {
		t.Fatalf("%d runes should fit: %v", maxCommentRunes, err)
	}
	if _, err := checkText("comment", strings.Repeat("a", maxCommentRunes+1), maxCommentRunes, true); !errors.Is(err, database.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := checkText("comment", "   ", maxCommentRunes, true); !errors.Is(err, database.ErrInvalidInput) {
		t.Fatalf("blank text must be rejected")
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs("3, 1,3", 10)
	if err != nil || len(ids) != 2 || ids[0] != 3 || ids[1] != 1 {
		t.Fatalf("parseIDs = %v, %v", ids, err)
	}
	if _, err := parseIDs("1,x", 10); err == nil {
		t.Fatalf("expected error for non-numeric id")
	}
	if _, err := parseIDs("1,2,3", 2); err == nil {
		t.Fatalf("expected error for too many ids")
	}
}

func TestReactionPublishesToOwner(t *testing.T) {
	api, hub := setup(t)
	alice := mustUser(t, "alice")
	bob := mustUser(t, "bob")

	rec := call(api.CreatePost, alice, http.MethodPost, "/api/posts", map[string]string{"content": "hello aura"}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create post: %d %s", rec.Code, rec.Body)
	}
	var post models.Post
	json.NewDecoder(rec.Body).Decode(&post)
	vars := map[string]string{"id": fmt.Sprint(post.ID)}

	rec = call(api.TogglePostReaction, bob, http.MethodPost, "/", map[string]string{"emoji": "🔥"}, vars)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: %d %s", rec.Code, rec.Body)
	}
	var toggle models.ReactionToggle
	json.NewDecoder(rec.Body).Decode(&toggle)
	if !toggle.Added || toggle.Reactions["🔥"] != 1 || toggle.Radiance != 1 {
		t.Fatalf("unexpected toggle %+v", toggle)
	}

	events := hub.events[alice.ID]
	if len(events) != 1 || events[0].Type != models.EventReaction || events[0].ActorID != bob.ID {
		t.Fatalf("owner should get one reaction event, got %+v", events)
	}

	rec = call(api.TogglePostReaction, bob, http.MethodPost, "/", map[string]string{"emoji": "🍕"}, vars)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown emoji got %d", rec.Code)
	}
}

func TestCommentAndBoostHandlers(t *testing.T) {
	api, hub := setup(t)
	alice := mustUser(t, "alice")
	bob := mustUser(t, "bob")
	post, err := database.CreatePost(alice.ID, "boost me", "")
	if err != nil {
		t.Fatal(err)
	}
	vars := map[string]string{"id": fmt.Sprint(post.ID)}

	rec := call(api.CreateComment, bob, http.MethodPost, "/", map[string]interface{}{"content": strings.Repeat("x", maxCommentRunes+1)}, vars)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized comment got %d", rec.Code)
	}
	rec = call(api.CreateComment, bob, http.MethodPost, "/", map[string]interface{}{"content": "lovely"}, vars)
	if rec.Code != http.StatusCreated {
		t.Fatalf("comment: %d %s", rec.Code, rec.Body)
	}

	rec = call(api.BoostPost, bob, http.MethodPost, "/", map[string]int{"credits": 1000}, vars)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("boost beyond balance got %d", rec.Code)
	}
	rec = call(api.BoostPost, bob, http.MethodPost, "/", map[string]int{"credits": 10}, vars)
	if rec.Code != http.StatusOK {
		t.Fatalf("boost: %d %s", rec.Code, rec.Body)
	}
	var receipt models.BoostReceipt
	json.NewDecoder(rec.Body).Decode(&receipt)
	if receipt.Balance != 90 || receipt.Radiance != 10 {
		t.Fatalf("unexpected receipt %+v", receipt)
	}

	events := hub.events[alice.ID]
	if len(events) != 2 || events[0].Type != models.EventComment || events[1].Type != models.EventBoost {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestMessagingForbidden(t *testing.T) {
	api, _ := setup(t)
	alice := mustUser(t, "alice")
	bob := mustUser(t, "bob")

	settings := models.DefaultPrivacySettings()
	settings.MessagePermission = models.MessagesAcquaintances
	rec := call(api.UpdatePrivacySettings, bob, http.MethodPut, "/", settings, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("privacy: %d %s", rec.Code, rec.Body)
	}

	vars := map[string]string{"userID": fmt.Sprint(bob.ID)}
	rec = call(api.SendMessage, alice, http.MethodPost, "/", map[string]string{"content": "hi"}, vars)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("message to non-acquaintance got %d", rec.Code)
	}

	rec = call(api.Thread, alice, http.MethodGet, "/?since=abc", nil, vars)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad cursor got %d", rec.Code)
	}
}

func TestAnalyticsStreamRequiresTicket(t *testing.T) {
	api, _ := setup(t)

	rec := call(api.AnalyticsStream, nil, http.MethodGet, "/ws/analytics?ticket=nope", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("invalid ticket got %d", rec.Code)
	}
	rec = call(api.AnalyticsStream, nil, http.MethodGet, "/ws/analytics?ticket=ticket-3", nil, nil)
	if rec.Code != http.StatusSwitchingProtocols {
		t.Fatalf("valid ticket got %d", rec.Code)
	}
}
