package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"aura/internal/cache"
	"aura/internal/models"
)

var (
	ErrNotLoggedIn         = errors.New("state: not logged in")
	ErrNotLoaded           = errors.New("state: not loaded")
	ErrInvalidInput        = errors.New("state: invalid input")
	ErrInsufficientCredits = errors.New("state: insufficient credits")
)

// TokenKey is the local storage key of the session token.
const TokenKey = "session_token"

// API is the part of the REST client the store drives.
type API interface {
	Logout(ctx context.Context) error
	Feed(ctx context.Context, filter string, page int) (*models.FeedPage, error)
	Post(ctx context.Context, id int) (*models.Post, error)
	Ads(ctx context.Context) ([]models.Ad, error)
	TogglePostReaction(ctx context.Context, postID int, emoji string) (*models.ReactionToggle, error)
	ToggleAdReaction(ctx context.Context, adID int, emoji string) (*models.ReactionToggle, error)
	AddComment(ctx context.Context, postID int, parentID *int, content string) (*models.Comment, error)
	BoostPost(ctx context.Context, postID, credits int) (*models.BoostReceipt, error)
	SendMessage(ctx context.Context, peerID int, content string) (*models.Message, error)
}

// Storage is durable key/value storage such as cache.Local.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Store holds the application-wide client state. The mutex is never held
// across a network call.
type Store struct {
	api     API
	session *cache.Session
	local   Storage
	logger  *log.Logger

	// Alert, when set, receives every user-facing error message.
	Alert func(msg string)
	// BoostRadiancePerCredit is the optimistic radiance gained per credit.
	BoostRadiancePerCredit int

	mu            sync.Mutex
	user          *models.User
	posts         []models.Post
	ads           []models.Ad
	notifications []models.Notification
	conversations []models.Conversation
	messages      map[int][]models.Message
	activePeer    int
	inflight      map[string]int
	lastTempID    int
}

// New returns an empty store. local may be nil, in which case nothing is
// persisted.
func New(api API, session *cache.Session, local Storage, logger *log.Logger) *Store {
	if session == nil {
		session = cache.NewSession()
	}
	return &Store{
		api:                    api,
		session:                session,
		local:                  local,
		logger:                 logger,
		BoostRadiancePerCredit: 1,
		messages:               make(map[int][]models.Message),
		inflight:               make(map[string]int),
	}
}

// alert logs msg and hands it to the Alert callback. Call without holding mu.
func (s *Store) alert(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	s.logger.Printf("ERROR: %s", msg)
	if s.Alert != nil {
		s.Alert(msg)
	}
}

// SetUser makes u the current user.
func (s *Store) SetUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.user = &cp
}

// User returns a copy of the current user, or nil when logged out.
func (s *Store) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	cp := *s.user
	return &cp
}

// Logout ends the server session and discards all state, the session cache,
// the stored token and the user's cached snapshot.
func (s *Store) Logout(ctx context.Context) error {
	err := s.api.Logout(ctx)
	if err != nil {
		s.logger.Printf("WARNING: logout request failed: %v", err)
	}

	s.mu.Lock()
	userID := 0
	if s.user != nil {
		userID = s.user.ID
	}
	s.user = nil
	s.posts = nil
	s.ads = nil
	s.notifications = nil
	s.conversations = nil
	s.messages = make(map[int][]models.Message)
	s.activePeer = 0
	s.inflight = make(map[string]int)
	s.mu.Unlock()

	s.session.Clear()
	if s.local != nil {
		if derr := s.local.Delete(TokenKey); derr != nil {
			s.logger.Printf("WARNING: failed to drop stored token: %v", derr)
		}
		if userID != 0 {
			if derr := s.local.Delete(stateKey(userID)); derr != nil {
				s.logger.Printf("WARNING: failed to drop cached state: %v", derr)
			}
		}
	}
	return err
}

// LoadFeed fetches one feed page and replaces the loaded posts with it. Posts
// with an optimistic edit in flight keep their local reaction state.
func (s *Store) LoadFeed(ctx context.Context, filter string, page int) (*models.FeedPage, error) {
	fp, err := s.api.Feed(ctx, filter, page)
	if err != nil {
		s.alert("could not load feed: %v", err)
		return nil, fmt.Errorf("state: load feed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	posts := make([]models.Post, 0, len(fp.Posts))
	for _, p := range fp.Posts {
		if local := s.findPost(p.ID); local != nil {
			s.keepLocalEdits(local, &p)
		}
		posts = append(posts, p)
	}
	s.posts = posts
	fp.Posts = clonePosts(posts)
	return fp, nil
}

// LoadPost fetches a post with its comment tree into the store.
func (s *Store) LoadPost(ctx context.Context, id int) (*models.Post, error) {
	p, err := s.api.Post(ctx, id)
	if err != nil {
		s.alert("could not load post: %v", err)
		return nil, fmt.Errorf("state: load post %d: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	local := s.findPost(id)
	if local == nil {
		s.posts = append(s.posts, *p)
	} else {
		s.keepLocalEdits(local, p)
		*local = *p
	}
	return clonePost(*s.findPost(id)), nil
}

// keepLocalEdits carries the optimistic state of local into fresh, a newer
// server copy of the same post. Provisional comments stay at their parent
// and keep counting towards comment_count.
func (s *Store) keepLocalEdits(local, fresh *models.Post) {
	if fresh.Comments == nil {
		fresh.Comments = local.Comments
		fresh.CommentCount += len(provisionalComments(local.Comments))
	} else {
		for _, c := range provisionalComments(local.Comments) {
			fresh.Comments = insertComment(fresh.Comments, c.ParentID, c)
			fresh.CommentCount++
		}
	}
	if s.busy(postKey(local.ID)) {
		fresh.Reactions = local.Reactions
		fresh.UserReactions = local.UserReactions
		fresh.Radiance = local.Radiance
	}
}

// LoadAds fetches the ads to display.
func (s *Store) LoadAds(ctx context.Context) ([]models.Ad, error) {
	ads, err := s.api.Ads(ctx)
	if err != nil {
		s.alert("could not load ads: %v", err)
		return nil, fmt.Errorf("state: load ads: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ads = ads
	out := make([]models.Ad, len(ads))
	for i := range ads {
		out[i] = cloneAd(ads[i])
	}
	return out, nil
}

func (s *Store) Posts() []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePosts(s.posts)
}

// Post returns a loaded post, or nil.
func (s *Store) Post(id int) *models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findPost(id); p != nil {
		return clonePost(*p)
	}
	return nil
}

// PostIDs lists the ids of the loaded posts.
func (s *Store) PostIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, len(s.posts))
	for i, p := range s.posts {
		ids[i] = p.ID
	}
	return ids
}

func (s *Store) Ads() []models.Ad {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Ad, len(s.ads))
	for i := range s.ads {
		out[i] = cloneAd(s.ads[i])
	}
	return out
}

func (s *Store) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.notifications...)
}

func (s *Store) Conversations() []models.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Conversation(nil), s.conversations...)
}

// Messages returns the thread with peerID, pending messages included.
func (s *Store) Messages(peerID int) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages[peerID]...)
}

// OpenConversation selects the thread the message poller refreshes.
func (s *Store) OpenConversation(peerID int) {
	s.mu.Lock()
	s.activePeer = peerID
	s.mu.Unlock()
}

// ActivePeer returns the open conversation's peer, or 0.
func (s *Store) ActivePeer() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activePeer
}

// snapshot is the persisted form of the store.
type snapshot struct {
	User          *models.User             `json:"user"`
	Posts         []models.Post            `json:"posts"`
	Ads           []models.Ad              `json:"ads"`
	Notifications []models.Notification    `json:"notifications"`
	Conversations []models.Conversation    `json:"conversations"`
	Messages      map[int][]models.Message `json:"messages"`
}

func stateKey(userID int) string {
	return fmt.Sprintf("state:%d", userID)
}

// Save writes the confirmed state of the current user to local storage.
// Provisional comments and pending messages are left out.
func (s *Store) Save() error {
	if s.local == nil {
		return nil
	}

	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return ErrNotLoggedIn
	}
	snap := snapshot{
		User:          s.user,
		Posts:         make([]models.Post, 0, len(s.posts)),
		Ads:           s.ads,
		Notifications: s.notifications,
		Conversations: s.conversations,
		Messages:      make(map[int][]models.Message, len(s.messages)),
	}
	for _, p := range s.posts {
		p.Comments = confirmedComments(p.Comments)
		snap.Posts = append(snap.Posts, p)
	}
	for peer, msgs := range s.messages {
		snap.Messages[peer] = confirmedMessages(msgs)
	}
	buf, err := json.Marshal(snap)
	key := stateKey(s.user.ID)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("state: encode snapshot: %w", err)
	}
	if err := s.local.Set(key, string(buf)); err != nil {
		return fmt.Errorf("state: save: %w", err)
	}
	return nil
}

// Restore loads the cached state of userID. It reports false when nothing
// was cached.
func (s *Store) Restore(userID int) (bool, error) {
	if s.local == nil {
		return false, nil
	}
	raw, err := s.local.Get(stateKey(userID))
	if errors.Is(err, cache.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("state: restore: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return false, fmt.Errorf("state: decode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = snap.User
	s.posts = snap.Posts
	s.ads = snap.Ads
	s.notifications = snap.Notifications
	s.conversations = snap.Conversations
	s.messages = snap.Messages
	if s.messages == nil {
		s.messages = make(map[int][]models.Message)
	}
	return true, nil
}

func (s *Store) findPost(id int) *models.Post {
	for i := range s.posts {
		if s.posts[i].ID == id {
			return &s.posts[i]
		}
	}
	return nil
}

func (s *Store) findAd(id int) *models.Ad {
	for i := range s.ads {
		if s.ads[i].ID == id {
			return &s.ads[i]
		}
	}
	return nil
}

// tempID hands out negative ids for provisional entities.
func (s *Store) tempID() int {
	s.lastTempID--
	return s.lastTempID
}

func postKey(id int) string { return fmt.Sprintf("post:%d", id) }
func adKey(id int) string   { return fmt.Sprintf("ad:%d", id) }

// pendingPrefix is the session cache prefix of a target's pending reaction toggles.
func pendingPrefix(target string, userID int) string {
	return fmt.Sprintf("pending-reaction:%s:user:%d:", target, userID)
}

// busy reports whether target has an optimistic edit in flight or a pending
// toggle recorded in the session cache.
func (s *Store) busy(target string) bool {
	if s.inflight[target] > 0 {
		return true
	}
	if s.user == nil {
		return false
	}
	return s.session.Has(pendingPrefix(target, s.user.ID))
}

func clonePost(p models.Post) *models.Post {
	p.Reactions = cloneCounts(p.Reactions)
	p.UserReactions = append([]string{}, p.UserReactions...)
	p.Comments = cloneComments(p.Comments)
	return &p
}

func clonePosts(posts []models.Post) []models.Post {
	out := make([]models.Post, len(posts))
	for i := range posts {
		out[i] = *clonePost(posts[i])
	}
	return out
}

func cloneAd(a models.Ad) models.Ad {
	a.Reactions = cloneCounts(a.Reactions)
	a.UserReactions = append([]string{}, a.UserReactions...)
	return a
}

func cloneCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneComments(cs []models.Comment) []models.Comment {
	if cs == nil {
		return nil
	}
	out := make([]models.Comment, len(cs))
	for i, c := range cs {
		c.Replies = cloneComments(c.Replies)
		out[i] = c
	}
	return out
}

func confirmedComments(cs []models.Comment) []models.Comment {
	if cs == nil {
		return nil
	}
	out := make([]models.Comment, 0, len(cs))
	for _, c := range cs {
		if c.ID < 0 {
			continue
		}
		c.Replies = confirmedComments(c.Replies)
		out = append(out, c)
	}
	return out
}

// provisionalComments lists the comments of a tree still waiting for the
// server, replies included.
func provisionalComments(cs []models.Comment) []models.Comment {
	var out []models.Comment
	for _, c := range cs {
		replies := c.Replies
		if c.ID < 0 {
			c.Replies = nil
			out = append(out, c)
		}
		out = append(out, provisionalComments(replies)...)
	}
	return out
}

func confirmedMessages(msgs []models.Message) []models.Message {
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.ID > 0 {
			out = append(out, m)
		}
	}
	return out
}
