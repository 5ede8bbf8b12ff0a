package state

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"aura/internal/models"
)

// flipReaction toggles emoji and returns the radiance delta applied.
func flipReaction(counts map[string]int, mine *[]string, radiance *int, emoji string) int {
	next, added := models.ToggleReaction(counts, *mine, emoji)
	*mine = next
	if added {
		*radiance++
		return 1
	}
	if *radiance > 0 {
		*radiance--
		return -1
	}
	return 0
}

// ToggleReaction flips the current user's emoji on a loaded post right away,
// then confirms with the server. A failed call is undone by toggling again.
func (s *Store) ToggleReaction(ctx context.Context, postID int, emoji string) error {
	if !models.IsAllowedEmoji(emoji) {
		return fmt.Errorf("%w: unsupported reaction %q", ErrInvalidInput, emoji)
	}

	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return ErrNotLoggedIn
	}
	p := s.findPost(postID)
	if p == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: post %d", ErrNotLoaded, postID)
	}
	if p.Reactions == nil {
		p.Reactions = make(map[string]int)
	}
	delta := flipReaction(p.Reactions, &p.UserReactions, &p.Radiance, emoji)
	target := postKey(postID)
	pending := pendingPrefix(target, s.user.ID) + emoji
	s.inflight[target]++
	s.session.Set(pending, emoji)
	s.mu.Unlock()

	res, err := s.api.TogglePostReaction(ctx, postID, emoji)

	s.mu.Lock()
	s.inflight[target]--
	s.session.Delete(pending)
	if p = s.findPost(postID); p != nil {
		if err != nil {
			p.UserReactions, _ = models.ToggleReaction(p.Reactions, p.UserReactions, emoji)
			p.Radiance -= delta
		} else if s.inflight[target] == 0 {
			p.Reactions = res.Reactions
			p.UserReactions = res.UserReactions
			p.Radiance = res.Radiance
		}
	}
	if s.inflight[target] == 0 {
		delete(s.inflight, target)
	}
	s.mu.Unlock()

	if err != nil {
		s.alert("could not update reaction: %v", err)
		return fmt.Errorf("state: toggle reaction on post %d: %w", postID, err)
	}
	return nil
}

// ToggleAdReaction is ToggleReaction for ads.
func (s *Store) ToggleAdReaction(ctx context.Context, adID int, emoji string) error {
	if !models.IsAllowedEmoji(emoji) {
		return fmt.Errorf("%w: unsupported reaction %q", ErrInvalidInput, emoji)
	}

	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return ErrNotLoggedIn
	}
	ad := s.findAd(adID)
	if ad == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: ad %d", ErrNotLoaded, adID)
	}
	if ad.Reactions == nil {
		ad.Reactions = make(map[string]int)
	}
	ad.UserReactions, _ = models.ToggleReaction(ad.Reactions, ad.UserReactions, emoji)
	target := adKey(adID)
	pending := pendingPrefix(target, s.user.ID) + emoji
	s.inflight[target]++
	s.session.Set(pending, emoji)
	s.mu.Unlock()

	res, err := s.api.ToggleAdReaction(ctx, adID, emoji)

	s.mu.Lock()
	s.inflight[target]--
	s.session.Delete(pending)
	if ad = s.findAd(adID); ad != nil {
		if err != nil {
			ad.UserReactions, _ = models.ToggleReaction(ad.Reactions, ad.UserReactions, emoji)
		} else if s.inflight[target] == 0 {
			ad.Reactions = res.Reactions
			ad.UserReactions = res.UserReactions
		}
	}
	if s.inflight[target] == 0 {
		delete(s.inflight, target)
	}
	s.mu.Unlock()

	if err != nil {
		s.alert("could not update reaction: %v", err)
		return fmt.Errorf("state: toggle reaction on ad %d: %w", adID, err)
	}
	return nil
}

// AddComment shows a provisional comment under parentID (or at the top level)
// until the server answers, then swaps in the stored comment or drops it.
func (s *Store) AddComment(ctx context.Context, postID int, parentID *int, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: comment is empty", ErrInvalidInput)
	}

	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return nil, ErrNotLoggedIn
	}
	p := s.findPost(postID)
	if p == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: post %d", ErrNotLoaded, postID)
	}
	provisional := models.Comment{
		ID:        s.tempID(),
		PostID:    postID,
		UserID:    s.user.ID,
		ParentID:  parentID,
		Author:    s.user.Username,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	p.Comments = insertComment(p.Comments, parentID, provisional)
	p.CommentCount++
	target := postKey(postID)
	s.inflight[target]++
	s.mu.Unlock()

	c, err := s.api.AddComment(ctx, postID, parentID, content)

	s.mu.Lock()
	s.inflight[target]--
	if s.inflight[target] == 0 {
		delete(s.inflight, target)
	}
	if p = s.findPost(postID); p != nil {
		if err != nil {
			var removed bool
			p.Comments, removed = removeComment(p.Comments, provisional.ID)
			if removed && p.CommentCount > 0 {
				p.CommentCount--
			}
		} else if !replaceComment(p.Comments, provisional.ID, *c) {
			p.Comments = insertComment(p.Comments, parentID, *c)
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.alert("could not post comment: %v", err)
		return nil, fmt.Errorf("state: comment on post %d: %w", postID, err)
	}
	return c, nil
}

// BoostPost spends credits on a post. The balance drops and the radiance rises
// immediately; both are restored if the server refuses.
func (s *Store) BoostPost(ctx context.Context, postID, credits int) (*models.BoostReceipt, error) {
	if credits <= 0 {
		return nil, fmt.Errorf("%w: credits must be positive", ErrInvalidInput)
	}

	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return nil, ErrNotLoggedIn
	}
	if s.user.Credits < credits {
		balance := s.user.Credits
		s.mu.Unlock()
		s.alert("not enough Aura Credits: have %d, need %d", balance, credits)
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientCredits, balance, credits)
	}
	p := s.findPost(postID)
	if p == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: post %d", ErrNotLoaded, postID)
	}
	gain := credits * s.BoostRadiancePerCredit
	s.user.Credits -= credits
	p.Radiance += gain
	target := postKey(postID)
	s.inflight[target]++
	s.mu.Unlock()

	receipt, err := s.api.BoostPost(ctx, postID, credits)

	s.mu.Lock()
	s.inflight[target]--
	if s.user != nil {
		if err != nil {
			s.user.Credits += credits
		} else {
			s.user.Credits = receipt.Balance
		}
	}
	if p = s.findPost(postID); p != nil {
		if err != nil {
			p.Radiance -= gain
		} else {
			until := receipt.BoostedUntil
			p.BoostedUntil = &until
			if s.inflight[target] == 0 {
				p.Radiance = receipt.Radiance
			}
		}
	}
	if s.inflight[target] == 0 {
		delete(s.inflight, target)
	}
	s.mu.Unlock()

	if err != nil {
		s.alert("could not boost post: %v", err)
		return nil, fmt.Errorf("state: boost post %d: %w", postID, err)
	}
	return receipt, nil
}

// SendMessage appends a pending message to the thread with peerID and
// replaces it with the stored message once the server accepts it.
func (s *Store) SendMessage(ctx context.Context, peerID int, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > maxMessageRunes {
		return nil, fmt.Errorf("%w: message must be 1 to %d characters", ErrInvalidInput, maxMessageRunes)
	}

	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return nil, ErrNotLoggedIn
	}
	pending := models.Message{
		ID:          s.tempID(),
		SenderID:    s.user.ID,
		RecipientID: peerID,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
	}
	s.messages[peerID] = append(s.messages[peerID], pending)
	s.mu.Unlock()

	m, err := s.api.SendMessage(ctx, peerID, content)

	s.mu.Lock()
	thread := s.messages[peerID]
	if err != nil || containsMessage(thread, m.ID) {
		s.messages[peerID] = dropMessage(thread, pending.ID)
	} else {
		for i := range thread {
			if thread[i].ID == pending.ID {
				thread[i] = *m
			}
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.alert("could not send message: %v", err)
		return nil, fmt.Errorf("state: send message to %d: %w", peerID, err)
	}
	return m, nil
}

const maxMessageRunes = 1000

func insertComment(tree []models.Comment, parentID *int, c models.Comment) []models.Comment {
	if parentID == nil {
		return append(tree, c)
	}
	if added, ok := insertReply(tree, *parentID, c); ok {
		return added
	}
	return append(tree, c)
}

func insertReply(tree []models.Comment, parentID int, c models.Comment) ([]models.Comment, bool) {
	for i := range tree {
		if tree[i].ID == parentID {
			tree[i].Replies = append(tree[i].Replies, c)
			return tree, true
		}
		if _, ok := insertReply(tree[i].Replies, parentID, c); ok {
			return tree, true
		}
	}
	return tree, false
}

func replaceComment(tree []models.Comment, id int, c models.Comment) bool {
	for i := range tree {
		if tree[i].ID == id {
			c.Replies = tree[i].Replies
			tree[i] = c
			return true
		}
		if replaceComment(tree[i].Replies, id, c) {
			return true
		}
	}
	return false
}

func removeComment(tree []models.Comment, id int) ([]models.Comment, bool) {
	for i := range tree {
		if tree[i].ID == id {
			return append(tree[:i:i], tree[i+1:]...), true
		}
		if replies, ok := removeComment(tree[i].Replies, id); ok {
			tree[i].Replies = replies
			return tree, true
		}
	}
	return tree, false
}

func containsMessage(msgs []models.Message, id int) bool {
	for _, m := range msgs {
		if m.ID == id {
			return true
		}
	}
	return false
}

func dropMessage(msgs []models.Message, id int) []models.Message {
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}
