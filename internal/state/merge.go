package state

import "aura/internal/models"

// MergeReactions applies polled reaction states to loaded posts and ads.
// Entities with an optimistic edit in flight or a pending toggle keep their
// local state.
func (s *Store) MergeReactions(states []models.ReactionState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range states {
		switch {
		case st.PostID != 0:
			p := s.findPost(st.PostID)
			if p == nil || s.busy(postKey(st.PostID)) {
				continue
			}
			p.Reactions = st.Reactions
			p.UserReactions = st.UserReactions
			p.Radiance = st.Radiance
		case st.AdID != 0:
			ad := s.findAd(st.AdID)
			if ad == nil || s.busy(adKey(st.AdID)) {
				continue
			}
			ad.Reactions = st.Reactions
			ad.UserReactions = st.UserReactions
		}
	}
}

// MergeMessages applies a polled thread with peerID and returns the messages
// that were not known before. A server list that is shorter than the
// confirmed local thread and brings nothing newer is ignored. Pending
// messages stay at the end of the thread.
func (s *Store) MergeMessages(peerID int, server []models.Message) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	local := s.messages[peerID]
	confirmed := confirmedMessages(local)
	if len(server) < len(confirmed) && lastMessageID(server) <= lastMessageID(confirmed) {
		return nil
	}

	known := make(map[int]bool, len(confirmed))
	for _, m := range confirmed {
		known[m.ID] = true
	}
	var fresh []models.Message
	merged := make([]models.Message, 0, len(server)+len(local)-len(confirmed))
	for _, m := range server {
		if !known[m.ID] {
			fresh = append(fresh, m)
		}
		merged = append(merged, m)
	}
	for _, m := range local {
		if m.ID < 0 {
			merged = append(merged, m)
		}
	}
	s.messages[peerID] = merged
	return fresh
}

// MergeConversations replaces the conversation list.
func (s *Store) MergeConversations(convs []models.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = convs
}

// MergeNotifications replaces the notification list and returns the
// notifications that were not known before.
func (s *Store) MergeNotifications(notes []models.Notification) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[int]bool, len(s.notifications))
	for _, n := range s.notifications {
		known[n.ID] = true
	}
	var fresh []models.Notification
	for _, n := range notes {
		if !known[n.ID] {
			fresh = append(fresh, n)
		}
	}
	s.notifications = notes
	return fresh
}

func lastMessageID(msgs []models.Message) int {
	last := 0
	for _, m := range msgs {
		if m.ID > last {
			last = m.ID
		}
	}
	return last
}
