package models

// AllowedEmojis is the fixed set of reactions a post or ad accepts.
var AllowedEmojis = []string{"✨", "❤️", "🔥", "😂", "😮", "😢", "👏"}

// IsAllowedEmoji reports whether emoji is one of AllowedEmojis.
func IsAllowedEmoji(emoji string) bool {
	for _, e := range AllowedEmojis {
		if e == emoji {
			return true
		}
	}
	return false
}

// ReactionState is the authoritative reaction summary of one post or ad for the viewer.
type ReactionState struct {
	PostID        int            `json:"post_id,omitempty"`
	AdID          int            `json:"ad_id,omitempty"`
	Reactions     map[string]int `json:"reactions"`
	UserReactions []string       `json:"user_reactions"`
	Radiance      int            `json:"radiance"`
}

// ToggleReaction flips emoji in userReactions and adjusts counts accordingly.
// It returns the new membership list and whether the emoji was added.
// Counts never drop below zero and zero entries are removed.
func ToggleReaction(counts map[string]int, userReactions []string, emoji string) ([]string, bool) {
	for i, e := range userReactions {
		if e == emoji {
			next := make([]string, 0, len(userReactions)-1)
			next = append(next, userReactions[:i]...)
			next = append(next, userReactions[i+1:]...)
			if counts[emoji] > 1 {
				counts[emoji]--
			} else {
				delete(counts, emoji)
			}
			return next, false
		}
	}
	next := make([]string, 0, len(userReactions)+1)
	next = append(next, userReactions...)
	next = append(next, emoji)
	counts[emoji]++
	return next, true
}

// ReactionToggle is the server's answer to a reaction toggle.
type ReactionToggle struct {
	ReactionState
	Added bool `json:"added"`
}
