package models

import "time"

// Post is a feed entry with the viewer's reaction state and its comment tree.
type Post struct {
	ID            int            `json:"id"`
	UserID        int            `json:"user_id"`
	Author        string         `json:"author"`
	Content       string         `json:"content"`
	MediaURL      string         `json:"media_url,omitempty"`
	Radiance      int            `json:"radiance"`
	BoostedUntil  *time.Time     `json:"boosted_until,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	Reactions     map[string]int `json:"reactions"`
	UserReactions []string       `json:"user_reactions"`
	CommentCount  int            `json:"comment_count"`
	Comments      []Comment      `json:"comments,omitempty"`
}

// Boosted reports whether the post is boosted at t.
func (p *Post) Boosted(t time.Time) bool {
	return p.BoostedUntil != nil && p.BoostedUntil.After(t)
}

// FeedPage is one page of the feed.
type FeedPage struct {
	Posts      []Post `json:"posts"`
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
}
