package models

import "time"

// Analytics event types pushed over the live analytics channel.
const (
	EventReaction = "reaction"
	EventComment  = "comment"
	EventBoost    = "boost"
	EventAdClick  = "ad_click"
)

// AnalyticsEvent is one engagement change on content the receiver owns.
type AnalyticsEvent struct {
	Type      string         `json:"type"`
	PostID    int            `json:"post_id,omitempty"`
	AdID      int            `json:"ad_id,omitempty"`
	ActorID   int            `json:"actor_id"`
	Radiance  int            `json:"radiance"`
	Reactions map[string]int `json:"reactions,omitempty"`
	At        time.Time      `json:"at"`
}

// AnalyticsSummary totals engagement across the viewer's posts.
type AnalyticsSummary struct {
	Posts             int `json:"posts"`
	TotalRadiance     int `json:"total_radiance"`
	ReactionsReceived int `json:"reactions_received"`
	CommentsReceived  int `json:"comments_received"`
	Acquaintances     int `json:"acquaintances"`
}
