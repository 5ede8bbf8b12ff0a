package models

import "time"

// Ad statuses.
const (
	AdActive    = "active"
	AdPaused    = "paused"
	AdExhausted = "exhausted"
)

// Ad is a sponsored entry funded from its owner's Aura Credits.
type Ad struct {
	ID            int            `json:"id"`
	OwnerID       int            `json:"owner_id"`
	Owner         string         `json:"owner"`
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	LinkURL       string         `json:"link_url,omitempty"`
	Budget        int            `json:"budget"`
	Impressions   int            `json:"impressions"`
	Clicks        int            `json:"clicks"`
	Status        string         `json:"status"`
	Reactions     map[string]int `json:"reactions"`
	UserReactions []string       `json:"user_reactions"`
	CreatedAt     time.Time      `json:"created_at"`
}
