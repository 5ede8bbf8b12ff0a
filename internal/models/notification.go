package models

import "time"

// Notification types.
const (
	NotifyReaction             = "reaction"
	NotifyComment              = "comment"
	NotifyReply                = "reply"
	NotifyMessage              = "message"
	NotifyAcquaintanceRequest  = "acquaintance_request"
	NotifyAcquaintanceAccepted = "acquaintance_accepted"
	NotifyBoost                = "boost"
	NotifyAdExhausted          = "ad_exhausted"
)

type Notification struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Type      string    `json:"type"`
	ActorID   *int      `json:"actor_id,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	PostID    *int      `json:"post_id,omitempty"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
