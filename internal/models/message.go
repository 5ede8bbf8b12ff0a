package models

import "time"

type Message struct {
	ID          int        `json:"id"`
	SenderID    int        `json:"sender_id"`
	RecipientID int        `json:"recipient_id"`
	Content     string     `json:"content"`
	CreatedAt   time.Time  `json:"created_at"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
}

// Conversation summarizes the thread between the viewer and one peer.
type Conversation struct {
	Peer          User      `json:"peer"`
	LastMessage   Message   `json:"last_message"`
	UnreadCount   int       `json:"unread_count"`
	LastMessageAt time.Time `json:"last_message_at"`
}
