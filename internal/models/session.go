package models

import "time"

type Session struct {
	ID      int
	UserID  int
	UUID    string
	Expires time.Time
}

// LoginResult is returned by a successful login. Token is also set as the session cookie.
type LoginResult struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Ticket authorizes one analytics WebSocket connection.
type Ticket struct {
	Ticket    string    `json:"ticket"`
	ExpiresAt time.Time `json:"expires_at"`
}
