package models

import "time"

// User is an Aura account as served to clients. Password is never serialized.
type User struct {
	ID          int       `json:"id"`
	Email       string    `json:"email,omitempty"`
	Username    string    `json:"username"`
	Password    string    `json:"-"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`
	AvatarURL   string    `json:"avatar_url"`
	Credits     int       `json:"credits"`
	TrustScore  int       `json:"trust_score"`
	CreatedAt   time.Time `json:"created_at"`
}

// Profile is another user's profile as the viewer is allowed to see it.
type Profile struct {
	User
	Relationship  string `json:"relationship"` // self, acquaintance, requested, pending, none, blocked
	Acquaintances []User `json:"acquaintances,omitempty"`
	PostCount     int    `json:"post_count"`
	Restricted    bool   `json:"restricted"`
}

// Relationship values reported on a Profile.
const (
	RelationSelf         = "self"
	RelationAcquaintance = "acquaintance"
	RelationRequested    = "requested" // viewer sent a request
	RelationPending      = "pending"   // the other user sent a request
	RelationNone         = "none"
	RelationBlocked      = "blocked"
)

// Acquaintances groups the viewer's relationship lists.
type Acquaintances struct {
	Acquaintances []User `json:"acquaintances"`
	Incoming      []User `json:"incoming"`
	Outgoing      []User `json:"outgoing"`
}
