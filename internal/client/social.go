package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"aura/internal/models"
)

// SearchUsers finds users by name.
func (c *Client) SearchUsers(ctx context.Context, q string) ([]models.User, error) {
	var users []models.User
	err := c.do(ctx, http.MethodGet, "/api/users?q="+url.QueryEscape(q), nil, &users)
	return users, err
}

// Profile returns another user's profile.
func (c *Client) Profile(ctx context.Context, id int) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/users/%d", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile replaces the editable profile fields.
func (c *Client) UpdateProfile(ctx context.Context, displayName, bio, avatarURL string) (*models.User, error) {
	var u models.User
	body := map[string]string{"display_name": displayName, "bio": bio, "avatar_url": avatarURL}
	if err := c.do(ctx, http.MethodPut, "/api/users/me", body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Acquaintances lists acquaintances and pending requests.
func (c *Client) Acquaintances(ctx context.Context) (*models.Acquaintances, error) {
	var a models.Acquaintances
	if err := c.do(ctx, http.MethodGet, "/api/users/me/acquaintances", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// RequestAcquaintance sends or accepts an acquaintance request and returns the new relationship.
func (c *Client) RequestAcquaintance(ctx context.Context, id int) (string, error) {
	var res struct {
		Relationship string `json:"relationship"`
	}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/users/%d/acquaintance", id), nil, &res)
	return res.Relationship, err
}

// RemoveAcquaintance removes an acquaintance or pending request.
func (c *Client) RemoveAcquaintance(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/users/%d/acquaintance", id), nil, nil)
}

// Conversations lists message threads.
func (c *Client) Conversations(ctx context.Context) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := c.do(ctx, http.MethodGet, "/api/messages/conversations", nil, &convs)
	return convs, err
}

// Thread returns the messages with peerID newer than message afterID.
func (c *Client) Thread(ctx context.Context, peerID, afterID int) ([]models.Message, error) {
	var msgs []models.Message
	path := fmt.Sprintf("/api/messages/%d", peerID)
	if afterID > 0 {
		path += fmt.Sprintf("?after=%d", afterID)
	}
	err := c.do(ctx, http.MethodGet, path, nil, &msgs)
	return msgs, err
}

// SendMessage sends a direct message.
func (c *Client) SendMessage(ctx context.Context, peerID int, content string) (*models.Message, error) {
	var m models.Message
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/messages/%d", peerID), body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// PrivacySettings returns the privacy settings.
func (c *Client) PrivacySettings(ctx context.Context) (*models.PrivacySettings, error) {
	var s models.PrivacySettings
	if err := c.do(ctx, http.MethodGet, "/api/privacy/settings", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdatePrivacySettings replaces the privacy settings.
func (c *Client) UpdatePrivacySettings(ctx context.Context, s models.PrivacySettings) error {
	return c.do(ctx, http.MethodPut, "/api/privacy/settings", s, nil)
}

// BlockedUsers lists blocked users.
func (c *Client) BlockedUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := c.do(ctx, http.MethodGet, "/api/privacy/blocks", nil, &users)
	return users, err
}

// Block blocks a user.
func (c *Client) Block(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/privacy/blocks/%d", id), nil, nil)
}

// Unblock lifts a block.
func (c *Client) Unblock(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/privacy/blocks/%d", id), nil, nil)
}

// Notifications returns the latest notifications.
func (c *Client) Notifications(ctx context.Context) ([]models.Notification, error) {
	var notes []models.Notification
	err := c.do(ctx, http.MethodGet, "/api/notifications", nil, &notes)
	return notes, err
}

// MarkAllNotificationsRead marks every notification read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/read", nil, nil)
}

// MarkNotificationRead marks one notification read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/notifications/%d/read", id), nil, nil)
}
