package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"aura/internal/models"
)

// Feed returns one page of the feed.
func (c *Client) Feed(ctx context.Context, filter string, page int) (*models.FeedPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if filter != "" {
		q.Set("filter", filter)
	}
	var fp models.FeedPage
	if err := c.do(ctx, http.MethodGet, "/api/posts?"+q.Encode(), nil, &fp); err != nil {
		return nil, err
	}
	return &fp, nil
}

// CreatePost publishes a post.
func (c *Client) CreatePost(ctx context.Context, content, mediaURL string) (*models.Post, error) {
	var p models.Post
	body := map[string]string{"content": content, "media_url": mediaURL}
	if err := c.do(ctx, http.MethodPost, "/api/posts", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Post returns a post with its comments.
func (c *Client) Post(ctx context.Context, id int) (*models.Post, error) {
	var p models.Post
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/posts/%d", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePost deletes an own post.
func (c *Client) DeletePost(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/posts/%d", id), nil, nil)
}

// ReactionStates fetches the current reaction summaries of posts.
func (c *Client) ReactionStates(ctx context.Context, ids []int) ([]models.ReactionState, error) {
	if len(ids) == 0 {
		return []models.ReactionState{}, nil
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	var states []models.ReactionState
	err := c.do(ctx, http.MethodGet, "/api/posts/reactions?ids="+strings.Join(parts, ","), nil, &states)
	return states, err
}

// TogglePostReaction toggles an emoji on a post.
func (c *Client) TogglePostReaction(ctx context.Context, postID int, emoji string) (*models.ReactionToggle, error) {
	var t models.ReactionToggle
	body := map[string]string{"emoji": emoji}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/posts/%d/reactions", postID), body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// AddComment comments on a post, or replies to parentID when it is non-nil.
func (c *Client) AddComment(ctx context.Context, postID int, parentID *int, content string) (*models.Comment, error) {
	var cm models.Comment
	body := map[string]interface{}{"content": content, "parent_id": parentID}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", postID), body, &cm); err != nil {
		return nil, err
	}
	return &cm, nil
}

// DeleteComment deletes an own comment.
func (c *Client) DeleteComment(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/comments/%d", id), nil, nil)
}

// BoostPost spends credits on a post.
func (c *Client) BoostPost(ctx context.Context, postID, credits int) (*models.BoostReceipt, error) {
	var r models.BoostReceipt
	body := map[string]int{"credits": credits}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/posts/%d/boost", postID), body, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
