package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"aura/internal/models"

	"github.com/gorilla/websocket"
)

// AnalyticsSummary returns totals over own posts.
func (c *Client) AnalyticsSummary(ctx context.Context) (*models.AnalyticsSummary, error) {
	var s models.AnalyticsSummary
	if err := c.do(ctx, http.MethodGet, "/api/analytics/summary", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// AnalyticsTicket requests a ticket for the live analytics stream.
func (c *Client) AnalyticsTicket(ctx context.Context) (*models.Ticket, error) {
	var t models.Ticket
	if err := c.do(ctx, http.MethodPost, "/api/analytics/ticket", nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// StreamAnalytics dials the live analytics WebSocket with a fresh ticket and
// calls fn for every event until ctx is cancelled or the server hangs up.
func (c *Client) StreamAnalytics(ctx context.Context, fn func(models.AnalyticsEvent)) error {
	ticket, err := c.AnalyticsTicket(ctx)
	if err != nil {
		return err
	}

	wsURL := c.baseURL
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}
	wsURL += "/ws/analytics?ticket=" + url.QueryEscape(ticket.Ticket)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("client: dial analytics: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
		case <-done:
		}
	}()

	for {
		var ev models.AnalyticsEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				return nil
			}
			return fmt.Errorf("client: read analytics: %w", err)
		}
		fn(ev)
	}
}
