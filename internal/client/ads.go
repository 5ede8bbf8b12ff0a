package client

import (
	"context"
	"fmt"
	"net/http"

	"aura/internal/models"
)

// Ads fetches the ads to display. Each call records impressions server side.
func (c *Client) Ads(ctx context.Context) ([]models.Ad, error) {
	var ads []models.Ad
	err := c.do(ctx, http.MethodGet, "/api/ads", nil, &ads)
	return ads, err
}

// MyAds lists own ads with stats.
func (c *Client) MyAds(ctx context.Context) ([]models.Ad, error) {
	var ads []models.Ad
	err := c.do(ctx, http.MethodGet, "/api/ads/mine", nil, &ads)
	return ads, err
}

// CreateAd funds a new ad.
func (c *Client) CreateAd(ctx context.Context, title, content, linkURL string, budget int) (*models.Ad, error) {
	var ad models.Ad
	body := map[string]interface{}{"title": title, "content": content, "link_url": linkURL, "budget": budget}
	if err := c.do(ctx, http.MethodPost, "/api/ads", body, &ad); err != nil {
		return nil, err
	}
	return &ad, nil
}

// SetAdStatus pauses or resumes an own ad.
func (c *Client) SetAdStatus(ctx context.Context, id int, status string) (*models.Ad, error) {
	var ad models.Ad
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/ads/%d/status", id), map[string]string{"status": status}, &ad); err != nil {
		return nil, err
	}
	return &ad, nil
}

// ToggleAdReaction toggles an emoji on an ad.
func (c *Client) ToggleAdReaction(ctx context.Context, adID int, emoji string) (*models.ReactionToggle, error) {
	var t models.ReactionToggle
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/ads/%d/reactions", adID), map[string]string{"emoji": emoji}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// AdClick records a click on an ad.
func (c *Client) AdClick(ctx context.Context, adID int) (*models.Ad, error) {
	var ad models.Ad
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/ads/%d/click", adID), nil, &ad); err != nil {
		return nil, err
	}
	return &ad, nil
}

// Credits returns the balance and recent transactions.
func (c *Client) Credits(ctx context.Context) (*models.CreditSummary, error) {
	var s models.CreditSummary
	if err := c.do(ctx, http.MethodGet, "/api/credits", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreditPackages lists purchasable packages.
func (c *Client) CreditPackages(ctx context.Context) ([]models.CreditPackage, error) {
	var pkgs []models.CreditPackage
	err := c.do(ctx, http.MethodGet, "/api/credits/packages", nil, &pkgs)
	return pkgs, err
}

// PurchaseCredits buys a package and returns the new balance.
func (c *Client) PurchaseCredits(ctx context.Context, packageID string) (int, error) {
	var res struct {
		Balance int `json:"balance"`
	}
	err := c.do(ctx, http.MethodPost, "/api/credits/purchase", map[string]string{"package_id": packageID}, &res)
	return res.Balance, err
}
