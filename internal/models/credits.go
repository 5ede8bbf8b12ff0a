package models

import "time"

// Credit transaction kinds.
const (
	CreditGrant    = "grant"
	CreditPurchase = "purchase"
	CreditBoost    = "boost"
	CreditAdBudget = "ad_budget"
)

type CreditTransaction struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Amount    int       `json:"amount"`
	Kind      string    `json:"kind"`
	RefID     *int      `json:"ref_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CreditPackage struct {
	ID         string `json:"id"`
	Credits    int    `json:"credits"`
	PriceCents int    `json:"price_cents"`
}

// CreditPackages lists what the credit store sells.
var CreditPackages = []CreditPackage{
	{ID: "spark", Credits: 100, PriceCents: 99},
	{ID: "glow", Credits: 550, PriceCents: 499},
	{ID: "radiant", Credits: 1200, PriceCents: 999},
}

// FindCreditPackage returns the package with the given id.
func FindCreditPackage(id string) (CreditPackage, bool) {
	for _, p := range CreditPackages {
		if p.ID == id {
			return p, true
		}
	}
	return CreditPackage{}, false
}

// CreditSummary is the balance with recent history.
type CreditSummary struct {
	Balance      int                 `json:"balance"`
	Transactions []CreditTransaction `json:"transactions"`
}

// BoostReceipt is the server's answer to a post boost.
type BoostReceipt struct {
	PostID       int       `json:"post_id"`
	Radiance     int       `json:"radiance"`
	Balance      int       `json:"balance"`
	BoostedUntil time.Time `json:"boosted_until"`
}
