package database

import (
	"database/sql"
	"errors"
	"fmt"

	"aura/internal/models"
)

// AdsPerServe is the number of ads handed out per request.
const AdsPerServe = 3

const adSelect = `
	SELECT a.id, a.owner_id, u.username, a.title, a.content, a.link_url, a.budget,
	       a.impressions, a.clicks, a.status, a.created_at
	FROM ads a
	JOIN users u ON u.id = a.owner_id
`

func scanAd(row interface{ Scan(...interface{}) error }) (models.Ad, error) {
	var a models.Ad
	err := row.Scan(&a.ID, &a.OwnerID, &a.Owner, &a.Title, &a.Content, &a.LinkURL, &a.Budget,
		&a.Impressions, &a.Clicks, &a.Status, &a.CreatedAt)
	a.Reactions = map[string]int{}
	a.UserReactions = []string{}
	return a, err
}

func getAd(q querier, id int) (*models.Ad, error) {
	a, err := scanAd(q.QueryRow(adSelect+" WHERE a.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database: failed to load ad %d: %w", id, err)
	}
	return &a, nil
}

func collectAds(rows *sql.Rows) ([]models.Ad, error) {
	defer rows.Close()
	ads := []models.Ad{}
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			return nil, fmt.Errorf("database: failed to scan ad: %w", err)
		}
		ads = append(ads, a)
	}
	return ads, rows.Err()
}

// CreateAd funds a new ad from the owner's credits. The budget is debited in
// the same transaction that stores the ad.
func CreateAd(ownerID int, title, content, linkURL string, budget int) (*models.Ad, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("%w: ad budget must be positive", ErrInvalidInput)
	}
	var id int
	err := withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`INSERT INTO ads (owner_id, title, content, link_url, budget, status, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`, ownerID, title, content, linkURL, budget, models.AdActive, now())
		if err != nil {
			return fmt.Errorf("database: failed to create ad: %w", err)
		}
		lastID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("database: failed to get ad ID: %w", err)
		}
		id = int(lastID)
		return debitCredits(tx, ownerID, budget, models.CreditAdBudget, &id)
	})
	if err != nil {
		return nil, err
	}
	return getAd(DB, id)
}

// ServeAds picks up to AdsPerServe active ads for viewerID, least shown first.
// Every served ad records an impression paid from its budget; an ad whose
// budget runs out becomes exhausted and its owner is notified.
func ServeAds(viewerID int) ([]models.Ad, error) {
	var ads []models.Ad
	err := withTx(func(tx *sql.Tx) error {
		rows, err := tx.Query(adSelect+`
			WHERE a.status = ? AND a.budget > 0 AND a.owner_id != ?
			AND NOT EXISTS (SELECT 1 FROM blocks b
				WHERE (b.blocker_id = a.owner_id AND b.blocked_id = ?) OR (b.blocker_id = ? AND b.blocked_id = a.owner_id))
			ORDER BY a.impressions ASC, a.id ASC
			LIMIT ?`, models.AdActive, viewerID, viewerID, viewerID, AdsPerServe)
		if err != nil {
			return fmt.Errorf("database: failed to select ads: %w", err)
		}
		if ads, err = collectAds(rows); err != nil {
			return err
		}

		for i := range ads {
			ad := &ads[i]
			ad.Impressions++
			ad.Budget--
			if ad.Budget == 0 {
				ad.Status = models.AdExhausted
			}
			_, err := tx.Exec("UPDATE ads SET impressions = ?, budget = ?, status = ? WHERE id = ?",
				ad.Impressions, ad.Budget, ad.Status, ad.ID)
			if err != nil {
				return fmt.Errorf("database: failed to record impression: %w", err)
			}
			if ad.Status == models.AdExhausted {
				msg := fmt.Sprintf("your ad %q has used its whole budget", ad.Title)
				if err := createNotification(tx, ad.OwnerID, models.NotifyAdExhausted, nil, nil, msg); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := attachAdReactions(DB, viewerID, ads); err != nil {
		return nil, err
	}
	return ads, nil
}

// MyAds lists the ads owned by ownerID with their stats.
func MyAds(ownerID int) ([]models.Ad, error) {
	rows, err := DB.Query(adSelect+" WHERE a.owner_id = ? ORDER BY a.created_at DESC, a.id DESC", ownerID)
	if err != nil {
		return nil, fmt.Errorf("database: failed to list ads: %w", err)
	}
	ads, err := collectAds(rows)
	if err != nil {
		return nil, err
	}
	if err := attachAdReactions(DB, ownerID, ads); err != nil {
		return nil, err
	}
	return ads, nil
}

// SetAdStatus pauses or resumes an ad owned by ownerID. Exhausted ads cannot
// change status, and pausing refunds nothing.
func SetAdStatus(ownerID, id int, status string) (*models.Ad, error) {
	if status != models.AdActive && status != models.AdPaused {
		return nil, fmt.Errorf("%w: status must be %q or %q", ErrInvalidInput, models.AdActive, models.AdPaused)
	}
	err := withTx(func(tx *sql.Tx) error {
		ad, err := getAd(tx, id)
		if err != nil {
			return err
		}
		if ad.OwnerID != ownerID {
			return ErrForbidden
		}
		if ad.Status == models.AdExhausted {
			return fmt.Errorf("%w: ad budget is exhausted", ErrConflict)
		}
		if _, err := tx.Exec("UPDATE ads SET status = ? WHERE id = ?", status, id); err != nil {
			return fmt.Errorf("database: failed to update ad status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return getAd(DB, id)
}

// RecordAdClick counts a click on an ad and returns the ad.
func RecordAdClick(viewerID, id int) (*models.Ad, error) {
	ad, err := getAd(DB, id)
	if err != nil {
		return nil, err
	}
	blocked, err := isBlockedEitherWay(DB, viewerID, ad.OwnerID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrNotFound
	}
	if _, err := DB.Exec("UPDATE ads SET clicks = clicks + 1 WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("database: failed to record click: %w", err)
	}
	ad.Clicks++
	return ad, nil
}

// attachAdReactions fills Reactions and UserReactions of ads for viewerID.
func attachAdReactions(q querier, viewerID int, ads []models.Ad) error {
	if len(ads) == 0 {
		return nil
	}
	index := make(map[int]int, len(ads))
	ids := make([]int, len(ads))
	for i, a := range ads {
		index[a.ID] = i
		ids[i] = a.ID
	}
	ph, args := placeholders(ids)

	rows, err := q.Query("SELECT ad_id, emoji, COUNT(*) FROM ad_reactions WHERE ad_id IN ("+ph+") GROUP BY ad_id, emoji", args...)
	if err != nil {
		return fmt.Errorf("database: failed to count ad reactions: %w", err)
	}
	for rows.Next() {
		var adID, n int
		var emoji string
		if err := rows.Scan(&adID, &emoji, &n); err != nil {
			rows.Close()
			return fmt.Errorf("database: failed to scan ad reaction count: %w", err)
		}
		ads[index[adID]].Reactions[emoji] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("database: failed to read ad reaction counts: %w", err)
	}

	rows, err = q.Query("SELECT ad_id, emoji FROM ad_reactions WHERE user_id = ? AND ad_id IN ("+ph+") ORDER BY id",
		append([]interface{}{viewerID}, args...)...)
	if err != nil {
		return fmt.Errorf("database: failed to load user ad reactions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var adID int
		var emoji string
		if err := rows.Scan(&adID, &emoji); err != nil {
			return fmt.Errorf("database: failed to scan user ad reaction: %w", err)
		}
		i := index[adID]
		ads[i].UserReactions = append(ads[i].UserReactions, emoji)
	}
	return rows.Err()
}
