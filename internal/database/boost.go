package database

import (
	"database/sql"
	"fmt"
	"time"

	"aura/internal/models"
)

// BoostResult is the outcome of spending credits on a post.
type BoostResult struct {
	State        models.ReactionState
	Balance      int
	BoostedUntil time.Time
	OwnerID      int
}

// BoostPost spends credits of userID on postID. The debit, the radiance gain
// (credits*radiancePerCredit) and the boost window extension commit together.
// The window extends from the later of now and the current boost end.
func BoostPost(userID, postID, credits, radiancePerCredit int, duration time.Duration) (*BoostResult, error) {
	if credits <= 0 {
		return nil, fmt.Errorf("%w: boost must spend at least one credit", ErrInvalidInput)
	}

	result := &BoostResult{}
	err := withTx(func(tx *sql.Tx) error {
		owner, err := visiblePostOwner(tx, userID, postID)
		if err != nil {
			return err
		}
		result.OwnerID = owner

		if err := debitCredits(tx, userID, credits, models.CreditBoost, &postID); err != nil {
			return err
		}

		var current sql.NullTime
		if err := tx.QueryRow("SELECT boosted_until FROM posts WHERE id = ?", postID).Scan(&current); err != nil {
			return fmt.Errorf("database: failed to load boost window: %w", err)
		}
		start := now()
		if current.Valid && current.Time.After(start) {
			start = current.Time.UTC()
		}
		result.BoostedUntil = start.Add(duration)

		_, err = tx.Exec("UPDATE posts SET radiance = radiance + ?, boosted_until = ? WHERE id = ?",
			credits*radiancePerCredit, result.BoostedUntil, postID)
		if err != nil {
			return fmt.Errorf("database: failed to boost post: %w", err)
		}
		if err := tx.QueryRow("SELECT credits FROM users WHERE id = ?", userID).Scan(&result.Balance); err != nil {
			return fmt.Errorf("database: failed to load balance: %w", err)
		}
		return createNotification(tx, owner, models.NotifyBoost, &userID, &postID,
			fmt.Sprintf("boosted your post with %d credits", credits))
	})
	if err != nil {
		return nil, err
	}

	states, err := ReactionStates(userID, []int{postID})
	if err != nil {
		return nil, err
	}
	if len(states) > 0 {
		result.State = states[0]
	}
	return result, nil
}
