package database

import (
	"database/sql"
	"fmt"

	"aura/internal/models"
)

// ReactionResult is the outcome of a reaction toggle.
type ReactionResult struct {
	State   models.ReactionState
	Added   bool
	OwnerID int
}

// TogglePostReaction adds emoji to userID's reactions on a post, or removes it if
// already present. Radiance follows: +1 on add, -1 on removal, never below zero.
func TogglePostReaction(userID, postID int, emoji string) (*ReactionResult, error) {
	if !models.IsAllowedEmoji(emoji) {
		return nil, fmt.Errorf("%w: unsupported reaction %q", ErrInvalidInput, emoji)
	}

	result := &ReactionResult{}
	err := withTx(func(tx *sql.Tx) error {
		owner, err := visiblePostOwner(tx, userID, postID)
		if err != nil {
			return err
		}
		result.OwnerID = owner

		var exists bool
		err = tx.QueryRow("SELECT EXISTS(SELECT 1 FROM post_reactions WHERE post_id = ? AND user_id = ? AND emoji = ?)",
			postID, userID, emoji).Scan(&exists)
		if err != nil {
			return fmt.Errorf("database: failed to check reaction: %w", err)
		}

		if exists {
			if _, err = tx.Exec("DELETE FROM post_reactions WHERE post_id = ? AND user_id = ? AND emoji = ?", postID, userID, emoji); err != nil {
				return fmt.Errorf("database: failed to remove reaction: %w", err)
			}
			_, err = tx.Exec("UPDATE posts SET radiance = MAX(radiance - 1, 0) WHERE id = ?", postID)
		} else {
			if _, err = tx.Exec("INSERT INTO post_reactions (post_id, user_id, emoji) VALUES (?, ?, ?)", postID, userID, emoji); err != nil {
				return fmt.Errorf("database: failed to add reaction: %w", err)
			}
			_, err = tx.Exec("UPDATE posts SET radiance = radiance + 1 WHERE id = ?", postID)
			if err == nil {
				err = createNotification(tx, owner, models.NotifyReaction, &userID, &postID, "reacted "+emoji+" to your post")
			}
		}
		if err != nil {
			return fmt.Errorf("database: failed to update radiance: %w", err)
		}
		result.Added = !exists
		return nil
	})
	if err != nil {
		return nil, err
	}

	states, err := ReactionStates(userID, []int{postID})
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, ErrNotFound
	}
	result.State = states[0]
	return result, nil
}

// ToggleAdReaction toggles emoji on an ad for userID.
func ToggleAdReaction(userID, adID int, emoji string) (*ReactionResult, error) {
	if !models.IsAllowedEmoji(emoji) {
		return nil, fmt.Errorf("%w: unsupported reaction %q", ErrInvalidInput, emoji)
	}

	result := &ReactionResult{}
	err := withTx(func(tx *sql.Tx) error {
		ad, err := getAd(tx, adID)
		if err != nil {
			return err
		}
		blocked, err := isBlockedEitherWay(tx, userID, ad.OwnerID)
		if err != nil {
			return err
		}
		if blocked {
			return ErrNotFound
		}
		result.OwnerID = ad.OwnerID

		res, err := tx.Exec("DELETE FROM ad_reactions WHERE ad_id = ? AND user_id = ? AND emoji = ?", adID, userID, emoji)
		if err != nil {
			return fmt.Errorf("database: failed to remove ad reaction: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}
		if _, err := tx.Exec("INSERT INTO ad_reactions (ad_id, user_id, emoji) VALUES (?, ?, ?)", adID, userID, emoji); err != nil {
			return fmt.Errorf("database: failed to add ad reaction: %w", err)
		}
		result.Added = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	ads := []models.Ad{{ID: adID, Reactions: map[string]int{}, UserReactions: []string{}}}
	if err := attachAdReactions(DB, userID, ads); err != nil {
		return nil, err
	}
	result.State = models.ReactionState{AdID: adID, Reactions: ads[0].Reactions, UserReactions: ads[0].UserReactions}
	return result, nil
}
