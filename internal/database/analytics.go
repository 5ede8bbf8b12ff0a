package database

import (
	"fmt"

	"aura/internal/models"
)

// AnalyticsSummary totals the engagement on userID's posts.
func AnalyticsSummary(userID int) (*models.AnalyticsSummary, error) {
	s := &models.AnalyticsSummary{}
	err := DB.QueryRow(`SELECT COUNT(*), COALESCE(SUM(radiance), 0) FROM posts WHERE user_id = ?`, userID).
		Scan(&s.Posts, &s.TotalRadiance)
	if err != nil {
		return nil, fmt.Errorf("database: failed to sum radiance: %w", err)
	}
	err = DB.QueryRow(`SELECT COUNT(*) FROM post_reactions r JOIN posts p ON p.id = r.post_id
		WHERE p.user_id = ? AND r.user_id != ?`, userID, userID).Scan(&s.ReactionsReceived)
	if err != nil {
		return nil, fmt.Errorf("database: failed to count reactions received: %w", err)
	}
	err = DB.QueryRow(`SELECT COUNT(*) FROM comments c JOIN posts p ON p.id = c.post_id
		WHERE p.user_id = ? AND c.user_id != ?`, userID, userID).Scan(&s.CommentsReceived)
	if err != nil {
		return nil, fmt.Errorf("database: failed to count comments received: %w", err)
	}
	err = DB.QueryRow(`SELECT COUNT(*) FROM acquaintances
		WHERE status = 'accepted' AND (requester_id = ? OR addressee_id = ?)`, userID, userID).Scan(&s.Acquaintances)
	if err != nil {
		return nil, fmt.Errorf("database: failed to count acquaintances: %w", err)
	}
	return s, nil
}
