package database

import (
	"database/sql"
	"errors"
	"fmt"

	"aura/internal/models"
)

// GetPrivacySettings returns the settings of userID, or the defaults when none are stored.
func GetPrivacySettings(userID int) (models.PrivacySettings, error) {
	return getPrivacySettings(DB, userID)
}

func getPrivacySettings(q querier, userID int) (models.PrivacySettings, error) {
	var s models.PrivacySettings
	err := q.QueryRow(`SELECT profile_visibility, message_permission, show_trust_score, show_acquaintances, searchable
		FROM privacy_settings WHERE user_id = ?`, userID).
		Scan(&s.ProfileVisibility, &s.MessagePermission, &s.ShowTrustScore, &s.ShowAcquaintances, &s.Searchable)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultPrivacySettings(), nil
	}
	if err != nil {
		return s, fmt.Errorf("database: failed to query privacy settings: %w", err)
	}
	return s, nil
}

// UpdatePrivacySettings stores new settings for userID.
func UpdatePrivacySettings(userID int, s models.PrivacySettings) error {
	if !s.Valid() {
		return fmt.Errorf("%w: unknown visibility or message permission", ErrInvalidInput)
	}
	_, err := DB.Exec(`INSERT INTO privacy_settings
		(user_id, profile_visibility, message_permission, show_trust_score, show_acquaintances, searchable)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			profile_visibility = excluded.profile_visibility,
			message_permission = excluded.message_permission,
			show_trust_score = excluded.show_trust_score,
			show_acquaintances = excluded.show_acquaintances,
			searchable = excluded.searchable`,
		userID, s.ProfileVisibility, s.MessagePermission, s.ShowTrustScore, s.ShowAcquaintances, s.Searchable)
	if err != nil {
		return fmt.Errorf("database: failed to update privacy settings: %w", err)
	}
	return nil
}

// BlockUser blocks blockedID for blockerID. A new block drops any acquaintance
// between the two and costs the blocked user trust.
func BlockUser(blockerID, blockedID int) error {
	if blockerID == blockedID {
		return fmt.Errorf("%w: cannot block yourself", ErrInvalidInput)
	}
	return withTx(func(tx *sql.Tx) error {
		if _, err := getUserByID(tx, blockedID); err != nil {
			return err
		}
		res, err := tx.Exec("INSERT OR IGNORE INTO blocks (blocker_id, blocked_id) VALUES (?, ?)", blockerID, blockedID)
		if err != nil {
			return fmt.Errorf("database: failed to insert block: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		if err := deleteAcquaintance(tx, blockerID, blockedID); err != nil {
			return err
		}
		return adjustTrust(tx, blockedID, -5)
	})
}

// UnblockUser removes a block. Unblocking a user that is not blocked is not an error.
func UnblockUser(blockerID, blockedID int) error {
	_, err := DB.Exec("DELETE FROM blocks WHERE blocker_id = ? AND blocked_id = ?", blockerID, blockedID)
	if err != nil {
		return fmt.Errorf("database: failed to delete block: %w", err)
	}
	return nil
}

// ListBlockedUsers returns the users blockerID has blocked.
func ListBlockedUsers(blockerID int) ([]models.User, error) {
	rows, err := DB.Query(`SELECT `+userColumns+` FROM users u
		JOIN blocks b ON b.blocked_id = u.id
		WHERE b.blocker_id = ? ORDER BY b.created_at DESC`, blockerID)
	if err != nil {
		return nil, fmt.Errorf("database: failed to list blocks: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("database: failed to scan blocked user: %w", err)
		}
		u.Email = ""
		u.Credits = 0
		users = append(users, u)
	}
	return users, rows.Err()
}

func isBlockedEitherWay(q querier, a, b int) (bool, error) {
	var exists bool
	err := q.QueryRow(`SELECT EXISTS(SELECT 1 FROM blocks
		WHERE (blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?))`, a, b, b, a).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("database: failed to check block: %w", err)
	}
	return exists, nil
}

// canView reports whether viewerID may see ownerID's profile details and posts.
func canView(q querier, viewerID, ownerID int) (bool, error) {
	if viewerID == ownerID {
		return true, nil
	}
	blocked, err := isBlockedEitherWay(q, viewerID, ownerID)
	if err != nil || blocked {
		return false, err
	}
	settings, err := getPrivacySettings(q, ownerID)
	if err != nil {
		return false, err
	}
	switch settings.ProfileVisibility {
	case models.VisibilityPublic:
		return true, nil
	case models.VisibilityAcquaintances:
		return areAcquaintances(q, viewerID, ownerID)
	default:
		return false, nil
	}
}

// canMessage reports whether senderID may send a direct message to recipientID.
func canMessage(q querier, senderID, recipientID int) (bool, error) {
	blocked, err := isBlockedEitherWay(q, senderID, recipientID)
	if err != nil || blocked {
		return false, err
	}
	settings, err := getPrivacySettings(q, recipientID)
	if err != nil {
		return false, err
	}
	switch settings.MessagePermission {
	case models.MessagesEveryone:
		return true, nil
	case models.MessagesAcquaintances:
		return areAcquaintances(q, senderID, recipientID)
	default:
		return false, nil
	}
}

// visibleTo returns a WHERE fragment limiting ownerCol to users whose posts
// viewerID may see, mirroring canView in SQL.
func visibleTo(ownerCol string, viewerID int) (string, []interface{}) {
	clause := fmt.Sprintf(`(%[1]s = ? OR (
		NOT EXISTS (SELECT 1 FROM blocks b
			WHERE (b.blocker_id = %[1]s AND b.blocked_id = ?) OR (b.blocker_id = ? AND b.blocked_id = %[1]s))
		AND (
			COALESCE((SELECT ps.profile_visibility FROM privacy_settings ps WHERE ps.user_id = %[1]s), 'public') = 'public'
			OR (COALESCE((SELECT ps.profile_visibility FROM privacy_settings ps WHERE ps.user_id = %[1]s), 'public') = 'acquaintances'
				AND EXISTS (SELECT 1 FROM acquaintances a WHERE a.status = 'accepted'
					AND ((a.requester_id = %[1]s AND a.addressee_id = ?) OR (a.requester_id = ? AND a.addressee_id = %[1]s))))
		)
	))`, ownerCol)
	return clause, []interface{}{viewerID, viewerID, viewerID, viewerID, viewerID}
}
