package database

import (
	"database/sql"
	"fmt"

	"aura/internal/models"
)

// createNotification records a notification for userID. Actions on one's own
// content never notify.
func createNotification(q querier, userID int, kind string, actorID, postID *int, message string) error {
	if actorID != nil && *actorID == userID {
		return nil
	}
	_, err := q.Exec("INSERT INTO notifications (user_id, type, actor_id, post_id, message, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		userID, kind, actorID, postID, message, now())
	if err != nil {
		return fmt.Errorf("database: failed to create notification: %w", err)
	}
	return nil
}

// ListNotifications returns the newest notifications of userID.
func ListNotifications(userID, limit int) ([]models.Notification, error) {
	rows, err := DB.Query(`
		SELECT n.id, n.user_id, n.type, n.actor_id, COALESCE(u.username, ''), n.post_id, n.message, n.is_read, n.created_at
		FROM notifications n
		LEFT JOIN users u ON u.id = n.actor_id
		WHERE n.user_id = ?
		ORDER BY n.id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("database: failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var actorID, postID sql.NullInt64
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &actorID, &n.Actor, &postID, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("database: failed to scan notification: %w", err)
		}
		n.ActorID = nullIntPtr(actorID)
		n.PostID = nullIntPtr(postID)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkNotificationRead marks one of userID's notifications as read.
func MarkNotificationRead(userID, id int) error {
	res, err := DB.Exec("UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("database: failed to mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead marks every notification of userID as read.
func MarkAllNotificationsRead(userID int) error {
	if _, err := DB.Exec("UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0", userID); err != nil {
		return fmt.Errorf("database: failed to mark notifications read: %w", err)
	}
	return nil
}

func nullIntPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
