package database

import (
	"database/sql"
	"fmt"

	"aura/internal/models"
)

// ThreadLimit caps how many messages one thread request returns.
const ThreadLimit = 200

const messageColumns = "id, sender_id, recipient_id, content, created_at, read_at"

func scanMessage(row interface{ Scan(...interface{}) error }) (models.Message, error) {
	var m models.Message
	var readAt sql.NullTime
	err := row.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.CreatedAt, &readAt)
	if readAt.Valid {
		t := readAt.Time
		m.ReadAt = &t
	}
	return m, err
}

// SendMessage stores a direct message if the recipient's settings and blocks allow it.
func SendMessage(senderID, recipientID int, content string) (*models.Message, error) {
	if senderID == recipientID {
		return nil, fmt.Errorf("%w: cannot message yourself", ErrInvalidInput)
	}
	var msg models.Message
	err := withTx(func(tx *sql.Tx) error {
		if _, err := getUserByID(tx, recipientID); err != nil {
			return err
		}
		ok, err := canMessage(tx, senderID, recipientID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForbidden
		}

		created := now()
		res, err := tx.Exec("INSERT INTO messages (sender_id, recipient_id, content, created_at) VALUES (?, ?, ?, ?)",
			senderID, recipientID, content, created)
		if err != nil {
			return fmt.Errorf("database: failed to send message: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("database: failed to get message ID: %w", err)
		}
		msg = models.Message{ID: int(id), SenderID: senderID, RecipientID: recipientID, Content: content, CreatedAt: created}
		return createNotification(tx, recipientID, models.NotifyMessage, &senderID, nil, "sent you a message")
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Thread returns the messages between viewerID and peerID with an id greater
// than afterID, oldest first, and marks the peer's messages to viewerID read.
// With afterID 0 it returns the latest ThreadLimit messages.
func Thread(viewerID, peerID, afterID int) ([]models.Message, error) {
	if _, err := GetUserByID(peerID); err != nil {
		return nil, err
	}

	_, err := DB.Exec("UPDATE messages SET read_at = ? WHERE sender_id = ? AND recipient_id = ? AND read_at IS NULL",
		now(), peerID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("database: failed to mark messages read: %w", err)
	}

	rows, err := DB.Query(`SELECT `+messageColumns+` FROM (
			SELECT `+messageColumns+` FROM messages
			WHERE ((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)) AND id > ?
			ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`, viewerID, peerID, peerID, viewerID, afterID, ThreadLimit)
	if err != nil {
		return nil, fmt.Errorf("database: failed to load thread: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("database: failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Conversations lists userID's threads, most recently active first.
func Conversations(userID int) ([]models.Conversation, error) {
	rows, err := DB.Query(`
		SELECT peer, MAX(id) FROM (
			SELECT CASE WHEN sender_id = ? THEN recipient_id ELSE sender_id END AS peer, id
			FROM messages WHERE sender_id = ? OR recipient_id = ?
		) GROUP BY peer ORDER BY MAX(id) DESC`, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("database: failed to list conversations: %w", err)
	}
	var peers, lastIDs []int
	for rows.Next() {
		var peer, last int
		if err := rows.Scan(&peer, &last); err != nil {
			rows.Close()
			return nil, fmt.Errorf("database: failed to scan conversation: %w", err)
		}
		peers = append(peers, peer)
		lastIDs = append(lastIDs, last)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	conversations := []models.Conversation{}
	if len(peers) == 0 {
		return conversations, nil
	}

	unread := map[int]int{}
	rows, err = DB.Query("SELECT sender_id, COUNT(*) FROM messages WHERE recipient_id = ? AND read_at IS NULL GROUP BY sender_id", userID)
	if err != nil {
		return nil, fmt.Errorf("database: failed to count unread messages: %w", err)
	}
	for rows.Next() {
		var sender, n int
		if err := rows.Scan(&sender, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("database: failed to scan unread count: %w", err)
		}
		unread[sender] = n
	}
	rows.Close()

	last := map[int]models.Message{}
	ph, args := placeholders(lastIDs)
	rows, err = DB.Query("SELECT "+messageColumns+" FROM messages WHERE id IN ("+ph+")", args...)
	if err != nil {
		return nil, fmt.Errorf("database: failed to load last messages: %w", err)
	}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("database: failed to scan message: %w", err)
		}
		last[m.ID] = m
	}
	rows.Close()

	users, err := publicUsers(DB, peers)
	if err != nil {
		return nil, err
	}
	for i, peer := range peers {
		m := last[lastIDs[i]]
		conversations = append(conversations, models.Conversation{
			Peer:          users[peer],
			LastMessage:   m,
			UnreadCount:   unread[peer],
			LastMessageAt: m.CreatedAt,
		})
	}
	return conversations, nil
}
