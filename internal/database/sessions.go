package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"aura/internal/models"

	"github.com/google/uuid"
)

// CreateSession stores a new session for userID valid for ttl.
func CreateSession(userID int, ttl time.Duration) (*models.Session, error) {
	token := uuid.New().String()
	expires := now().Add(ttl)

	res, err := DB.Exec("INSERT INTO sessions (user_id, uuid, expires) VALUES (?, ?, ?)", userID, token, expires)
	if err != nil {
		return nil, fmt.Errorf("database: failed to create session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("database: failed to get session ID: %w", err)
	}
	return &models.Session{ID: int(id), UserID: userID, UUID: token, Expires: expires}, nil
}

// DeleteSession removes a session and reports whether it existed.
func DeleteSession(token string) (bool, error) {
	res, err := DB.Exec("DELETE FROM sessions WHERE uuid = ?", token)
	if err != nil {
		return false, fmt.Errorf("database: failed to delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("database: failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// SessionUser returns the user owning an unexpired session. Expired sessions
// are deleted on sight.
func SessionUser(token string) (*models.User, error) {
	var userID int
	var expires time.Time
	err := DB.QueryRow("SELECT user_id, expires FROM sessions WHERE uuid = ?", token).Scan(&userID, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database: failed to query session: %w", err)
	}
	if now().After(expires) {
		_, _ = DB.Exec("DELETE FROM sessions WHERE uuid = ?", token)
		return nil, ErrNotFound
	}
	return GetUserByID(userID)
}
