package database

import (
	"database/sql"
	"errors"
	"fmt"

	"aura/internal/models"
)

const userColumns = "u.id, u.email, u.username, u.display_name, u.bio, u.avatar_url, u.credits, u.trust_score, u.created_at"

func scanUser(row interface{ Scan(...interface{}) error }, u *models.User) error {
	return row.Scan(&u.ID, &u.Email, &u.Username, &u.DisplayName, &u.Bio, &u.AvatarURL, &u.Credits, &u.TrustScore, &u.CreatedAt)
}

// CreateUser inserts a user with default privacy settings and the starting credit grant.
func CreateUser(email, username, hashedPassword string, startingCredits int) (*models.User, error) {
	var id int64
	err := withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec("INSERT INTO users (email, username, password, display_name) VALUES (?, ?, ?, ?)",
			email, username, hashedPassword, username)
		if err != nil {
			return fmt.Errorf("database: failed to insert user: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("database: failed to get last insert ID: %w", err)
		}

		def := models.DefaultPrivacySettings()
		_, err = tx.Exec(`INSERT INTO privacy_settings
			(user_id, profile_visibility, message_permission, show_trust_score, show_acquaintances, searchable)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, def.ProfileVisibility, def.MessagePermission, def.ShowTrustScore, def.ShowAcquaintances, def.Searchable)
		if err != nil {
			return fmt.Errorf("database: failed to insert privacy settings: %w", err)
		}

		if startingCredits > 0 {
			if err := addCredits(tx, int(id), startingCredits, models.CreditGrant, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return GetUserByID(int(id))
}

// GetUserByID loads a user without the password hash.
func GetUserByID(id int) (*models.User, error) {
	return getUserByID(DB, id)
}

func getUserByID(q querier, id int) (*models.User, error) {
	var u models.User
	err := scanUser(q.QueryRow("SELECT "+userColumns+" FROM users u WHERE u.id = ?", id), &u)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database: failed to query user %d: %w", id, err)
	}
	return &u, nil
}

// GetUserForLogin finds a user by email or username (case-insensitive) including the password hash.
func GetUserForLogin(login string) (*models.User, error) {
	var u models.User
	err := DB.QueryRow(
		"SELECT "+userColumns+", u.password FROM users u WHERE u.email = ? OR u.username = ? COLLATE NOCASE", login, login).
		Scan(&u.ID, &u.Email, &u.Username, &u.DisplayName, &u.Bio, &u.AvatarURL, &u.Credits, &u.TrustScore, &u.CreatedAt, &u.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database: failed to query user: %w", err)
	}
	return &u, nil
}

// EmailOrUsernameTaken reports which of email and username are already registered.
func EmailOrUsernameTaken(email, username string) (emailTaken, usernameTaken bool, err error) {
	var n int
	if err = DB.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", email).Scan(&n); err != nil {
		return false, false, fmt.Errorf("database: failed to check existing email: %w", err)
	}
	emailTaken = n > 0
	if err = DB.QueryRow("SELECT COUNT(*) FROM users WHERE username = ? COLLATE NOCASE", username).Scan(&n); err != nil {
		return false, false, fmt.Errorf("database: failed to check existing username: %w", err)
	}
	usernameTaken = n > 0
	return emailTaken, usernameTaken, nil
}

// UpdateProfile replaces the editable profile fields of a user.
func UpdateProfile(userID int, displayName, bio, avatarURL string) (*models.User, error) {
	res, err := DB.Exec("UPDATE users SET display_name = ?, bio = ?, avatar_url = ? WHERE id = ?",
		displayName, bio, avatarURL, userID)
	if err != nil {
		return nil, fmt.Errorf("database: failed to update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return GetUserByID(userID)
}

// GetProfile returns user id as viewerID may see it.
// Users who blocked each other are invisible to one another.
func GetProfile(viewerID, id int) (*models.Profile, error) {
	user, err := GetUserByID(id)
	if err != nil {
		return nil, err
	}
	blocked, err := isBlockedEitherWay(DB, viewerID, id)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrNotFound
	}

	settings, err := GetPrivacySettings(id)
	if err != nil {
		return nil, err
	}
	rel, err := relationship(DB, viewerID, id)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{User: *user, Relationship: rel}
	if viewerID == id {
		profile.Acquaintances, err = acceptedAcquaintances(DB, id)
		if err != nil {
			return nil, err
		}
		profile.PostCount, err = countPosts(id)
		return profile, err
	}

	profile.Email = ""
	profile.Credits = 0
	if !settings.ShowTrustScore {
		profile.TrustScore = 0
	}

	visible, err := canView(DB, viewerID, id)
	if err != nil {
		return nil, err
	}
	if !visible {
		profile.Restricted = true
		profile.Bio = ""
		profile.AvatarURL = ""
		return profile, nil
	}

	if settings.ShowAcquaintances {
		profile.Acquaintances, err = acceptedAcquaintances(DB, id)
		if err != nil {
			return nil, err
		}
	}
	profile.PostCount, err = countPosts(id)
	return profile, err
}

func countPosts(userID int) (int, error) {
	var n int
	if err := DB.QueryRow("SELECT COUNT(*) FROM posts WHERE user_id = ?", userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("database: failed to count posts: %w", err)
	}
	return n, nil
}

// SearchUsers finds searchable users by username or display name, excluding blocked ones.
func SearchUsers(viewerID int, term string, limit int) ([]models.User, error) {
	pattern := "%" + term + "%"
	rows, err := DB.Query(`
		SELECT `+userColumns+`
		FROM users u
		LEFT JOIN privacy_settings ps ON ps.user_id = u.id
		WHERE (u.username LIKE ? OR u.display_name LIKE ?)
		  AND u.id != ?
		  AND COALESCE(ps.searchable, 1) = 1
		  AND NOT EXISTS (SELECT 1 FROM blocks b
		                  WHERE (b.blocker_id = u.id AND b.blocked_id = ?) OR (b.blocker_id = ? AND b.blocked_id = u.id))
		ORDER BY u.username COLLATE NOCASE
		LIMIT ?`, pattern, pattern, viewerID, viewerID, viewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("database: failed to search users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("database: failed to scan user: %w", err)
		}
		u.Email = ""
		u.Credits = 0
		users = append(users, u)
	}
	return users, rows.Err()
}

// publicUsers loads users by id with private fields cleared, preserving no particular order.
func publicUsers(q querier, ids []int) (map[int]models.User, error) {
	out := make(map[int]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ph, args := placeholders(ids)
	rows, err := q.Query("SELECT "+userColumns+" FROM users u WHERE u.id IN ("+ph+")", args...)
	if err != nil {
		return nil, fmt.Errorf("database: failed to load users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var u models.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("database: failed to scan user: %w", err)
		}
		u.Email = ""
		u.Credits = 0
		out[u.ID] = u
	}
	return out, rows.Err()
}

// adjustTrust changes a user's trust score, clamped to 0..100.
func adjustTrust(q querier, userID, delta int) error {
	_, err := q.Exec("UPDATE users SET trust_score = MIN(100, MAX(0, trust_score + ?)) WHERE id = ?", delta, userID)
	if err != nil {
		return fmt.Errorf("database: failed to adjust trust score: %w", err)
	}
	return nil
}
