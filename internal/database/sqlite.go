package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"aura/config"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"golang.org/x/crypto/bcrypt"
)

var DB *sql.DB

var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConflict            = errors.New("conflict")
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// InitDB opens the database and creates the schema.
func InitDB(cfg *config.Config) error {
	var err error
	DB, err = sql.Open("sqlite3", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	// One connection: SQLite serializes writers anyway, and ":memory:" databases
	// are per connection.
	DB.SetMaxOpenConns(1)

	if err = DB.Ping(); err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	log.Printf("Successfully connected to SQLite database using DSN: %s", cfg.Database.DSN)

	return createTables()
}

// createTables creates every table and index if missing.
func createTables() error {
	schema := `
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		username TEXT NOT NULL UNIQUE COLLATE NOCASE,
		password TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		bio TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		credits INTEGER NOT NULL DEFAULT 0 CHECK (credits >= 0),
		trust_score INTEGER NOT NULL DEFAULT 50,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		uuid TEXT NOT NULL UNIQUE,
		expires DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS privacy_settings (
		user_id INTEGER PRIMARY KEY,
		profile_visibility TEXT NOT NULL DEFAULT 'public',
		message_permission TEXT NOT NULL DEFAULT 'everyone',
		show_trust_score BOOLEAN NOT NULL DEFAULT 1,
		show_acquaintances BOOLEAN NOT NULL DEFAULT 1,
		searchable BOOLEAN NOT NULL DEFAULT 1,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS acquaintances (
		requester_id INTEGER NOT NULL,
		addressee_id INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending', -- pending | accepted
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (requester_id, addressee_id),
		FOREIGN KEY (requester_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (addressee_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS blocks (
		blocker_id INTEGER NOT NULL,
		blocked_id INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (blocker_id, blocked_id),
		FOREIGN KEY (blocker_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (blocked_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		content TEXT NOT NULL,
		media_url TEXT NOT NULL DEFAULT '',
		radiance INTEGER NOT NULL DEFAULT 0,
		boosted_until DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS post_reactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		emoji TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (post_id, user_id, emoji),
		FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		parent_id INTEGER,
		content TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (parent_id) REFERENCES comments(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sender_id INTEGER NOT NULL,
		recipient_id INTEGER NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		read_at DATETIME,
		FOREIGN KEY (sender_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (recipient_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		type TEXT NOT NULL,
		actor_id INTEGER,
		post_id INTEGER,
		message TEXT NOT NULL DEFAULT '',
		is_read BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (actor_id) REFERENCES users(id) ON DELETE SET NULL,
		FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE SET NULL
	);

	CREATE TABLE IF NOT EXISTS ads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		link_url TEXT NOT NULL DEFAULT '',
		budget INTEGER NOT NULL CHECK (budget >= 0),
		impressions INTEGER NOT NULL DEFAULT 0,
		clicks INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS ad_reactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ad_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		emoji TEXT NOT NULL,
		UNIQUE (ad_id, user_id, emoji),
		FOREIGN KEY (ad_id) REFERENCES ads(id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS credit_transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		amount INTEGER NOT NULL,
		kind TEXT NOT NULL,
		ref_id INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_users_username_nocase ON users(username COLLATE NOCASE);
	CREATE INDEX IF NOT EXISTS idx_sessions_uuid ON sessions(uuid);
	CREATE INDEX IF NOT EXISTS idx_posts_user_created ON posts(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_post_reactions_post ON post_reactions(post_id, emoji);
	CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments(post_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(sender_id, recipient_id, id);
	CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, id);
	CREATE INDEX IF NOT EXISTS idx_ads_status ON ads(status, impressions);
	CREATE INDEX IF NOT EXISTS idx_credit_transactions_user ON credit_transactions(user_id, id);
	`

	_, err := DB.Exec(schema)
	if err != nil {
		return fmt.Errorf("error creating tables: %w", err)
	}

	log.Println("Database tables created or already exist.")

	if err := applyMigrations(); err != nil {
		log.Printf("Warning: Failed to apply migrations: %v", err)
	}
	return nil
}

// applyMigrations brings databases created by older builds up to the current schema.
func applyMigrations() error {
	if err := addColumnIfNotExists("users", "trust_score", "INTEGER NOT NULL DEFAULT 50"); err != nil {
		return fmt.Errorf("error adding trust_score column to users: %w", err)
	}
	if err := addColumnIfNotExists("posts", "boosted_until", "DATETIME"); err != nil {
		return fmt.Errorf("error adding boosted_until column to posts: %w", err)
	}
	return nil
}

// addColumnIfNotExists adds a column to a table unless it is already there.
func addColumnIfNotExists(tableName, columnName, columnDef string) error {
	var exists int
	err := DB.QueryRow(`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, tableName, columnName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("error checking column existence: %w", err)
	}
	if exists > 0 {
		return nil
	}

	alterQuery := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", tableName, columnName, columnDef)
	if _, err := DB.Exec(alterQuery); err != nil {
		return fmt.Errorf("error adding column: %w", err)
	}
	log.Printf("Added column %s to table %s", columnName, tableName)
	return nil
}

// withTx runs fn in a transaction and commits when fn returns nil.
func withTx(fn func(tx *sql.Tx) error) error {
	tx, err := DB.Begin()
	if err != nil {
		return fmt.Errorf("database: failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("database: failed to commit transaction: %w", err)
	}
	return nil
}

// placeholders returns "?,?,...,?" with n entries and the ids as arguments.
func placeholders(ids []int) (string, []interface{}) {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}

func now() time.Time {
	return time.Now().UTC()
}

// CleanupExpiredSessions deletes expired sessions every interval until ctx is done.
func CleanupExpiredSessions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		result, err := DB.Exec("DELETE FROM sessions WHERE expires < ?", now())
		if err != nil {
			log.Printf("Error cleaning up expired sessions: %v", err)
			continue
		}
		rowsAffected, _ := result.RowsAffected()
		if rowsAffected > 0 {
			log.Printf("Cleaned up %d expired sessions.", rowsAffected)
		}
	}
}

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedPassword), nil
}

// CheckPasswordHash compares a bcrypt hash with a plain password.
func CheckPasswordHash(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
