package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("cache: key not found")

// Local is a durable key/value store backed by a SQLite file.
type Local struct {
	db *sql.DB
}

// OpenLocal opens (and creates when missing) the store at path.
func OpenLocal(path string) (*Local, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: connect %s: %w", path, err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create table: %w", err)
	}
	return &Local{db: db}, nil
}

func (l *Local) Get(key string) (string, error) {
	var value string
	err := l.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("cache: get %s: %w", key, err)
	}
	return value, nil
}

func (l *Local) Set(key, value string) error {
	_, err := l.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	return nil
}

func (l *Local) Delete(key string) error {
	if _, err := l.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("cache: delete %s: %w", key, err)
	}
	return nil
}

func (l *Local) Close() error {
	return l.db.Close()
}
