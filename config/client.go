package config

import (
	"os"
	"path/filepath"
	"time"
)

// ClientConfig holds the settings of the aura command-line client.
type ClientConfig struct {
	ServerURL string
	CachePath string // SQLite file backing local storage

	ConversationsInterval time.Duration
	MessagesInterval      time.Duration
	ReactionsInterval     time.Duration
	NotificationsInterval time.Duration
}

// LoadClientConfig reads the client configuration from the environment.
func LoadClientConfig() *ClientConfig {
	cachePath := filepath.Join(os.TempDir(), "aura-cache.db")
	if home, err := os.UserHomeDir(); err == nil {
		cachePath = filepath.Join(home, ".aura-cache.db")
	}

	return &ClientConfig{
		ServerURL:             getEnv("AURA_SERVER", "http://localhost:8080"),
		CachePath:             getEnv("AURA_CACHE", cachePath),
		ConversationsInterval: getEnvDuration("AURA_POLL_CONVERSATIONS", 2*time.Second),
		MessagesInterval:      getEnvDuration("AURA_POLL_MESSAGES", 1200*time.Millisecond),
		ReactionsInterval:     getEnvDuration("AURA_POLL_REACTIONS", 7*time.Second),
		NotificationsInterval: getEnvDuration("AURA_POLL_NOTIFICATIONS", 30*time.Second),
	}
}
