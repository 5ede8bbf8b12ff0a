package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds the server configuration.
type Config struct {
	Server struct {
		Port         string
		CookieSecure bool
		RateLimit    int // mutating requests per IP per minute
	}
	Database struct {
		DSN string // e.g. "aura.db?_foreign_keys=on"
	}
	Session struct {
		Expiration time.Duration
	}
	Security struct {
		Secret string // master secret the ticket-signing key is derived from
	}
	Credits struct {
		Starting               int
		BoostRadiancePerCredit int
		BoostDuration          time.Duration
	}
}

// AppConfig is the configuration loaded at startup.
var AppConfig *Config

// LoadConfig reads the server configuration from the environment, falling back to defaults.
// Call it once from main.
func LoadConfig() {
	AppConfig = &Config{}

	AppConfig.Server.Port = getEnv("AURA_PORT", "8080")
	// Secure cookies need HTTPS; set AURA_COOKIE_SECURE=true in prod.
	AppConfig.Server.CookieSecure = getEnv("AURA_COOKIE_SECURE", "false") == "true"
	AppConfig.Server.RateLimit = getEnvInt("AURA_RATE_LIMIT", 60)

	dbName := getEnv("AURA_DB_NAME", "aura.db")
	AppConfig.Database.DSN = dbName + "?_foreign_keys=on"

	AppConfig.Session.Expiration = time.Duration(getEnvInt("AURA_SESSION_HOURS", 24)) * time.Hour

	AppConfig.Security.Secret = getEnv("AURA_SECRET", "")
	if AppConfig.Security.Secret == "" {
		log.Println("WARNING: AURA_SECRET is not set. Using an insecure development secret.")
		AppConfig.Security.Secret = "aura-dev-secret"
	}

	AppConfig.Credits.Starting = getEnvInt("AURA_STARTING_CREDITS", 100)
	AppConfig.Credits.BoostRadiancePerCredit = getEnvInt("AURA_BOOST_RADIANCE_PER_CREDIT", 1)
	AppConfig.Credits.BoostDuration = time.Duration(getEnvInt("AURA_BOOST_HOURS", 24)) * time.Hour

	log.Println("Configuration loaded successfully.")
}

// Default returns a configuration with all defaults applied and the given DSN.
// Tests use it with ":memory:".
func Default(dsn string) *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Server.RateLimit = 60
	cfg.Database.DSN = dsn
	cfg.Session.Expiration = 24 * time.Hour
	cfg.Security.Secret = "aura-dev-secret"
	cfg.Credits.Starting = 100
	cfg.Credits.BoostRadiancePerCredit = 1
	cfg.Credits.BoostDuration = 24 * time.Hour
	return cfg
}

// getEnv returns the environment variable or fallback when it is unset.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("WARNING: Invalid value for %s (%q). Using default %d. Error: %v", key, raw, fallback, err)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("WARNING: Invalid duration for %s (%q). Using default %s. Error: %v", key, raw, fallback, err)
		return fallback
	}
	return d
}
