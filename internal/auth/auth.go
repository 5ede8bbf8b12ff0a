package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"time"

	"aura/config"
	"aura/internal/database"
	"aura/internal/models"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session_token"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidPassword = errors.New("invalid password")
	ErrEmailExists     = errors.New("email already exists")
	ErrUsernameExists  = errors.New("username already exists")
	ErrInvalidInput    = errors.New("invalid input")
	ErrSessionNotFound = errors.New("session not found or expired")
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[\p{L}0-9_]{3,20}$`)
	passwordRegex = regexp.MustCompile(`^.{6,64}$`)
)

// ValidateUserCredentials checks registration input.
func ValidateUserCredentials(email, username, password string) error {
	if !emailRegex.MatchString(email) || len(email) < 5 || len(email) > 100 {
		return fmt.Errorf("%w: invalid email format or length (5-100 characters)", ErrInvalidInput)
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("%w: invalid username (3-20 letters, numbers or underscores)", ErrInvalidInput)
	}
	if !passwordRegex.MatchString(password) {
		return fmt.Errorf("%w: invalid password length (6-64 characters)", ErrInvalidInput)
	}
	return nil
}

// RegisterUser creates an account holding startingCredits Aura Credits.
func RegisterUser(email, username, password string, startingCredits int) (*models.User, error) {
	if err := ValidateUserCredentials(email, username, password); err != nil {
		return nil, err
	}

	emailTaken, usernameTaken, err := database.EmailOrUsernameTaken(email, username)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	if emailTaken {
		return nil, ErrEmailExists
	}
	if usernameTaken {
		return nil, ErrUsernameExists
	}

	hashedPassword, err := database.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to hash password: %w", err)
	}

	user, err := database.CreateUser(email, username, hashedPassword, startingCredits)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to create user: %w", err)
	}
	return user, nil
}

// LoginUser checks a login (email or username) and password and opens a session valid for ttl.
func LoginUser(login, password string, ttl time.Duration) (*models.User, *models.Session, error) {
	user, err := database.GetUserForLogin(login)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("auth: %w", err)
	}

	if err = database.CheckPasswordHash(user.Password, password); err != nil {
		log.Printf("WARNING: Password check failed for user %s (ID: %d)", user.Username, user.ID)
		return nil, nil, ErrInvalidPassword
	}
	user.Password = ""

	session, err := database.CreateSession(user.ID, ttl)
	if err != nil {
		return nil, nil, fmt.Errorf("auth: %w", err)
	}
	return user, session, nil
}

// LogoutUser deletes a session.
func LogoutUser(sessionUUID string) error {
	found, err := database.DeleteSession(sessionUUID)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if !found {
		return ErrSessionNotFound
	}
	return nil
}

// GetUserBySession returns the user of a live session.
func GetUserBySession(sessionUUID string) (*models.User, error) {
	user, err := database.SessionUser(sessionUUID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("auth: %w", err)
	}
	return user, nil
}

// SetSessionCookie sets the session cookie.
func SetSessionCookie(w http.ResponseWriter, sessionUUID string, expirationTime time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionUUID,
		Path:     "/",
		Expires:  expirationTime,
		HttpOnly: true,
		Secure:   config.AppConfig != nil && config.AppConfig.Server.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.AppConfig != nil && config.AppConfig.Server.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

type contextKey string

const UserContextKey contextKey = "user"

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// GetUserFromContext returns the authenticated user stored in ctx, or nil.
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}
