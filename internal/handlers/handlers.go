package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"aura/config"
	"aura/internal/auth"
	"aura/internal/database"
	"aura/internal/models"

	"github.com/gorilla/mux"
)

// Content limits, counted in runes.
const (
	maxPostRunes        = 2500
	maxCommentRunes     = 500
	maxMessageRunes     = 1000
	maxAdTitleRunes     = 80
	maxAdContentRunes   = 500
	maxBioRunes         = 300
	maxDisplayNameRunes = 40

	maxBodyBytes      = 64 << 10
	notificationLimit = 50
	transactionLimit  = 50
	searchLimit       = 20
)

// LiveHub delivers analytics events to connected owners.
type LiveHub interface {
	Publish(userID int, event models.AnalyticsEvent)
	ServeWS(w http.ResponseWriter, r *http.Request, userID int)
}

// Tickets issues and checks WebSocket tickets.
type Tickets interface {
	Issue(userID int) (string, time.Time, error)
	Verify(ticket string) (int, error)
}

// API holds the dependencies of the JSON handlers.
type API struct {
	cfg     *config.Config
	hub     LiveHub
	tickets Tickets
	logger  *log.Logger
}

// New returns the API handlers.
func New(cfg *config.Config, hub LiveHub, tickets Tickets, logger *log.Logger) *API {
	return &API{cfg: cfg, hub: hub, tickets: tickets, logger: logger}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusFor maps package errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, database.ErrInvalidInput), errors.Is(err, auth.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrConflict), errors.Is(err, auth.ErrEmailExists), errors.Is(err, auth.ErrUsernameExists):
		return http.StatusConflict
	case errors.Is(err, database.ErrInsufficientCredits):
		return http.StatusPaymentRequired
	case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidPassword), errors.Is(err, auth.ErrSessionNotFound):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err to the client. Server errors are logged and hidden.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.logger.Printf("ERROR: %s %s: %v", r.Method, r.URL.Path, err)
		writeMessage(w, status, "Internal Server Error")
		return
	}
	writeMessage(w, status, err.Error())
}

// decodeJSON reads a JSON body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", database.ErrInvalidInput)
	}
	return nil
}

// pathID parses the named route variable as a positive integer.
func pathID(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", database.ErrInvalidInput, name)
	}
	return id, nil
}

func countRunes(s string) int {
	return utf8.RuneCountInString(s)
}

// checkText trims s and enforces its rune limit.
func checkText(field, s string, max int, required bool) (string, error) {
	s = strings.TrimSpace(s)
	if required && s == "" {
		return "", fmt.Errorf("%w: %s cannot be empty", database.ErrInvalidInput, field)
	}
	if countRunes(s) > max {
		return "", fmt.Errorf("%w: %s exceeds %d characters", database.ErrInvalidInput, field, max)
	}
	return s, nil
}

// currentUser returns the authenticated user. Routes using it sit behind RequireAuthMiddleware.
func currentUser(r *http.Request) *models.User {
	return auth.GetUserFromContext(r.Context())
}

// Health reports liveness.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFound answers unknown routes in JSON.
func (a *API) NotFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, "Not Found")
}

// MethodNotAllowed answers known routes called with the wrong method.
func (a *API) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}
