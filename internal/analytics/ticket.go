package analytics

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

// ErrInvalidTicket is returned for tickets that are malformed, forged or expired.
var ErrInvalidTicket = errors.New("analytics: invalid ticket")

// TicketIssuer signs short-lived tickets that authorize one WebSocket connection.
// Browsers cannot set cookies on a WebSocket dial from another origin, so the
// session is exchanged for a ticket passed in the query string.
type TicketIssuer struct {
	key []byte
	ttl time.Duration

	mu   sync.Mutex
	used map[string]time.Time // ticket id -> expiry
}

type ticketClaims struct {
	jwt.StandardClaims
}

// NewTicketIssuer derives the signing key from secret.
func NewTicketIssuer(secret string, ttl time.Duration) (*TicketIssuer, error) {
	if secret == "" {
		return nil, errors.New("analytics: empty secret")
	}
	h := hkdf.New(sha256.New, []byte(secret), nil, []byte("aura-analytics-ticket"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, fmt.Errorf("analytics: failed to derive ticket key: %w", err)
	}
	return &TicketIssuer{key: key, ttl: ttl, used: make(map[string]time.Time)}, nil
}

// Issue returns a signed ticket for userID.
func (t *TicketIssuer) Issue(userID int) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(t.ttl)
	claims := ticketClaims{jwt.StandardClaims{
		Id:        uuid.New().String(),
		Subject:   strconv.Itoa(userID),
		IssuedAt:  now.Unix(),
		ExpiresAt: expires.Unix(),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("analytics: failed to sign ticket: %w", err)
	}
	return signed, expires, nil
}

// Verify checks a ticket and returns the user it was issued to. A ticket is
// accepted only once.
func (t *TicketIssuer) Verify(ticket string) (int, error) {
	token, err := jwt.ParseWithClaims(ticket, &ticketClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.key, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidTicket
	}
	claims, ok := token.Claims.(*ticketClaims)
	if !ok {
		return 0, ErrInvalidTicket
	}
	userID, err := strconv.Atoi(claims.Subject)
	if err != nil || claims.Id == "" {
		return 0, ErrInvalidTicket
	}
	if !t.redeem(claims.Id, time.Unix(claims.ExpiresAt, 0)) {
		return 0, ErrInvalidTicket
	}
	return userID, nil
}

// redeem marks ticket id as used and reports whether it was still unused.
// Expired ids are swept on the way.
func (t *TicketIssuer) redeem(id string, expires time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	for used, exp := range t.used {
		if now.After(exp) {
			delete(t.used, used)
		}
	}
	if _, seen := t.used[id]; seen {
		return false
	}
	t.used[id] = expires
	return true
}
