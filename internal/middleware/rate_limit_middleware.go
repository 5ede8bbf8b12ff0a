package middleware

import (
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// clientState holds the request counter of one client address.
type clientState struct {
	windowStart  time.Time
	requestCount int
	mu           sync.Mutex
}

// RateLimiter caps mutating requests per client IP within a fixed window.
// Reads and reaction toggles are never limited.
type RateLimiter struct {
	maxRequests int
	window      time.Duration

	mu      sync.Mutex
	clients map[string]*clientState
	once    sync.Once
}

// NewRateLimiter allows maxRequests mutating requests per window and client.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		clients:     make(map[string]*clientState),
	}
}

func exempt(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return strings.HasSuffix(r.URL.Path, "/reactions")
}

// Allow records a request from ip and reports whether it is within the limit.
func (l *RateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	state, exists := l.clients[ip]
	if !exists {
		state = &clientState{}
		l.clients[ip] = state
	}
	l.mu.Unlock()

	state.mu.Lock()
	defer state.mu.Unlock()

	if time.Since(state.windowStart) > l.window {
		state.requestCount = 0
		state.windowStart = time.Now()
	}
	state.requestCount++
	return state.requestCount <= l.maxRequests
}

// Middleware applies the limiter to next.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	l.once.Do(func() {
		go l.cleanup()
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.maxRequests <= 0 || exempt(r) {
			next.ServeHTTP(w, r)
			return
		}

		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			log.Printf("Error splitting host port: %v", err)
			ip = r.RemoteAddr
		}

		if !l.Allow(ip) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"Too Many Requests"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// cleanup drops clients idle for two windows.
func (l *RateLimiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		for ip, state := range l.clients {
			state.mu.Lock()
			if time.Since(state.windowStart) > 2*l.window {
				delete(l.clients, ip)
			}
			state.mu.Unlock()
		}
		l.mu.Unlock()
	}
}
