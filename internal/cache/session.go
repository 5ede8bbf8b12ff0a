package cache

import (
	"strings"
	"sync"
)

// Session is an in-memory key/value store that lives as long as the process.
type Session struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewSession() *Session {
	return &Session{data: make(map[string]string)}
}

func (s *Session) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *Session) Set(key, value string) {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
}

func (s *Session) Delete(key string) {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
}

// Has reports whether any key starts with prefix.
func (s *Session) Has(prefix string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// Clear removes every entry.
func (s *Session) Clear() {
	s.mu.Lock()
	s.data = make(map[string]string)
	s.mu.Unlock()
}
