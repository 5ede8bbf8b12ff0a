package cache

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestSession(t *testing.T) {
	s := NewSession()
	if _, ok := s.Get("missing"); ok {
		t.Fatalf("empty session returned a value")
	}

	s.Set("pending-reaction:1:2", "✨")
	s.Set("pending-reaction:1:3", "🔥")
	if v, ok := s.Get("pending-reaction:1:2"); !ok || v != "✨" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
	if !s.Has("pending-reaction:1:") {
		t.Fatalf("Has should match the prefix")
	}

	s.Delete("pending-reaction:1:2")
	if _, ok := s.Get("pending-reaction:1:2"); ok {
		t.Fatalf("deleted key still present")
	}

	s.Clear()
	if s.Has("") {
		t.Fatalf("Clear left entries behind")
	}
}

func TestLocalPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	l, err := OpenLocal(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, err := l.Get("token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := l.Set("token", "abc"); err != nil {
		t.Fatal(err)
	}
	if err := l.Set("token", "def"); err != nil {
		t.Fatal(err)
	}
	l.Close()

	l, err = OpenLocal(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer l.Close()

	if v, err := l.Get("token"); err != nil || v != "def" {
		t.Fatalf("Get = %q, %v", v, err)
	}
	if err := l.Delete("token"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Get("token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
