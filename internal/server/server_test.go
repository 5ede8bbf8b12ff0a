package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"aura/config"
	"aura/internal/analytics"
	"aura/internal/database"
	"aura/internal/handlers"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Default(":memory:?_foreign_keys=on")
	if err := database.InitDB(cfg); err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { database.DB.Close() })

	logger := log.New(io.Discard, "", 0)
	hub := analytics.NewHub(logger)
	t.Cleanup(hub.Close)
	tickets, err := analytics.NewTicketIssuer(cfg.Security.Secret, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(NewRouter(cfg, handlers.New(cfg, hub, tickets, logger)))
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, c *http.Client, url string, body interface{}) *http.Response {
	t.Helper()
	buf, _ := json.Marshal(body)
	resp, err := c.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestRoutes(t *testing.T) {
	ts := newTestServer(t)

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/posts", http.StatusUnauthorized},
		{http.MethodGet, "/auth/me", http.StatusUnauthorized},
		{http.MethodGet, "/no/such/page", http.StatusNotFound},
		{http.MethodGet, "/auth/login", http.StatusMethodNotAllowed},
		{http.MethodGet, "/ws/analytics?ticket=forged", http.StatusUnauthorized},
	}
	for _, c := range cases {
		req, _ := http.NewRequest(c.method, ts.URL+c.path, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", c.method, c.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != c.want {
			t.Errorf("%s %s = %d, want %d", c.method, c.path, resp.StatusCode, c.want)
		}
		if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("%s %s: secure headers missing", c.method, c.path)
		}
	}
}

func TestCookieSessionAndMethodOverride(t *testing.T) {
	ts := newTestServer(t)
	jar, _ := cookiejar.New(nil)
	c := &http.Client{Jar: jar}

	resp := postJSON(t, c, ts.URL+"/auth/register", map[string]string{
		"email": "alice@example.com", "username": "alice", "password": "password1",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register = %d", resp.StatusCode)
	}

	resp = postJSON(t, c, ts.URL+"/auth/login", map[string]string{"login": "alice", "password": "password1"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login = %d", resp.StatusCode)
	}

	resp = postJSON(t, c, ts.URL+"/api/posts", map[string]string{"content": "hello from the jar"})
	var post struct {
		ID int `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&post)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated || post.ID == 0 {
		t.Fatalf("create post = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/posts/"+strconv.Itoa(post.ID), nil)
	req.Header.Set("X-HTTP-Method-Override", http.MethodDelete)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("overridden delete = %d", resp.StatusCode)
	}

	resp = postJSON(t, c, ts.URL+"/auth/logout", nil)
	resp.Body.Close()
	resp, err = c.Get(ts.URL + "/auth/me")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me after logout = %d", resp.StatusCode)
	}
}
