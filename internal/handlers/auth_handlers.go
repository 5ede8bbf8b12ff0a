package handlers

import (
	"errors"
	"net/http"

	"aura/internal/auth"
	"aura/internal/models"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Register creates an account with the starting credit grant.
func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	user, err := auth.RegisterUser(req.Email, req.Username, req.Password, a.cfg.Credits.Starting)
	if err != nil {
		a.logger.Printf("Registration error: %v", err)
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login opens a session, sets the cookie and returns the token for non-browser clients.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	user, session, err := auth.LoginUser(req.Login, req.Password, a.cfg.Session.Expiration)
	if err != nil {
		a.logger.Printf("Login error for %s: %v", req.Login, err)
		if errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrInvalidPassword) {
			writeMessage(w, http.StatusUnauthorized, "Invalid email/username or password.")
			return
		}
		a.writeError(w, r, err)
		return
	}

	auth.SetSessionCookie(w, session.UUID, session.Expires)
	a.logger.Printf("User '%s' (ID: %d) logged in successfully.", user.Username, user.ID)
	writeJSON(w, http.StatusOK, models.LoginResult{User: *user, Token: session.UUID, ExpiresAt: session.Expires})
}

// Logout deletes the session and clears the cookie.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionCookie, err := r.Cookie(auth.SessionCookieName); err == nil {
		if err := auth.LogoutUser(sessionCookie.Value); err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
			a.logger.Printf("ERROR: deleting session: %v", err)
		}
	}
	auth.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user.
func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}
