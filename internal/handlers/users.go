package handlers

import (
	"net/http"
	"strings"

	"aura/internal/database"
)

type profileRequest struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
}

// SearchUsers finds searchable users matching ?q=.
func (a *API) SearchUsers(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	users, err := database.SearchUsers(currentUser(r).ID, term, searchLimit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Profile returns a user's profile as the viewer may see it.
func (a *API) Profile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	profile, err := database.GetProfile(currentUser(r).ID, id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile replaces the user's display name, bio and avatar.
func (a *API) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	displayName, err := checkText("display name", req.DisplayName, maxDisplayNameRunes, true)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	bio, err := checkText("bio", req.Bio, maxBioRunes, false)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	user, err := database.UpdateProfile(currentUser(r).ID, displayName, bio, strings.TrimSpace(req.AvatarURL))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Acquaintances lists the user's acquaintances and pending requests.
func (a *API) Acquaintances(w http.ResponseWriter, r *http.Request) {
	list, err := database.ListAcquaintances(currentUser(r).ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// RequestAcquaintance sends a request, or accepts the other user's pending one.
func (a *API) RequestAcquaintance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	rel, err := database.RequestAcquaintance(currentUser(r).ID, id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"relationship": rel})
}

// RemoveAcquaintance removes an acquaintance or a pending request.
func (a *API) RemoveAcquaintance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := database.RemoveAcquaintance(currentUser(r).ID, id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
