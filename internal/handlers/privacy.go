package handlers

import (
	"net/http"

	"aura/internal/database"
	"aura/internal/models"
)

// PrivacySettings returns the user's privacy settings.
func (a *API) PrivacySettings(w http.ResponseWriter, r *http.Request) {
	settings, err := database.GetPrivacySettings(currentUser(r).ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// UpdatePrivacySettings replaces the user's privacy settings.
func (a *API) UpdatePrivacySettings(w http.ResponseWriter, r *http.Request) {
	var settings models.PrivacySettings
	if err := decodeJSON(r, &settings); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := database.UpdatePrivacySettings(currentUser(r).ID, settings); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// BlockedUsers lists the users the viewer blocked.
func (a *API) BlockedUsers(w http.ResponseWriter, r *http.Request) {
	users, err := database.ListBlockedUsers(currentUser(r).ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// Block blocks a user.
func (a *API) Block(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := database.BlockUser(currentUser(r).ID, id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unblock lifts a block.
func (a *API) Unblock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := database.UnblockUser(currentUser(r).ID, id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
