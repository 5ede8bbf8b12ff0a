package handlers

import (
	"net/http"

	"aura/internal/database"
)

// Notifications returns the latest notifications.
func (a *API) Notifications(w http.ResponseWriter, r *http.Request) {
	notes, err := database.ListNotifications(currentUser(r).ID, notificationLimit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// MarkAllNotificationsRead marks every notification read.
func (a *API) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := database.MarkAllNotificationsRead(currentUser(r).ID); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkNotificationRead marks one notification read.
func (a *API) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := database.MarkNotificationRead(currentUser(r).ID, id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
