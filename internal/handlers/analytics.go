package handlers

import (
	"net/http"

	"aura/internal/database"
	"aura/internal/models"
)

// AnalyticsSummary totals the engagement on the user's posts.
func (a *API) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := database.AnalyticsSummary(currentUser(r).ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// AnalyticsTicket issues a ticket for the live analytics WebSocket.
func (a *API) AnalyticsTicket(w http.ResponseWriter, r *http.Request) {
	ticket, expires, err := a.tickets.Issue(currentUser(r).ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.Ticket{Ticket: ticket, ExpiresAt: expires})
}

// AnalyticsStream upgrades to the live analytics WebSocket authorized by ?ticket=.
func (a *API) AnalyticsStream(w http.ResponseWriter, r *http.Request) {
	userID, err := a.tickets.Verify(r.URL.Query().Get("ticket"))
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "invalid or expired ticket")
		return
	}
	a.hub.ServeWS(w, r, userID)
}
