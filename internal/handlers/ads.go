package handlers

import (
	"net/http"
	"strings"

	"aura/internal/database"
	"aura/internal/models"
)

type createAdRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	LinkURL string `json:"link_url"`
	Budget  int    `json:"budget"`
}

type adStatusRequest struct {
	Status string `json:"status"`
}

// ServeAds returns the ads to show the viewer and records their impressions.
func (a *API) ServeAds(w http.ResponseWriter, r *http.Request) {
	ads, err := database.ServeAds(currentUser(r).ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ads)
}

// MyAds lists the user's own ads with their stats.
func (a *API) MyAds(w http.ResponseWriter, r *http.Request) {
	ads, err := database.MyAds(currentUser(r).ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ads)
}

// CreateAd funds a new ad from the user's credits.
func (a *API) CreateAd(w http.ResponseWriter, r *http.Request) {
	var req createAdRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	title, err := checkText("title", req.Title, maxAdTitleRunes, true)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	content, err := checkText("content", req.Content, maxAdContentRunes, true)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	ad, err := database.CreateAd(currentUser(r).ID, title, content, strings.TrimSpace(req.LinkURL), req.Budget)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ad)
}

// SetAdStatus pauses or resumes one of the user's ads.
func (a *API) SetAdStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req adStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	ad, err := database.SetAdStatus(currentUser(r).ID, id, req.Status)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ad)
}

// ToggleAdReaction adds or removes one emoji reaction on an ad.
func (a *API) ToggleAdReaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req reactionRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	res, err := database.ToggleAdReaction(currentUser(r).ID, id, req.Emoji)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ReactionToggle{ReactionState: res.State, Added: res.Added})
}

// AdClick records a click and tells the ad owner.
func (a *API) AdClick(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	user := currentUser(r)
	ad, err := database.RecordAdClick(user.ID, id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.hub.Publish(ad.OwnerID, models.AnalyticsEvent{Type: models.EventAdClick, AdID: ad.ID, ActorID: user.ID})
	writeJSON(w, http.StatusOK, ad)
}
