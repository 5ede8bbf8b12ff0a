package handlers

import (
	"net/http"

	"aura/internal/database"
)

const maxReactionIDs = 100

type createPostRequest struct {
	Content  string `json:"content"`
	MediaURL string `json:"media_url"`
}

// Feed returns one page of the home feed.
func (a *API) Feed(w http.ResponseWriter, r *http.Request) {
	q, err := parseFeedQuery(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	page, err := database.Feed(currentUser(r).ID, q.Filter, q.Page)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// CreatePost publishes a post.
func (a *API) CreatePost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	content, err := checkText("content", req.Content, maxPostRunes, true)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	post, err := database.CreatePost(currentUser(r).ID, content, req.MediaURL)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

// GetPost returns a post with its comment tree.
func (a *API) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	post, err := database.GetPost(currentUser(r).ID, id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// DeletePost deletes one of the user's posts.
func (a *API) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := database.DeletePost(currentUser(r).ID, id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReactionStates returns the current reaction summaries of ?ids=. Posts the
// viewer cannot see are left out.
func (a *API) ReactionStates(w http.ResponseWriter, r *http.Request) {
	ids, err := parseIDs(r.URL.Query().Get("ids"), maxReactionIDs)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	states, err := database.ReactionStates(currentUser(r).ID, ids)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, states)
}
