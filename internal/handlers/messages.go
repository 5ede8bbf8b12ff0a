package handlers

import (
	"net/http"

	"aura/internal/database"
)

type messageRequest struct {
	Content string `json:"content"`
}

// Conversations lists the user's message threads.
func (a *API) Conversations(w http.ResponseWriter, r *http.Request) {
	convs, err := database.Conversations(currentUser(r).ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

// Thread returns the messages exchanged with a peer after the ?after= (or ?since=)
// message id and marks the peer's messages read.
func (a *API) Thread(w http.ResponseWriter, r *http.Request) {
	peerID, err := pathID(r, "userID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	after, err := parseAfter(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	msgs, err := database.Thread(currentUser(r).ID, peerID, after)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// SendMessage sends a direct message to a peer.
func (a *API) SendMessage(w http.ResponseWriter, r *http.Request) {
	peerID, err := pathID(r, "userID")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	content, err := checkText("message", req.Content, maxMessageRunes, true)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	msg, err := database.SendMessage(currentUser(r).ID, peerID, content)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
