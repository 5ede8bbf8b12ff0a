package handlers

import (
	"fmt"
	"net/http"

	"aura/internal/database"
	"aura/internal/models"
)

type reactionRequest struct {
	Emoji string `json:"emoji"`
}

type commentRequest struct {
	Content  string `json:"content"`
	ParentID *int   `json:"parent_id"`
}

type boostRequest struct {
	Credits int `json:"credits"`
}

// TogglePostReaction adds or removes one emoji reaction of the user on a post.
func (a *API) TogglePostReaction(w http.ResponseWriter, r *http.Request) {
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

	user := currentUser(r)
	res, err := database.TogglePostReaction(user.ID, id, req.Emoji)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.hub.Publish(res.OwnerID, models.AnalyticsEvent{
		Type:      models.EventReaction,
		PostID:    id,
		ActorID:   user.ID,
		Radiance:  res.State.Radiance,
		Reactions: res.State.Reactions,
	})
	writeJSON(w, http.StatusOK, models.ReactionToggle{ReactionState: res.State, Added: res.Added})
}

// CreateComment adds a comment, or a reply when parent_id is set.
func (a *API) CreateComment(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	content, err := checkText("comment", req.Content, maxCommentRunes, true)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	user := currentUser(r)
	res, err := database.CreateComment(user.ID, postID, req.ParentID, content)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.hub.Publish(res.PostOwnerID, models.AnalyticsEvent{
		Type:     models.EventComment,
		PostID:   postID,
		ActorID:  user.ID,
		Radiance: res.Radiance,
	})
	writeJSON(w, http.StatusCreated, res.Comment)
}

// DeleteComment deletes one of the user's comments with its replies.
func (a *API) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := database.DeleteComment(currentUser(r).ID, id); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BoostPost spends the user's credits on a post.
func (a *API) BoostPost(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req boostRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if req.Credits <= 0 {
		a.writeError(w, r, fmt.Errorf("%w: credits must be positive", database.ErrInvalidInput))
		return
	}

	user := currentUser(r)
	res, err := database.BoostPost(user.ID, postID, req.Credits, a.cfg.Credits.BoostRadiancePerCredit, a.cfg.Credits.BoostDuration)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.hub.Publish(res.OwnerID, models.AnalyticsEvent{
		Type:      models.EventBoost,
		PostID:    postID,
		ActorID:   user.ID,
		Radiance:  res.State.Radiance,
		Reactions: res.State.Reactions,
	})
	writeJSON(w, http.StatusOK, models.BoostReceipt{
		PostID:       postID,
		Radiance:     res.State.Radiance,
		Balance:      res.Balance,
		BoostedUntil: res.BoostedUntil,
	})
}
