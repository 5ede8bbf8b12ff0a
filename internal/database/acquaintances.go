package database

import (
	"database/sql"
	"errors"
	"fmt"

	"aura/internal/models"
)

// RequestAcquaintance sends an acquaintance request from fromID to toID, or
// accepts toID's pending request if there is one. It returns the resulting relationship.
func RequestAcquaintance(fromID, toID int) (string, error) {
	if fromID == toID {
		return "", fmt.Errorf("%w: cannot befriend yourself", ErrInvalidInput)
	}

	var rel string
	err := withTx(func(tx *sql.Tx) error {
		if _, err := getUserByID(tx, toID); err != nil {
			return err
		}
		blocked, err := isBlockedEitherWay(tx, fromID, toID)
		if err != nil {
			return err
		}
		if blocked {
			return ErrForbidden
		}

		rel, err = relationship(tx, fromID, toID)
		if err != nil {
			return err
		}
		switch rel {
		case models.RelationAcquaintance, models.RelationRequested:
			return nil
		case models.RelationPending:
			_, err = tx.Exec("UPDATE acquaintances SET status = 'accepted' WHERE requester_id = ? AND addressee_id = ?", toID, fromID)
			if err != nil {
				return fmt.Errorf("database: failed to accept acquaintance: %w", err)
			}
			if err := adjustTrust(tx, fromID, 2); err != nil {
				return err
			}
			if err := adjustTrust(tx, toID, 2); err != nil {
				return err
			}
			rel = models.RelationAcquaintance
			return createNotification(tx, toID, models.NotifyAcquaintanceAccepted, &fromID, nil, "accepted your acquaintance request")
		default:
			_, err = tx.Exec("INSERT INTO acquaintances (requester_id, addressee_id, status) VALUES (?, ?, 'pending')", fromID, toID)
			if err != nil {
				return fmt.Errorf("database: failed to insert acquaintance request: %w", err)
			}
			rel = models.RelationRequested
			return createNotification(tx, toID, models.NotifyAcquaintanceRequest, &fromID, nil, "wants to be your acquaintance")
		}
	})
	if err != nil {
		return "", err
	}
	return rel, nil
}

// RemoveAcquaintance removes an acquaintance, or declines/cancels a pending request, in either direction.
func RemoveAcquaintance(userID, otherID int) error {
	return deleteAcquaintance(DB, userID, otherID)
}

func deleteAcquaintance(q querier, a, b int) error {
	_, err := q.Exec(`DELETE FROM acquaintances
		WHERE (requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)`, a, b, b, a)
	if err != nil {
		return fmt.Errorf("database: failed to delete acquaintance: %w", err)
	}
	return nil
}

// ListAcquaintances returns accepted acquaintances and pending requests in both directions.
func ListAcquaintances(userID int) (*models.Acquaintances, error) {
	rows, err := DB.Query(`SELECT requester_id, addressee_id, status FROM acquaintances
		WHERE requester_id = ? OR addressee_id = ?
		ORDER BY created_at DESC`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("database: failed to list acquaintances: %w", err)
	}

	type edge struct {
		other    int
		outgoing bool
		accepted bool
	}
	var edges []edge
	var ids []int
	for rows.Next() {
		var requester, addressee int
		var status string
		if err := rows.Scan(&requester, &addressee, &status); err != nil {
			rows.Close()
			return nil, fmt.Errorf("database: failed to scan acquaintance: %w", err)
		}
		e := edge{other: addressee, outgoing: true, accepted: status == "accepted"}
		if addressee == userID {
			e.other, e.outgoing = requester, false
		}
		edges = append(edges, e)
		ids = append(ids, e.other)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	users, err := publicUsers(DB, ids)
	if err != nil {
		return nil, err
	}

	out := &models.Acquaintances{
		Acquaintances: []models.User{},
		Incoming:      []models.User{},
		Outgoing:      []models.User{},
	}
	for _, e := range edges {
		u := users[e.other]
		switch {
		case e.accepted:
			out.Acquaintances = append(out.Acquaintances, u)
		case e.outgoing:
			out.Outgoing = append(out.Outgoing, u)
		default:
			out.Incoming = append(out.Incoming, u)
		}
	}
	return out, nil
}

func acceptedAcquaintances(q querier, userID int) ([]models.User, error) {
	rows, err := q.Query(`SELECT CASE WHEN requester_id = ? THEN addressee_id ELSE requester_id END
		FROM acquaintances WHERE status = 'accepted' AND (requester_id = ? OR addressee_id = ?)`, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("database: failed to list acquaintances: %w", err)
	}
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("database: failed to scan acquaintance: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	users, err := publicUsers(q, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, users[id])
	}
	return out, nil
}

func areAcquaintances(q querier, a, b int) (bool, error) {
	var exists bool
	err := q.QueryRow(`SELECT EXISTS(SELECT 1 FROM acquaintances WHERE status = 'accepted'
		AND ((requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)))`, a, b, b, a).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("database: failed to check acquaintance: %w", err)
	}
	return exists, nil
}

// relationship describes how otherID relates to viewerID.
func relationship(q querier, viewerID, otherID int) (string, error) {
	if viewerID == otherID {
		return models.RelationSelf, nil
	}
	var blocked bool
	if err := q.QueryRow("SELECT EXISTS(SELECT 1 FROM blocks WHERE blocker_id = ? AND blocked_id = ?)", viewerID, otherID).Scan(&blocked); err != nil {
		return "", fmt.Errorf("database: failed to check block: %w", err)
	}
	if blocked {
		return models.RelationBlocked, nil
	}

	var requester int
	var status string
	err := q.QueryRow(`SELECT requester_id, status FROM acquaintances
		WHERE (requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?)`,
		viewerID, otherID, otherID, viewerID).Scan(&requester, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RelationNone, nil
	}
	if err != nil {
		return "", fmt.Errorf("database: failed to query relationship: %w", err)
	}
	switch {
	case status == "accepted":
		return models.RelationAcquaintance, nil
	case requester == viewerID:
		return models.RelationRequested, nil
	default:
		return models.RelationPending, nil
	}
}
