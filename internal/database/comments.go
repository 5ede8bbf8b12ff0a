package database

import (
	"database/sql"
	"errors"
	"fmt"

	"aura/internal/models"
)

// CommentResult is a stored comment with the owner of the post it belongs to.
type CommentResult struct {
	Comment     models.Comment
	PostOwnerID int
	Radiance    int
}

func listComments(q querier, postID int) ([]models.Comment, error) {
	rows, err := q.Query(`
		SELECT c.id, c.post_id, c.user_id, c.parent_id, u.username, c.content, c.created_at
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.post_id = ?
		ORDER BY c.created_at ASC, c.id ASC`, postID)
	if err != nil {
		return nil, fmt.Errorf("database: failed to load comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		var parent sql.NullInt64
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &parent, &c.Author, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("database: failed to scan comment: %w", err)
		}
		c.ParentID = nullIntPtr(parent)
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// CreateComment adds a comment on postID, or a reply when parentID is set.
// A reply's parent must belong to the same post.
func CreateComment(userID, postID int, parentID *int, content string) (*CommentResult, error) {
	result := &CommentResult{}
	err := withTx(func(tx *sql.Tx) error {
		owner, err := visiblePostOwner(tx, userID, postID)
		if err != nil {
			return err
		}
		result.PostOwnerID = owner

		var parentAuthor int
		if parentID != nil {
			var parentPost int
			err := tx.QueryRow("SELECT post_id, user_id FROM comments WHERE id = ?", *parentID).Scan(&parentPost, &parentAuthor)
			if errors.Is(err, sql.ErrNoRows) || (err == nil && parentPost != postID) {
				return fmt.Errorf("%w: parent comment does not belong to this post", ErrInvalidInput)
			}
			if err != nil {
				return fmt.Errorf("database: failed to load parent comment: %w", err)
			}
		}

		created := now()
		res, err := tx.Exec("INSERT INTO comments (post_id, user_id, parent_id, content, created_at) VALUES (?, ?, ?, ?, ?)",
			postID, userID, parentID, content, created)
		if err != nil {
			return fmt.Errorf("database: failed to add comment: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("database: failed to get comment ID: %w", err)
		}

		var author string
		if err := tx.QueryRow("SELECT username FROM users WHERE id = ?", userID).Scan(&author); err != nil {
			return fmt.Errorf("database: failed to load comment author: %w", err)
		}
		if err := tx.QueryRow("SELECT radiance FROM posts WHERE id = ?", postID).Scan(&result.Radiance); err != nil {
			return fmt.Errorf("database: failed to load radiance: %w", err)
		}
		result.Comment = models.Comment{
			ID:        int(id),
			PostID:    postID,
			UserID:    userID,
			ParentID:  parentID,
			Author:    author,
			Content:   content,
			CreatedAt: created,
		}

		if err := createNotification(tx, owner, models.NotifyComment, &userID, &postID, "commented on your post"); err != nil {
			return err
		}
		if parentID != nil && parentAuthor != owner {
			return createNotification(tx, parentAuthor, models.NotifyReply, &userID, &postID, "replied to your comment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteComment deletes a comment written by userID together with its replies.
func DeleteComment(userID, id int) error {
	var author int
	err := DB.QueryRow("SELECT user_id FROM comments WHERE id = ?", id).Scan(&author)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("database: failed to verify comment ownership: %w", err)
	}
	if author != userID {
		return ErrForbidden
	}
	if _, err := DB.Exec("DELETE FROM comments WHERE id = ?", id); err != nil {
		return fmt.Errorf("database: failed to delete comment: %w", err)
	}
	return nil
}
