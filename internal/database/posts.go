package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"aura/internal/models"
)

// PostsPerPage is the feed page size.
const PostsPerPage = 10

// Feed filters.
const (
	FilterAll           = "all"
	FilterMine          = "mine"
	FilterAcquaintances = "acquaintances"
	FilterBoosted       = "boosted"
	FilterReacted       = "reacted"
)

const postSelect = `
	SELECT p.id, p.user_id, u.username, p.content, p.media_url, p.radiance, p.boosted_until, p.created_at,
	       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comment_count
	FROM posts p
	JOIN users u ON u.id = p.user_id
`

func scanPost(rows interface{ Scan(...interface{}) error }) (models.Post, error) {
	var p models.Post
	var boosted sql.NullTime
	err := rows.Scan(&p.ID, &p.UserID, &p.Author, &p.Content, &p.MediaURL, &p.Radiance, &boosted, &p.CreatedAt, &p.CommentCount)
	if boosted.Valid {
		t := boosted.Time
		p.BoostedUntil = &t
	}
	p.Reactions = map[string]int{}
	p.UserReactions = []string{}
	return p, err
}

// CreatePost stores a new post by userID.
func CreatePost(userID int, content, mediaURL string) (*models.Post, error) {
	res, err := DB.Exec("INSERT INTO posts (user_id, content, media_url, created_at) VALUES (?, ?, ?, ?)",
		userID, content, mediaURL, now())
	if err != nil {
		return nil, fmt.Errorf("database: failed to create post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("database: failed to get post ID: %w", err)
	}
	return GetPost(userID, int(id))
}

// GetPost loads one post with its comment tree, if viewerID may see it.
func GetPost(viewerID, id int) (*models.Post, error) {
	visible, args := visibleTo("p.user_id", viewerID)
	row := DB.QueryRow(postSelect+" WHERE p.id = ? AND "+visible, append([]interface{}{id}, args...)...)
	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database: failed to load post %d: %w", id, err)
	}

	posts := []models.Post{post}
	if err := attachReactions(DB, viewerID, posts); err != nil {
		return nil, err
	}
	flat, err := listComments(DB, id)
	if err != nil {
		return nil, err
	}
	posts[0].Comments = models.BuildCommentTree(flat)
	return &posts[0], nil
}

// Feed returns one page of posts visible to viewerID. Boosted posts come first, then newest.
func Feed(viewerID int, filter string, page int) (*models.FeedPage, error) {
	if page < 1 {
		page = 1
	}

	visible, args := visibleTo("p.user_id", viewerID)
	where := []string{visible}
	switch filter {
	case "", FilterAll:
	case FilterMine:
		where = append(where, "p.user_id = ?")
		args = append(args, viewerID)
	case FilterAcquaintances:
		where = append(where, `EXISTS (SELECT 1 FROM acquaintances a WHERE a.status = 'accepted'
			AND ((a.requester_id = p.user_id AND a.addressee_id = ?) OR (a.requester_id = ? AND a.addressee_id = p.user_id)))`)
		args = append(args, viewerID, viewerID)
	case FilterBoosted:
		where = append(where, "p.boosted_until IS NOT NULL AND p.boosted_until > ?")
		args = append(args, now())
	case FilterReacted:
		where = append(where, "EXISTS (SELECT 1 FROM post_reactions r WHERE r.post_id = p.id AND r.user_id = ?)")
		args = append(args, viewerID)
	default:
		return nil, fmt.Errorf("%w: unknown feed filter %q", ErrInvalidInput, filter)
	}
	whereStr := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := DB.QueryRow("SELECT COUNT(*) FROM posts p"+whereStr, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("database: failed to count posts: %w", err)
	}

	query := postSelect + whereStr + `
		ORDER BY (p.boosted_until IS NOT NULL AND p.boosted_until > ?) DESC, p.created_at DESC, p.id DESC
		LIMIT ? OFFSET ?`
	queryArgs := append(append([]interface{}{}, args...), now(), PostsPerPage, (page-1)*PostsPerPage)

	rows, err := DB.Query(query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("database: failed to load feed: %w", err)
	}
	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("database: failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := attachReactions(DB, viewerID, posts); err != nil {
		return nil, err
	}
	return &models.FeedPage{
		Posts:      posts,
		Page:       page,
		TotalPages: (total + PostsPerPage - 1) / PostsPerPage,
	}, nil
}

// DeletePost deletes a post owned by userID.
func DeletePost(userID, id int) error {
	owner, err := postOwner(DB, id)
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	if _, err := DB.Exec("DELETE FROM posts WHERE id = ?", id); err != nil {
		return fmt.Errorf("database: failed to delete post: %w", err)
	}
	return nil
}

func postOwner(q querier, id int) (int, error) {
	var owner int
	err := q.QueryRow("SELECT user_id FROM posts WHERE id = ?", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("database: failed to query post owner: %w", err)
	}
	return owner, nil
}

// visiblePostOwner returns the owner of post id, or ErrNotFound if viewerID may not see it.
func visiblePostOwner(q querier, viewerID, id int) (int, error) {
	owner, err := postOwner(q, id)
	if err != nil {
		return 0, err
	}
	ok, err := canView(q, viewerID, owner)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNotFound
	}
	return owner, nil
}

// ReactionStates returns the current reaction summaries of the visible posts among ids, in ids order.
func ReactionStates(viewerID int, ids []int) ([]models.ReactionState, error) {
	if len(ids) == 0 {
		return []models.ReactionState{}, nil
	}
	ph, idArgs := placeholders(ids)
	visible, visArgs := visibleTo("p.user_id", viewerID)
	rows, err := DB.Query("SELECT p.id, p.radiance FROM posts p WHERE p.id IN ("+ph+") AND "+visible,
		append(idArgs, visArgs...)...)
	if err != nil {
		return nil, fmt.Errorf("database: failed to load reaction states: %w", err)
	}
	radiance := make(map[int]int, len(ids))
	for rows.Next() {
		var id, r int
		if err := rows.Scan(&id, &r); err != nil {
			rows.Close()
			return nil, fmt.Errorf("database: failed to scan reaction state: %w", err)
		}
		radiance[id] = r
	}
	rows.Close()

	var posts []models.Post
	for _, id := range ids {
		if r, ok := radiance[id]; ok {
			posts = append(posts, models.Post{ID: id, Radiance: r, Reactions: map[string]int{}, UserReactions: []string{}})
		}
	}
	if err := attachReactions(DB, viewerID, posts); err != nil {
		return nil, err
	}

	states := make([]models.ReactionState, 0, len(posts))
	for _, p := range posts {
		states = append(states, models.ReactionState{
			PostID:        p.ID,
			Reactions:     p.Reactions,
			UserReactions: p.UserReactions,
			Radiance:      p.Radiance,
		})
	}
	return states, nil
}

// attachReactions fills Reactions and UserReactions of posts for viewerID.
func attachReactions(q querier, viewerID int, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	index := make(map[int]int, len(posts))
	ids := make([]int, len(posts))
	for i, p := range posts {
		index[p.ID] = i
		ids[i] = p.ID
	}
	ph, args := placeholders(ids)

	rows, err := q.Query("SELECT post_id, emoji, COUNT(*) FROM post_reactions WHERE post_id IN ("+ph+") GROUP BY post_id, emoji", args...)
	if err != nil {
		return fmt.Errorf("database: failed to count reactions: %w", err)
	}
	for rows.Next() {
		var postID, n int
		var emoji string
		if err := rows.Scan(&postID, &emoji, &n); err != nil {
			rows.Close()
			return fmt.Errorf("database: failed to scan reaction count: %w", err)
		}
		posts[index[postID]].Reactions[emoji] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("database: failed to read reaction counts: %w", err)
	}

	rows, err = q.Query("SELECT post_id, emoji FROM post_reactions WHERE user_id = ? AND post_id IN ("+ph+") ORDER BY id",
		append([]interface{}{viewerID}, args...)...)
	if err != nil {
		return fmt.Errorf("database: failed to load user reactions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var postID int
		var emoji string
		if err := rows.Scan(&postID, &emoji); err != nil {
			return fmt.Errorf("database: failed to scan user reaction: %w", err)
		}
		i := index[postID]
		posts[i].UserReactions = append(posts[i].UserReactions, emoji)
	}
	return rows.Err()
}
