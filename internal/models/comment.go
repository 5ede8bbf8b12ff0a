package models

import "time"

type Comment struct {
	ID        int       `json:"id"`
	PostID    int       `json:"post_id"`
	UserID    int       `json:"user_id"`
	ParentID  *int      `json:"parent_id,omitempty"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Replies   []Comment `json:"replies,omitempty"`
}

// BuildCommentTree nests a flat, chronologically ordered list of comments under
// their parents. Comments whose parent is missing are kept at the top level.
func BuildCommentTree(flat []Comment) []Comment {
	children := make(map[int][]Comment)
	known := make(map[int]bool, len(flat))
	for _, c := range flat {
		known[c.ID] = true
	}

	var roots []Comment
	for _, c := range flat {
		if c.ParentID != nil && known[*c.ParentID] {
			children[*c.ParentID] = append(children[*c.ParentID], c)
			continue
		}
		roots = append(roots, c)
	}

	var attach func(cs []Comment) []Comment
	attach = func(cs []Comment) []Comment {
		for i := range cs {
			if kids, ok := children[cs[i].ID]; ok {
				cs[i].Replies = attach(kids)
			}
		}
		return cs
	}
	return attach(roots)
}

// CountComments counts every comment in a tree, replies included.
func CountComments(tree []Comment) int {
	n := 0
	for _, c := range tree {
		n += 1 + CountComments(c.Replies)
	}
	return n
}
