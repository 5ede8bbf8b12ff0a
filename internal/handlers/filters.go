package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"aura/internal/database"
)

// feedQuery is the parsed ?page=&filter= of a feed request.
type feedQuery struct {
	Page   int
	Filter string
}

func parseFeedQuery(r *http.Request) (feedQuery, error) {
	q := feedQuery{Page: 1, Filter: database.FilterAll}
	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return q, fmt.Errorf("%w: invalid page", database.ErrInvalidInput)
		}
		q.Page = page
	}
	if f := r.URL.Query().Get("filter"); f != "" {
		switch f {
		case database.FilterAll, database.FilterMine, database.FilterAcquaintances, database.FilterBoosted, database.FilterReacted:
			q.Filter = f
		default:
			return q, fmt.Errorf("%w: unknown filter %q", database.ErrInvalidInput, f)
		}
	}
	return q, nil
}

// parseIDs reads a comma separated id list such as ?ids=1,2,3.
func parseIDs(raw string, max int) ([]int, error) {
	if raw == "" {
		return []int{}, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) > max {
		return nil, fmt.Errorf("%w: at most %d ids", database.ErrInvalidInput, max)
	}
	ids := make([]int, 0, len(parts))
	seen := make(map[int]bool, len(parts))
	for _, p := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: invalid id %q", database.ErrInvalidInput, p)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// parseAfter reads the message cursor from ?after= or ?since=.
func parseAfter(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("after")
	if raw == "" {
		raw = r.URL.Query().Get("since")
	}
	if raw == "" {
		return 0, nil
	}
	after, err := strconv.Atoi(raw)
	if err != nil || after < 0 {
		return 0, fmt.Errorf("%w: invalid message cursor", database.ErrInvalidInput)
	}
	return after, nil
}
