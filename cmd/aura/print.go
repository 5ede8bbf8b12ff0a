package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"aura/internal/models"
)

func displayName(u models.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// formatReactions renders counts in the fixed emoji order, marking the
// viewer's own reactions with an asterisk.
func formatReactions(counts map[string]int, mine []string) string {
	own := make(map[string]bool, len(mine))
	for _, e := range mine {
		own[e] = true
	}
	var parts []string
	for _, e := range models.AllowedEmojis {
		if counts[e] == 0 {
			continue
		}
		mark := ""
		if own[e] {
			mark = "*"
		}
		parts = append(parts, fmt.Sprintf("%s%d%s", e, counts[e], mark))
	}
	if len(parts) == 0 {
		return "no reactions"
	}
	return strings.Join(parts, " ")
}

func printPost(w io.Writer, p models.Post) {
	boost := ""
	if p.Boosted(time.Now()) {
		boost = " [boosted]"
	}
	fmt.Fprintf(w, "#%d %s%s  %s\n", p.ID, p.Author, boost, p.CreatedAt.Local().Format("Jan 2 15:04"))
	fmt.Fprintf(w, "  %s\n", p.Content)
	if p.MediaURL != "" {
		fmt.Fprintf(w, "  %s\n", p.MediaURL)
	}
	fmt.Fprintf(w, "  radiance %d | %s | %d comments\n", p.Radiance, formatReactions(p.Reactions, p.UserReactions), p.CommentCount)
}

func printComments(w io.Writer, cs []models.Comment, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, c := range cs {
		fmt.Fprintf(w, "%s#%d %s: %s\n", indent, c.ID, c.Author, c.Content)
		printComments(w, c.Replies, depth+1)
	}
}

func printMessage(w io.Writer, m models.Message, me int) {
	who := "them"
	if m.SenderID == me {
		who = "you"
	}
	status := ""
	if m.ID < 0 {
		status = " (sending)"
	}
	fmt.Fprintf(w, "[%s] %s: %s%s\n", m.CreatedAt.Local().Format("15:04"), who, m.Content, status)
}

func printNotification(w io.Writer, n models.Notification) {
	mark := " "
	if !n.IsRead {
		mark = "•"
	}
	actor := n.Actor
	if actor != "" {
		actor += " "
	}
	fmt.Fprintf(w, "%s %s%s  (%s)\n", mark, actor, n.Message, n.CreatedAt.Local().Format("Jan 2 15:04"))
}

func printUsers(w io.Writer, title string, users []models.User) {
	fmt.Fprintf(w, "%s (%d)\n", title, len(users))
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	for _, u := range users {
		fmt.Fprintf(w, "  %s (@%s, id %d)\n", displayName(u), u.Username, u.ID)
	}
}

func printEvent(w io.Writer, ev models.AnalyticsEvent) {
	target := fmt.Sprintf("post #%d", ev.PostID)
	if ev.AdID != 0 {
		target = fmt.Sprintf("ad #%d", ev.AdID)
	}
	fmt.Fprintf(w, "live: %s on %s by user %d, radiance %d\n", ev.Type, target, ev.ActorID, ev.Radiance)
}
