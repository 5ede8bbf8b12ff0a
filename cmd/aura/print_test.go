package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"aura/internal/models"
)

func TestFormatReactions(t *testing.T) {
	cases := []struct {
		counts map[string]int
		mine   []string
		want   string
	}{
		{nil, nil, "no reactions"},
		{map[string]int{"🔥": 2, "✨": 1}, []string{"🔥"}, "✨1 🔥2*"},
		{map[string]int{"👏": 0}, nil, "no reactions"},
	}
	for _, c := range cases {
		if got := formatReactions(c.counts, c.mine); got != c.want {
			t.Errorf("formatReactions(%v, %v) = %q, want %q", c.counts, c.mine, got, c.want)
		}
	}
}

func TestParseID(t *testing.T) {
	if id, err := parseID("12", "post id"); err != nil || id != 12 {
		t.Fatalf("parseID = %d, %v", id, err)
	}
	for _, raw := range []string{"", "0", "-3", "x1"} {
		if _, err := parseID(raw, "post id"); err == nil {
			t.Errorf("parseID(%q) should fail", raw)
		}
	}
}

func TestPrintMessageMarksPending(t *testing.T) {
	var buf bytes.Buffer
	printMessage(&buf, models.Message{ID: -1, SenderID: 1, Content: "hi", CreatedAt: time.Now()}, 1)
	if out := buf.String(); !strings.Contains(out, "you: hi (sending)") {
		t.Fatalf("unexpected output %q", out)
	}
}
