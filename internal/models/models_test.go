package models

import "testing"

func TestToggleReaction(t *testing.T) {
	counts := map[string]int{"🔥": 2}
	mine := []string{}

	mine, added := ToggleReaction(counts, mine, "🔥")
	if !added || counts["🔥"] != 3 || len(mine) != 1 {
		t.Fatalf("add: added=%v counts=%v mine=%v", added, counts, mine)
	}
	mine, added = ToggleReaction(counts, mine, "🔥")
	if added || counts["🔥"] != 2 || len(mine) != 0 {
		t.Fatalf("remove: added=%v counts=%v mine=%v", added, counts, mine)
	}

	// A stale membership list must not drive a count below zero.
	counts = map[string]int{}
	mine, _ = ToggleReaction(counts, []string{"✨"}, "✨")
	if _, ok := counts["✨"]; ok || len(mine) != 0 {
		t.Fatalf("counts went negative: %v", counts)
	}
}

func TestBuildCommentTree(t *testing.T) {
	one, two, missing := 1, 2, 99
	flat := []Comment{
		{ID: 1, Content: "root"},
		{ID: 2, ParentID: &one, Content: "reply"},
		{ID: 3, ParentID: &two, Content: "nested"},
		{ID: 4, ParentID: &missing, Content: "orphan"},
	}
	tree := BuildCommentTree(flat)
	if len(tree) != 2 {
		t.Fatalf("expected root and orphan at top level, got %d", len(tree))
	}
	if len(tree[0].Replies) != 1 || len(tree[0].Replies[0].Replies) != 1 {
		t.Fatalf("unexpected nesting %+v", tree[0])
	}
	if n := CountComments(tree); n != 4 {
		t.Fatalf("CountComments = %d, want 4", n)
	}
}

func TestPrivacySettingsValid(t *testing.T) {
	cases := []struct {
		name string
		s    PrivacySettings
		ok   bool
	}{
		{"defaults", DefaultPrivacySettings(), true},
		{"bad visibility", PrivacySettings{ProfileVisibility: "friends", MessagePermission: MessagesEveryone}, false},
		{"bad permission", PrivacySettings{ProfileVisibility: VisibilityPrivate, MessagePermission: "some"}, false},
	}
	for _, c := range cases {
		if got := c.s.Valid(); got != c.ok {
			t.Errorf("%s: Valid() = %v, want %v", c.name, got, c.ok)
		}
	}
}

func TestFindCreditPackage(t *testing.T) {
	if p, ok := FindCreditPackage("spark"); !ok || p.Credits != 100 {
		t.Fatalf("spark = %+v, %v", p, ok)
	}
	if _, ok := FindCreditPackage("gold"); ok {
		t.Fatalf("unknown package found")
	}
}
