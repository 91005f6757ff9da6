package notify

import "testing"

func TestPushAndList(t *testing.T) {
	c := NewCenter()
	id1 := c.Push(LevelError, "Failed to update policy")
	id2 := c.Push(LevelInfo, "catalog refreshed")
	if id1 == "" || id2 == "" || id1 == id2 {
		t.Fatalf("expected distinct notice ids, got %q and %q", id1, id2)
	}

	notices := c.List()
	if len(notices) != 2 {
		t.Fatalf("expected 2 notices, got %d", len(notices))
	}
	if notices[0].Message != "Failed to update policy" || notices[0].Level != LevelError {
		t.Fatalf("unexpected first notice: %#v", notices[0])
	}
}

func TestDismiss(t *testing.T) {
	c := NewCenter()
	id := c.Push(LevelError, "boom")
	keep := c.Push(LevelInfo, "still here")

	c.Dismiss(id)
	c.Dismiss("unknown-id")

	notices := c.List()
	if len(notices) != 1 || notices[0].ID != keep {
		t.Fatalf("expected only the second notice to remain: %#v", notices)
	}
}

func TestPushCapsBacklog(t *testing.T) {
	c := NewCenter()
	c.max = 3
	for i := 0; i < 5; i++ {
		c.Push(LevelInfo, "n")
	}
	if got := len(c.List()); got != 3 {
		t.Fatalf("expected capped backlog of 3, got %d", got)
	}
}
