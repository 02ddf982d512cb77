package modelrt

import "testing"

func TestCheckpointerTracksActiveThreads(t *testing.T) {
	c := NewCheckpointer()
	if c.HasActiveConversation("t1") {
		t.Fatal("expected a fresh thread to be idle")
	}
	c.MarkActive("t1")
	if !c.HasActiveConversation("t1") {
		t.Fatal("expected thread to be active after MarkActive")
	}
	c.MarkIdle("t1")
	if c.HasActiveConversation("t1") {
		t.Fatal("expected thread to be idle after MarkIdle")
	}
}

func TestCheckpointerThreadsAreIndependent(t *testing.T) {
	c := NewCheckpointer()
	c.MarkActive("a")
	if c.HasActiveConversation("b") {
		t.Fatal("expected an unrelated thread to remain idle")
	}
}
