package mention

import (
	"reflect"
	"testing"
)

func TestExtractMentionsDedupesInOrder(t *testing.T) {
	got := ExtractMentions("look at @main.go and @util.go, also @main.go again")
	want := []string{"main.go", "util.go"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExtractMentionsNoneFound(t *testing.T) {
	got := ExtractMentions("no mentions here")
	if len(got) != 0 {
		t.Fatalf("expected no mentions, got %v", got)
	}
}

func TestCompleterPrefixMatch(t *testing.T) {
	c := NewCompleter(10)
	c.SetFiles([]string{"internal/a.go", "internal/b.go", "cmd/main.go"})
	got := c.Complete("internal/")
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %v", got)
	}
}
