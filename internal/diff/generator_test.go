package diff

import "testing"

func TestGenerateUnifiedNoChange(t *testing.T) {
	g := NewGenerator(3, false)
	result, err := g.GenerateUnified("same", "same", "file.txt")
	if err != nil {
		t.Fatalf("GenerateUnified() error = %v", err)
	}
	if result.UnifiedDiff != "" || result.ChangedFiles != 0 {
		t.Fatalf("expected empty diff for identical content, got %+v", result)
	}
}

func TestGenerateUnifiedDetectsBinary(t *testing.T) {
	g := NewGenerator(3, false)
	result, err := g.GenerateUnified("a\x00b", "a\x00c", "file.bin")
	if err != nil {
		t.Fatalf("GenerateUnified() error = %v", err)
	}
	if !result.IsBinary {
		t.Fatal("expected binary content to be detected")
	}
}

func TestGenerateUnifiedCountsChanges(t *testing.T) {
	g := NewGenerator(3, false)
	result, err := g.GenerateUnified("line1\nline2\n", "line1\nline2 changed\n", "file.txt")
	if err != nil {
		t.Fatalf("GenerateUnified() error = %v", err)
	}
	if result.AddedLines == 0 && result.DeletedLines == 0 {
		t.Fatal("expected nonzero line changes for a modified file")
	}
	summary := result.FormatSummary()
	if summary == "No changes" {
		t.Fatalf("expected a nontrivial summary, got %q", summary)
	}
}
