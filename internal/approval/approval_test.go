package approval

import (
	"bytes"
	"testing"
)

func TestDetectInteractiveFalseForNonFileStreams(t *testing.T) {
	if DetectInteractive(&bytes.Buffer{}, &bytes.Buffer{}) {
		t.Fatal("expected non-*os.File streams to be detected as non-interactive")
	}
}

func TestReviewPlanAutoApprovesWhenNonInteractive(t *testing.T) {
	m := NewMenu(&bytes.Buffer{}, &bytes.Buffer{})
	decision, err := m.ReviewPlan("do the thing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decision.Approved {
		t.Fatal("expected a non-interactive menu to auto-approve")
	}
}
