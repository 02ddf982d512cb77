package recovery

import (
	"errors"
	"testing"
)

func TestClassifyDetectsKnownFaultSubstrings(t *testing.T) {
	cases := []string{
		"connection refused",
		"Sandbox unreachable",
		"request timed out",
		"unexpected EOF",
	}
	for _, text := range cases {
		if got := Classify(nil, text); got != SandboxFault {
			t.Errorf("Classify(%q) = %v, want SandboxFault", text, got)
		}
	}
}

func TestClassifyIgnoresOrdinaryToolErrors(t *testing.T) {
	if got := Classify(nil, "old_string not found in a.go"); got != None {
		t.Errorf("expected an ordinary tool error to classify as None, got %v", got)
	}
}

func TestClassifyInspectsErrToo(t *testing.T) {
	err := errors.New("dial tcp: no route to host")
	if got := Classify(err, ""); got != SandboxFault {
		t.Errorf("expected error text to be inspected, got %v", got)
	}
}
