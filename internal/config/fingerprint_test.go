package config

import "testing"

func TestFingerprintDeterministic(t *testing.T) {
	a := RuntimeConfig{
		SandboxBaseURL: "http://localhost:18086",
		RuntimeVersion: "python3.12",
		ToolServers: []ToolServer{
			{Name: "b", URL: "http://b"},
			{Name: "a", URL: "http://a"},
		},
	}
	b := RuntimeConfig{
		SandboxBaseURL: "http://localhost:18086",
		RuntimeVersion: "python3.12",
		ToolServers: []ToolServer{
			{Name: "a", URL: "http://a"},
			{Name: "b", URL: "http://b"},
		},
	}

	fa, fb := Fingerprint(a), Fingerprint(b)
	if fa != fb {
		t.Fatalf("expected fingerprint to be order-independent over tool servers, got %q vs %q", fa, fb)
	}
	if len(fa) != 8 {
		t.Fatalf("expected an 8-character fingerprint, got %q (%d chars)", fa, len(fa))
	}
}

func TestFingerprintChangesWithRelevantFields(t *testing.T) {
	base := RuntimeConfig{SandboxBaseURL: "http://localhost:18086", RuntimeVersion: "python3.12"}
	changed := base
	changed.RuntimeVersion = "python3.13"

	if Fingerprint(base) == Fingerprint(changed) {
		t.Fatal("expected fingerprint to change when runtime version changes")
	}
}

func TestFingerprintIgnoresUnrelatedFields(t *testing.T) {
	base := RuntimeConfig{SandboxBaseURL: "http://localhost:18086", RuntimeVersion: "python3.12"}
	decorated := base
	decorated.Verbose = true
	decorated.Model = "claude-opus"
	decorated.AutoApprove = true

	if Fingerprint(base) != Fingerprint(decorated) {
		t.Fatal("expected fingerprint to ignore fields outside the session-relevant set")
	}
}
