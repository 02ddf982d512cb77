package render

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestToolIconFallsBackForUnknownTool(t *testing.T) {
	if ToolIcon("some_unregistered_tool") != "🔧" {
		t.Fatal("expected the default icon for an unregistered tool")
	}
	if ToolIcon("read_file") == "🔧" {
		t.Fatal("expected a distinct icon for a known tool")
	}
}

func TestConsolePrintWritesToUnderlyingWriter(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.Print("hello")
	if buf.String() != "hello" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestConsolePrintToolLineIncludesNameAndIcon(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.PrintToolLine("read_file", `{"path":"a.go"}`)
	if !strings.Contains(buf.String(), "a.go") {
		t.Fatalf("expected tool line to include the display text, got %q", buf.String())
	}
}

func TestSpinnerStartStopIsIdempotentAndClean(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	s := NewSpinner(c)

	s.Start("thinking")
	if !s.Active() {
		t.Fatal("expected spinner to be active after Start")
	}
	time.Sleep(10 * time.Millisecond)
	s.Stop()
	if s.Active() {
		t.Fatal("expected spinner to be inactive after Stop")
	}
	// Stop must be safe to call again without blocking.
	s.Stop()
}
