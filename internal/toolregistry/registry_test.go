package toolregistry

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestDispatchRoutesToRegisteredHandler(t *testing.T) {
	r := New()
	r.Register(Descriptor{Name: "echo", Description: "echoes input"}, func(ctx context.Context, args json.RawMessage) (string, error) {
		return string(args), nil
	})

	out, err := r.Dispatch(context.Background(), "echo", json.RawMessage(`{"a":1}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"a":1}` {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestDispatchUnknownToolIsAnError(t *testing.T) {
	r := New()
	_, err := r.Dispatch(context.Background(), "missing", nil)
	if err == nil {
		t.Fatal("expected an error for an unregistered tool")
	}
}

func TestRegisterReplacesExistingName(t *testing.T) {
	r := New()
	r.Register(Descriptor{Name: "dup"}, func(ctx context.Context, args json.RawMessage) (string, error) {
		return "first", nil
	})
	r.Register(Descriptor{Name: "dup"}, func(ctx context.Context, args json.RawMessage) (string, error) {
		return "second", nil
	})

	out, err := r.Dispatch(context.Background(), "dup", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "second" {
		t.Fatalf("expected the later registration to win, got %q", out)
	}
	if len(r.Descriptors()) != 1 {
		t.Fatalf("expected one descriptor after replacement, got %d", len(r.Descriptors()))
	}
}

func TestToolSchemaTextIncludesEachDescriptor(t *testing.T) {
	text := ToolSchemaText([]Descriptor{
		{Name: "read_file", Description: "reads a file", ParameterSchema: json.RawMessage(`{"type":"object"}`)},
	})
	if !strings.Contains(text, "read_file") || !strings.Contains(text, "reads a file") {
		t.Fatalf("expected schema text to mention the tool, got: %s", text)
	}
}
