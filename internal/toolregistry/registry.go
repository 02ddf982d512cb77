// Package toolregistry maps tool names to their descriptors and dispatches
// decoded tool-call arguments to the matching handler (C2).
package toolregistry

import (
	"context"
	"encoding/json"
	"fmt"
)

// Descriptor describes a tool's name, natural-language purpose, and JSON
// schema for its parameters and return value, as advertised to the model
// runtime at session start.
type Descriptor struct {
	Name            string
	Description     string
	ParameterSchema json.RawMessage
	ReturnSchema    json.RawMessage
}

// Handler executes a tool call given its decoded arguments, returning the
// text result shown to the model.
type Handler func(ctx context.Context, args json.RawMessage) (string, error)

// entry pairs a descriptor with its handler.
type entry struct {
	descriptor Descriptor
	handler    Handler
}

// Registry is the static name -> (descriptor, handler) dispatch table.
type Registry struct {
	static map[string]entry
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{static: make(map[string]entry)}
}

// Register adds a tool under descriptor.Name, replacing any prior
// registration with the same name.
func (r *Registry) Register(descriptor Descriptor, handler Handler) {
	r.static[descriptor.Name] = entry{descriptor: descriptor, handler: handler}
}

// Descriptors returns all registered tool descriptors, in registration
// order is not guaranteed (callers needing stable prompt text should sort).
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.static))
	for _, e := range r.static {
		out = append(out, e.descriptor)
	}
	return out
}

// Dispatch runs the named tool with the given raw JSON arguments. An
// unknown tool name is itself a tool-level error (spec §7), not a panic or
// sandbox fault.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) (string, error) {
	e, ok := r.static[name]
	if !ok {
		return "", fmt.Errorf("toolregistry: unknown tool %q", name)
	}
	return e.handler(ctx, args)
}

// ToolSchemaText renders descriptors as prompt text describing the
// available tools, in the style of a static system-prompt tool catalogue
// (REDESIGN FLAGS: no runtime code generation host-side).
func ToolSchemaText(descriptors []Descriptor) string {
	out := ""
	for _, d := range descriptors {
		out += fmt.Sprintf("### %s\n%s\n\nParameters: %s\n\n", d.Name, d.Description, string(d.ParameterSchema))
	}
	return out
}
