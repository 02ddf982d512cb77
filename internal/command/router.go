package command

import (
	"context"
	"fmt"
)

// Result is what a slash command reports back to the turn controller.
type Result struct {
	// Output is printed to the user, if non-empty.
	Output string
	// Exit requests the REPL terminate.
	Exit bool
}

// Handler runs a slash command given its raw argument text (everything
// after the command name).
type Handler func(ctx context.Context, args string) (Result, error)

// Router is the closed command table described in spec §4.9: an unknown
// command is an error, never silently ignored.
type Router struct {
	handlers map[string]Handler
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{handlers: make(map[string]Handler)}
}

// Register adds a command under name (without the leading slash).
func (r *Router) Register(name string, h Handler) {
	r.handlers[name] = h
}

// Dispatch runs the command named by the first space-delimited token
// of line (with its leading slash stripped), passing the remainder as args.
func (r *Router) Dispatch(ctx context.Context, line string) (Result, error) {
	name, args := splitCommand(line)
	h, ok := r.handlers[name]
	if !ok {
		return Result{}, fmt.Errorf("command: unknown command /%s", name)
	}
	return h(ctx, args)
}

// IsCommand reports whether line looks like a slash command.
func IsCommand(line string) bool {
	return len(line) > 0 && line[0] == '/'
}

func splitCommand(line string) (name, args string) {
	line = line[1:] // drop leading '/'
	for i, r := range line {
		if r == ' ' {
			return line[:i], line[i+1:]
		}
	}
	return line, ""
}
