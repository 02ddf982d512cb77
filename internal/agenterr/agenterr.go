// Package agenterr defines the sum-typed turn result and sentinel errors
// used across ptc's error handling, per the spec's error handling design.
package agenterr

import "errors"

var (
	// ErrSandboxFault indicates the remote sandbox connection is unusable
	// (dropped, timed out, or refused) and a recovery attempt is warranted.
	ErrSandboxFault = errors.New("ptc: sandbox fault")
	// ErrAccessDenied indicates a tool call referenced a path outside the
	// sandbox's allowed directories.
	ErrAccessDenied = errors.New("ptc: access denied")
	// ErrConfigInvalid indicates RuntimeConfig failed validation.
	ErrConfigInvalid = errors.New("ptc: invalid configuration")
	// ErrSessionExpired indicates a persisted session exceeded its max age.
	ErrSessionExpired = errors.New("ptc: session expired")
	// ErrSessionInvalid indicates a persisted session file failed to parse
	// or was missing required fields.
	ErrSessionInvalid = errors.New("ptc: invalid session record")
)

// Kind classifies how a turn concluded.
type Kind int

const (
	// Ok means the turn completed normally.
	Ok Kind = iota
	// Fault means the sandbox connection failed mid-turn.
	Fault
	// ToolError means a tool call itself returned an error result, but the
	// turn loop and sandbox connection remained healthy.
	ToolError
	// Cancelled means the caller cancelled the turn's context.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case Ok:
		return "ok"
	case Fault:
		return "fault"
	case ToolError:
		return "tool_error"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result is the sum-typed outcome of a turn: exactly one of Kind's values,
// carrying Err when Kind is not Ok.
type Result struct {
	Kind Kind
	Err  error
}

func OkResult() Result                { return Result{Kind: Ok} }
func FaultResult(err error) Result    { return Result{Kind: Fault, Err: err} }
func ToolErrResult(err error) Result  { return Result{Kind: ToolError, Err: err} }
func CancelledResult(err error) Result { return Result{Kind: Cancelled, Err: err} }
