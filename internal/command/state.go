// Package command implements the closed slash-command table (C9) and the
// turn-state fields it reads and mutates: auto-approve/plan-mode toggles,
// thread reset, and the esc-to-revise / triple-ctrl-c-to-exit press
// windows.
package command

import (
	"time"

	"github.com/google/uuid"
)

// PressWindowSeconds is the window within which a repeated key press (Esc
// to revise, Ctrl+C to exit) counts toward the same gesture.
const PressWindowSeconds = 3 * time.Second

// State holds the mutable per-session fields the slash commands and
// keyboard gestures act on, grounded on original_source's SessionState.
type State struct {
	AutoApprove    bool
	NoSplash       bool
	PersistSession bool
	PlanMode       bool
	ReusingSandbox bool
	ThreadID       string

	EscHintUntil      time.Time
	LastUserMessage   string
	RevisionRequested bool

	ExitHintUntil time.Time
	CtrlCCount    int
}

// NewState returns a State with a fresh thread id.
func NewState(autoApprove, noSplash, persistSession, planMode bool) *State {
	return &State{
		AutoApprove:    autoApprove,
		NoSplash:       noSplash,
		PersistSession: persistSession,
		PlanMode:       planMode,
		ThreadID:       uuid.NewString(),
	}
}

func (s *State) ToggleAutoApprove() bool {
	s.AutoApprove = !s.AutoApprove
	return s.AutoApprove
}

func (s *State) TogglePlanMode() bool {
	s.PlanMode = !s.PlanMode
	return s.PlanMode
}

func (s *State) ResetThread() string {
	s.ThreadID = uuid.NewString()
	return s.ThreadID
}

// ArmEscHint opens the esc-to-revise press window starting now.
func (s *State) ArmEscHint(lastMessage string) {
	s.EscHintUntil = time.Now().Add(PressWindowSeconds)
	s.LastUserMessage = lastMessage
}

// EscHintActive reports whether a second Esc within the window should
// trigger revision instead of a fresh interrupt.
func (s *State) EscHintActive() bool {
	return !s.EscHintUntil.IsZero() && time.Now().Before(s.EscHintUntil)
}

// RegisterCtrlC increments the triple-press exit counter, resetting it if
// the press window has elapsed since the last press. It returns true once
// the count reaches 3 within the window.
func (s *State) RegisterCtrlC() bool {
	now := time.Now()
	if s.ExitHintUntil.IsZero() || now.After(s.ExitHintUntil) {
		s.CtrlCCount = 0
	}
	s.CtrlCCount++
	s.ExitHintUntil = now.Add(PressWindowSeconds)
	return s.CtrlCCount >= 3
}
