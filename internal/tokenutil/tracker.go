package tokenutil

import "sync"

// Tracker accumulates input/output token counts across turns, surfaced by
// the /tokens slash command (spec-supplement, grounded in
// original_source's captured_input_tokens/captured_output_tokens).
type Tracker struct {
	mu     sync.Mutex
	input  int
	output int
}

func NewTracker() *Tracker { return &Tracker{} }

// Add accrues the token counts from one turn.
func (t *Tracker) Add(input, output int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.input += input
	t.output += output
}

// Totals returns the accumulated (input, output) token counts.
func (t *Tracker) Totals() (input, output int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.input, t.output
}
