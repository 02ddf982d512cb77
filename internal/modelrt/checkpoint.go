package modelrt

import "sync"

// Checkpointer tracks whether a thread has an active (in-progress)
// conversation, gating the /model slash command per spec §4.9 ("'/model'
// is gated on there being no active conversation"). Grounded on
// original_source's InMemorySaver checkpointer role, here narrowed to the
// one predicate ptc actually needs rather than full graph-state storage.
type Checkpointer struct {
	mu     sync.Mutex
	active map[string]bool
}

func NewCheckpointer() *Checkpointer {
	return &Checkpointer{active: make(map[string]bool)}
}

// MarkActive records that threadID has an in-progress turn.
func (c *Checkpointer) MarkActive(threadID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active[threadID] = true
}

// MarkIdle records that threadID's turn has concluded.
func (c *Checkpointer) MarkIdle(threadID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.active, threadID)
}

// HasActiveConversation reports whether threadID currently has a turn in
// progress.
func (c *Checkpointer) HasActiveConversation(threadID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active[threadID]
}
