// Package mention extracts @path file mentions from user input (C8) and
// maintains an LRU of recently globbed sandbox paths for completion.
package mention

import (
	"regexp"

	lru "github.com/hashicorp/golang-lru/v2"
)

var mentionPattern = regexp.MustCompile(`@(\S+)`)

// ExtractMentions returns the @-mentioned paths in text, in first
// occurrence order with duplicates removed.
func ExtractMentions(text string) []string {
	matches := mentionPattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		path := m[1]
		if seen[path] {
			continue
		}
		seen[path] = true
		out = append(out, path)
	}
	return out
}

// Completer caches recently seen sandbox paths for prompt completion,
// refreshed by the turn executor's Phase 5 background task. Concrete home
// for the hashicorp/golang-lru dependency in this domain.
type Completer struct {
	cache *lru.Cache[string, struct{}]
	all   []string
}

// NewCompleter returns a Completer caching up to capacity recently seen
// paths.
func NewCompleter(capacity int) *Completer {
	cache, _ := lru.New[string, struct{}](capacity)
	return &Completer{cache: cache}
}

// SetFiles replaces the completer's full path list (from a fresh glob) and
// seeds the LRU with them.
func (c *Completer) SetFiles(paths []string) {
	c.all = paths
	for _, p := range paths {
		c.cache.Add(p, struct{}{})
	}
}

// Complete returns paths from the cached set with the given prefix, most
// recently used first. Ranking beyond recency is explicitly out of scope.
func (c *Completer) Complete(prefix string) []string {
	var out []string
	keys := c.cache.Keys() // oldest to newest
	for i := len(keys) - 1; i >= 0; i-- {
		key := keys[i]
		if hasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	return out
}

func hasPrefix(s, prefix string) bool {
	if len(prefix) > len(s) {
		return false
	}
	return s[:len(prefix)] == prefix
}
