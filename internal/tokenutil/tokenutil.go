// Package tokenutil counts, estimates, and truncates text by model token
// count, using tiktoken-go's cl100k_base encoding when available and
// falling back to a word/rune heuristic otherwise.
package tokenutil

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// encoding is nil if the cl100k_base BPE failed to load (e.g. no network
// access to fetch its vocabulary); CountTokens falls back to EstimateFast
// in that case.
var encoding *tiktoken.Tiktoken

func init() {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err == nil {
		encoding = enc
	}
}

// CountTokens returns the exact tiktoken count for text, or EstimateFast's
// heuristic if the encoding failed to load.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if encoding == nil {
		return EstimateFast(text)
	}
	return len(encoding.Encode(text, nil, nil))
}

// EstimateFast is a cheap, encoding-free token estimate: the larger of a
// rune-count/4 approximation and the raw word count, since short strings
// with few long words otherwise under-count badly.
func EstimateFast(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	words := len(strings.Fields(trimmed))
	byRunes := len([]rune(trimmed)) / 4
	if words > byRunes {
		return words
	}
	return byRunes
}

// TruncateToTokens truncates text to at most max tokens, appending "..."
// when truncation occurred. max == 0 or text already within budget is a
// no-op.
func TruncateToTokens(text string, max int) string {
	if max == 0 {
		return text
	}
	if CountTokens(text) <= max {
		return text
	}

	if encoding != nil {
		ids := encoding.Encode(text, nil, nil)
		if len(ids) <= max {
			return text
		}
		return encoding.Decode(ids[:max]) + "..."
	}

	words := strings.Fields(text)
	if len(words) <= max {
		return text
	}
	return strings.Join(words[:max], " ") + "..."
}
