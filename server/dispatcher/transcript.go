package dispatcher

import (
	"sync"
)

// Role identifies the author of a transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TranscriptEntry is one turn half: who spoke and what was said.
type TranscriptEntry struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Transcript is the session-lifetime conversation record. It is append-only,
// lives in memory only, and is never replayed into the model as context.
type Transcript struct {
	mu      sync.RWMutex
	entries []TranscriptEntry
}

// Append adds an entry at the end of the transcript.
func (t *Transcript) Append(role Role, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, TranscriptEntry{Role: role, Text: text})
}

// Entries returns a copy of the transcript in append order.
func (t *Transcript) Entries() []TranscriptEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]TranscriptEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}
