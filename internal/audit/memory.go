package audit

import (
	"context"
	"sync"
)

// MemoryLog keeps audit entries in process. Used by tests and the
// in-memory wiring.
type MemoryLog struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryLog constructs an empty log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Log appends an entry.
func (m *MemoryLog) Log(ctx context.Context, entry Entry) error {
	_ = ctx
	entry = prepare(entry)
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	m.mu.Unlock()
	return nil
}

// Entries returns a copy of the entries, optionally filtered by action.
func (m *MemoryLog) Entries(action string) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(m.entries))
	for _, entry := range m.entries {
		if action == "" || entry.Action == action {
			out = append(out, entry)
		}
	}
	return out
}
