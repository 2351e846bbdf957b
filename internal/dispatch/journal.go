package dispatch

import "sync"

// journal is the only structure written concurrently during a dispatch;
// appends take an exclusive lock so entries never interleave.
type journal struct {
	mu      sync.Mutex
	entries []LogEntry
}

func (j *journal) record(entry LogEntry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

func (j *journal) snapshot() []LogEntry {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]LogEntry, len(j.entries))
	copy(out, j.entries)
	return out
}
