package history

import (
	"sync"

	"casebridge/internal/domain"
)

// Log is the per-identity inbound message history. Append-only, in-memory,
// process lifetime only; it exists to answer "when did this identity last
// write to us" for the active-window decision.
type Log struct {
	mu      sync.Mutex
	entries map[string][]domain.InboundEvent
}

func New() *Log {
	return &Log{entries: make(map[string][]domain.InboundEvent)}
}

// Record appends ev to the identity's sequence, creating it if absent.
func (l *Log) Record(identity string, ev domain.InboundEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[identity] = append(l.entries[identity], ev)
}

// LastTimestamp returns the raw timestamp of the last recorded event for the
// identity, or false when no event has been recorded.
func (l *Log) LastTimestamp(identity string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	seq := l.entries[identity]
	if len(seq) == 0 {
		return "", false
	}
	return seq[len(seq)-1].Timestamp, true
}

// Len reports how many events are recorded for the identity.
func (l *Log) Len(identity string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries[identity])
}
