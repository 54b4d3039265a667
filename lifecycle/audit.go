package lifecycle

import (
	"sync"
	"time"
)

// ActionCategory classifies audit log entries.
type ActionCategory string

const (
	// ActionTransition is a connection state change.
	ActionTransition ActionCategory = "transition"
	// ActionError is a surfaced error record.
	ActionError ActionCategory = "error"
	// ActionRecovery is a recovery engine decision.
	ActionRecovery ActionCategory = "recovery"
	// ActionDowngrade is an applied capability downgrade.
	ActionDowngrade ActionCategory = "downgrade"
	// ActionSuggestion is an advisor suggestion event.
	ActionSuggestion ActionCategory = "suggestion"
	// ActionInterruption is a handled interruption signal.
	ActionInterruption ActionCategory = "interruption"
)

// Action is one audit log entry.
type Action struct {
	At       time.Time
	Category ActionCategory
	Detail   string
}

// ActionLog is a bounded in-memory audit trail of coordinator decisions.
// When full, the oldest entry is dropped. All writes come from the
// coordinator's serialized context; Snapshot may be called from anywhere.
type ActionLog struct {
	mu       sync.RWMutex
	capacity int
	entries  []Action
	dropped  uint64
	time     TimeProvider
}

// NewActionLog creates a log retaining at most capacity entries.
func NewActionLog(capacity int, tp TimeProvider) *ActionLog {
	if capacity < 1 {
		capacity = 1
	}
	return &ActionLog{
		capacity: capacity,
		entries:  make([]Action, 0, capacity),
		time:     getTimeProvider(tp),
	}
}

// Record appends an entry, evicting the oldest when at capacity.
func (l *ActionLog) Record(category ActionCategory, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == l.capacity {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:l.capacity-1]
		l.dropped++
	}
	l.entries = append(l.entries, Action{
		At:       l.time.Now(),
		Category: category,
		Detail:   detail,
	})
}

// Snapshot returns a copy of the retained entries, oldest first.
func (l *ActionLog) Snapshot() []Action {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Action, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of retained entries.
func (l *ActionLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Dropped returns how many entries were evicted to honor the bound.
func (l *ActionLog) Dropped() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dropped
}
