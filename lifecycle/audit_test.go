package lifecycle

import (
	"fmt"
	"testing"
	"time"
)

// TestActionLogRecordsEntries verifies basic record/snapshot behavior.
func TestActionLogRecordsEntries(t *testing.T) {
	mt := NewMockTimeProvider(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	log := NewActionLog(8, mt)

	log.Record(ActionTransition, "Disconnected -> Connecting")
	mt.Advance(time.Second)
	log.Record(ActionError, "network")

	entries := log.Snapshot()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Category != ActionTransition {
		t.Errorf("Expected transition first, got %s", entries[0].Category)
	}
	if !entries[1].At.After(entries[0].At) {
		t.Error("Entries should be ordered oldest first")
	}
}

// TestActionLogBounded verifies the log never exceeds its capacity and
// evicts oldest first.
func TestActionLogBounded(t *testing.T) {
	log := NewActionLog(4, nil)
	for i := 0; i < 10; i++ {
		log.Record(ActionRecovery, fmt.Sprintf("entry %d", i))
	}

	if log.Len() != 4 {
		t.Fatalf("Expected capacity 4, got %d", log.Len())
	}
	if log.Dropped() != 6 {
		t.Errorf("Expected 6 dropped entries, got %d", log.Dropped())
	}
	entries := log.Snapshot()
	if entries[0].Detail != "entry 6" || entries[3].Detail != "entry 9" {
		t.Errorf("Unexpected retained window: first=%q last=%q", entries[0].Detail, entries[3].Detail)
	}
}

// TestActionLogSnapshotIsCopy verifies observers cannot mutate the log.
func TestActionLogSnapshotIsCopy(t *testing.T) {
	log := NewActionLog(4, nil)
	log.Record(ActionSuggestion, "raised")

	snap := log.Snapshot()
	snap[0].Detail = "tampered"

	if log.Snapshot()[0].Detail != "raised" {
		t.Error("Snapshot mutation leaked into the log")
	}
}

// TestActionLogMinimumCapacity verifies a degenerate capacity is clamped.
func TestActionLogMinimumCapacity(t *testing.T) {
	log := NewActionLog(0, nil)
	log.Record(ActionError, "a")
	log.Record(ActionError, "b")
	if log.Len() != 1 {
		t.Errorf("Expected clamped capacity 1, got %d", log.Len())
	}
}
