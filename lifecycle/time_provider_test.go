package lifecycle

import (
	"testing"
	"time"
)

// TestMockTimeAdvance verifies Now and Since track advanced time.
func TestMockTimeAdvance(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	mt := NewMockTimeProvider(start)

	if !mt.Now().Equal(start) {
		t.Errorf("Expected start time, got %v", mt.Now())
	}
	mt.Advance(90 * time.Second)
	if got := mt.Since(start); got != 90*time.Second {
		t.Errorf("Expected 90s elapsed, got %v", got)
	}
}

// TestMockAfterFuncFiresOnAdvance verifies scheduled functions fire only
// once their deadline is reached, and exactly once.
func TestMockAfterFuncFiresOnAdvance(t *testing.T) {
	mt := NewMockTimeProvider(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	fired := 0
	mt.AfterFunc(10*time.Second, func() { fired++ })
	mt.AfterFunc(30*time.Second, func() { fired += 10 })

	mt.Advance(5 * time.Second)
	if fired != 0 {
		t.Fatalf("No timer should fire before its deadline, fired=%d", fired)
	}

	mt.Advance(5 * time.Second)
	if fired != 1 {
		t.Fatalf("First timer should fire at its deadline, fired=%d", fired)
	}

	mt.Advance(time.Hour)
	if fired != 11 {
		t.Fatalf("Second timer should fire exactly once, fired=%d", fired)
	}

	mt.Advance(time.Hour)
	if fired != 11 {
		t.Errorf("Expired timers must not refire, fired=%d", fired)
	}
}

// TestDefaultProviderAfterFunc verifies the real clock schedules work.
func TestDefaultProviderAfterFunc(t *testing.T) {
	done := make(chan struct{})
	DefaultTimeProvider{}.AfterFunc(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Scheduled function never ran")
	}
}
