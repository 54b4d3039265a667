package lifecycle

import (
	"sync"
	"time"
)

// TimeProvider abstracts time operations for deterministic testing.
// Implementations must be safe for concurrent use.
type TimeProvider interface {
	Now() time.Time
	Since(t time.Time) time.Duration

	// AfterFunc schedules fn to run after d has elapsed.
	AfterFunc(d time.Duration, fn func())
}

// DefaultTimeProvider uses the standard library time functions.
type DefaultTimeProvider struct{}

// Now returns the current time.
func (DefaultTimeProvider) Now() time.Time { return time.Now() }

// Since returns the duration since the given time.
func (DefaultTimeProvider) Since(t time.Time) time.Duration { return time.Since(t) }

// AfterFunc schedules fn on a real timer.
func (DefaultTimeProvider) AfterFunc(d time.Duration, fn func()) { time.AfterFunc(d, fn) }

// mockTimer is one pending AfterFunc registration on the mock clock.
type mockTimer struct {
	at time.Time
	fn func()
}

// MockTimeProvider is a controllable clock for deterministic tests.
// Scheduled functions fire when Advance moves the clock past their
// deadline.
type MockTimeProvider struct {
	mu     sync.Mutex
	now    time.Time
	timers []mockTimer
}

// NewMockTimeProvider creates a MockTimeProvider starting at startTime.
func NewMockTimeProvider(startTime time.Time) *MockTimeProvider {
	return &MockTimeProvider{now: startTime}
}

// Now returns the mock's current time.
func (m *MockTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Since returns the duration since t based on the mock's current time.
func (m *MockTimeProvider) Since(t time.Time) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now.Sub(t)
}

// AfterFunc registers fn to fire once the mock clock reaches now+d.
func (m *MockTimeProvider) AfterFunc(d time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timers = append(m.timers, mockTimer{at: m.now.Add(d), fn: fn})
}

// Advance moves the mock time forward by d and fires every scheduled
// function whose deadline has been reached, in registration order. The
// functions run on the caller's goroutine without the mock's lock held.
func (m *MockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	var due []func()
	remaining := m.timers[:0]
	for _, tm := range m.timers {
		if tm.at.After(m.now) {
			remaining = append(remaining, tm)
		} else {
			due = append(due, tm.fn)
		}
	}
	m.timers = remaining
	m.mu.Unlock()

	for _, fn := range due {
		fn()
	}
}

// getTimeProvider returns tp if non-nil, otherwise the system clock.
func getTimeProvider(tp TimeProvider) TimeProvider {
	if tp != nil {
		return tp
	}
	return DefaultTimeProvider{}
}
