package clock

import (
	"sync"
	"time"
)

// Clock abstracts time.Now so deadline and fee logic is testable.
type Clock interface {
	Now() time.Time
}

// RealClock uses the system time.
type RealClock struct{}

func New() RealClock { return RealClock{} }

func (RealClock) Now() time.Time { return time.Now() }

// MockClock returns a fixed, adjustable time. Safe for concurrent use.
type MockClock struct {
	mu  sync.RWMutex
	now time.Time
}

func NewMock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

func (m *MockClock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Set replaces the current time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the current time forward by d.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
