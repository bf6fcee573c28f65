// Package time contains time related helpers
package time

import (
	"sync"
	"time"
)

// Clock returns the current time
type Clock func() time.Time

// System is the wall clock
func System() time.Time { return time.Now() }

// Or returns c, or System when c is nil
func (c Clock) Or() Clock {
	if c == nil {
		return System
	}
	return c
}

// Ptr returns a pointer to t or nil if t is zero
func Ptr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// Unix converts unix seconds to a UTC time, zero stays zero
func Unix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// Fake is a manually advanced clock for tests
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake starts a fake clock at t
func NewFake(t time.Time) *Fake { return &Fake{now: t} }

// Now returns the fake time
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}
