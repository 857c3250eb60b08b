// Package clock provides the time source used by scheduling, session, and
// stats code. Injecting a Clock keeps due-date and streak math deterministic
// in tests; production code uses the system clock.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current instant. Implementations must be safe for
// concurrent use.
type Clock interface {
	Now() time.Time
}

// System is a Clock backed by the wall clock.
type System struct{}

// NewSystem returns a Clock that reads the wall clock in UTC.
func NewSystem() System {
	return System{}
}

// Now returns the current UTC time.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fake is a manually controlled Clock for tests.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake returns a Fake pinned to the given instant.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now.UTC()}
}

// Now returns the instant the clock is currently pinned to.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set pins the clock to the given instant.
func (f *Fake) Set(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now.UTC()
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Compile-time interface checks.
var (
	_ Clock = System{}
	_ Clock = (*Fake)(nil)
)

// StartOfDay truncates t to midnight of its UTC calendar day. Due dates and
// streak comparisons share this single day-boundary rule.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole UTC calendar days from a to b.
// The result is negative when b falls on an earlier day than a.
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)) / (24 * time.Hour))
}
