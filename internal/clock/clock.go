// Package clock provides the time source, calendar-date helpers and id
// generation injected into every tasktrack component.
package clock

import (
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar date format used for task dates and analytics keys.
const DateLayout = "2006-01-02"

// TimeLayout is the clock time format used for task times.
const TimeLayout = "15:04"

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// System is the wall clock.
type System struct{}

// Now returns time.Now().
func (System) Now() time.Time {
	return time.Now()
}

// Fixed is a settable clock for tests and replays.
type Fixed struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixed returns a clock frozen at t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

// Now returns the frozen time.
func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

// Set moves the clock to t.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	f.t = t
	f.mu.Unlock()
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

// Date formats t as YYYY-MM-DD in t's own location.
func Date(t time.Time) string {
	return t.Format(DateLayout)
}

// Today returns the calendar date of c.Now().
func Today(c Clock) string {
	return Date(c.Now())
}

// ParseDate parses a YYYY-MM-DD string as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// AddDays shifts a YYYY-MM-DD date by n calendar days. Invalid input is returned unchanged.
func AddDays(date string, n int) string {
	t, err := time.ParseInLocation(DateLayout, date, time.UTC)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}

// IDGenerator produces unique opaque identifiers.
type IDGenerator interface {
	NewID() string
}

// UUIDs generates random (v4) UUID strings.
type UUIDs struct{}

// NewID returns a new random UUID.
func (UUIDs) NewID() string {
	return uuid.NewString()
}

// Sequence generates predictable ids (prefix1, prefix2, ...) for tests.
type Sequence struct {
	mu     sync.Mutex
	Prefix string
	n      int
}

// NewID returns the next id in the sequence.
func (s *Sequence) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	prefix := s.Prefix
	if prefix == "" {
		prefix = "id"
	}
	return prefix + strconv.Itoa(s.n)
}
