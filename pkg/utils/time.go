package utils

import "time"

// Clock abstracts time for components that need deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// FakeClock is a Clock pinned to a settable instant for tests.
type FakeClock struct {
	Current time.Time
}

func (f *FakeClock) Now() time.Time {
	return f.Current
}

// Advance moves the clock forward.
func (f *FakeClock) Advance(d time.Duration) {
	f.Current = f.Current.Add(d)
}

// FormatRFC3339 formats a time in RFC3339 format with nanosecond precision.
// Nanosecond precision keeps lexicographic and chronological order aligned
// for records created in quick succession.
func FormatRFC3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseRFC3339 parses a time string in RFC3339 format
func ParseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
