// Package folio holds the contracts shared across the business core: the
// error taxonomy reported to callers, the clock used for audit stamps, and
// the cache interface behind catalog reads.
//
// The heavy lifting lives in the subpackages: dialect and dialect/sql wrap
// the database, store owns sessions and repositories, sequence hands out
// document numbers, bom walks product structures and service implements the
// document lifecycle.
package folio

import "time"

// Clock supplies the time used for audit stamps and date defaults.
// Stores and services never call time.Now directly; tests inject a fixed
// clock to pin timestamps.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock returns a Clock reading the system time in UTC.
func SystemClock() Clock {
	return ClockFunc(func() time.Time { return time.Now().UTC() })
}

// FixedClock returns a Clock that always reports t. Intended for tests.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}
