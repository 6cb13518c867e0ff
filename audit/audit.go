// Package audit carries the acting principal through a unit of work. Every
// session opened by the store holds one Context; repositories consult it to
// stamp created_by, updated_by and the matching timestamps on mutations.
//
// The principal id is installed explicitly by the service entry point, never
// read from ambient state. The clock is injectable so tests can pin
// timestamps, and each context carries a correlation id that ties log lines
// and store session variables to one request.
package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/australsoft/folio"
)

// Context identifies who is acting and when, for the duration of one unit
// of work.
type Context struct {
	principalID   int64
	clock         folio.Clock
	correlationID uuid.UUID
	bag           map[string]any
}

// Option configures a Context.
type Option func(*Context)

// WithClock replaces the system clock. Tests use it to pin Now.
func WithClock(c folio.Clock) Option {
	return func(a *Context) {
		a.clock = c
	}
}

// WithCorrelationID sets the correlation id instead of generating one.
func WithCorrelationID(id uuid.UUID) Option {
	return func(a *Context) {
		a.correlationID = id
	}
}

// WithValue stores an extra key in the context bag, e.g. the transport
// request id or the tenant the caller resolved.
func WithValue(key string, value any) Option {
	return func(a *Context) {
		if a.bag == nil {
			a.bag = make(map[string]any)
		}
		a.bag[key] = value
	}
}

// New returns a Context acting as the given principal. A zero principalID
// is accepted and means "system": scheduled maintenance and migrations run
// under it.
func New(principalID int64, opts ...Option) *Context {
	a := &Context{
		principalID:   principalID,
		clock:         folio.SystemClock(),
		correlationID: uuid.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// PrincipalID returns the acting principal's id.
func (a *Context) PrincipalID() int64 { return a.principalID }

// CorrelationID returns the correlation id of this unit of work.
func (a *Context) CorrelationID() uuid.UUID { return a.correlationID }

// Now returns the current instant from the context clock, in UTC.
func (a *Context) Now() time.Time { return a.clock.Now().UTC() }

// Today returns the context clock's current date truncated to midnight UTC.
// Document dates (order_date, completed_date, actual_delivery_date) use it.
func (a *Context) Today() time.Time {
	now := a.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Value reads a key from the context bag.
func (a *Context) Value(key string) (any, bool) {
	v, ok := a.bag[key]
	return v, ok
}
