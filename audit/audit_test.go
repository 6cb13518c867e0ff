package audit_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/australsoft/folio"
	"github.com/australsoft/folio/audit"
)

func TestNew(t *testing.T) {
	a := audit.New(42)
	assert.Equal(t, int64(42), a.PrincipalID())
	assert.NotEqual(t, uuid.Nil, a.CorrelationID())
	assert.WithinDuration(t, time.Now().UTC(), a.Now(), 2*time.Second)
}

func TestWithClock(t *testing.T) {
	pinned := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	a := audit.New(7, audit.WithClock(folio.FixedClock(pinned)))

	assert.Equal(t, pinned, a.Now())
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), a.Today())
}

func TestNowIsUTC(t *testing.T) {
	santiago, err := time.LoadLocation("America/Santiago")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	local := time.Date(2025, 6, 15, 23, 30, 0, 0, santiago)
	a := audit.New(7, audit.WithClock(folio.FixedClock(local)))

	require.Equal(t, time.UTC, a.Now().Location())
	assert.True(t, a.Now().Equal(local))
}

func TestWithCorrelationID(t *testing.T) {
	id := uuid.New()
	a := audit.New(7, audit.WithCorrelationID(id))
	assert.Equal(t, id, a.CorrelationID())
}

func TestBag(t *testing.T) {
	a := audit.New(7, audit.WithValue("request_id", "req-991"), audit.WithValue("tenant", int64(3)))

	v, ok := a.Value("request_id")
	require.True(t, ok)
	assert.Equal(t, "req-991", v)

	v, ok = a.Value("tenant")
	require.True(t, ok)
	assert.Equal(t, int64(3), v)

	_, ok = a.Value("missing")
	assert.False(t, ok)
}

func TestSystemPrincipal(t *testing.T) {
	// id 0 means the system itself acts; the context is still usable.
	a := audit.New(0)
	assert.Zero(t, a.PrincipalID())
	assert.NotEqual(t, uuid.Nil, a.CorrelationID())
}
