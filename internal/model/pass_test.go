package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputeState(t *testing.T) {
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	p := &Pass{Duration: (10 * time.Minute).Milliseconds(), CreatedAt: created}

	require.Equal(t, StateActive, ComputeState(p, created))
	require.Equal(t, StateActive, ComputeState(p, created.Add(10*time.Minute-time.Millisecond)))

	// The boundary instant itself is already expired.
	require.Equal(t, StateExpired, ComputeState(p, created.Add(10*time.Minute)))
	require.Equal(t, StateExpired, ComputeState(p, created.Add(time.Hour)))
}

func TestComputeStateIdempotent(t *testing.T) {
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	p := &Pass{Duration: time.Minute.Milliseconds(), CreatedAt: created}

	// Once expired, every later evaluation stays expired.
	for _, after := range []time.Duration{time.Minute, 2 * time.Minute, 24 * time.Hour} {
		require.Equal(t, StateExpired, ComputeState(p, created.Add(after)))
	}
}

func TestRefreshState(t *testing.T) {
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	p := &Pass{Duration: time.Minute.Milliseconds(), State: StateActive, CreatedAt: created}

	require.False(t, p.RefreshState(created.Add(30*time.Second)))
	require.Equal(t, StateActive, p.State)

	require.True(t, p.RefreshState(created.Add(2*time.Minute)))
	require.Equal(t, StateExpired, p.State)

	// A second refresh is a no-op.
	require.False(t, p.RefreshState(created.Add(3*time.Minute)))
}

func TestExpiresAt(t *testing.T) {
	created := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	p := &Pass{Duration: (45 * time.Minute).Milliseconds(), CreatedAt: created}
	require.Equal(t, created.Add(45*time.Minute), p.ExpiresAt())
	require.Equal(t, 45*time.Minute, p.Lifetime())
}

func TestRestrictionWindow(t *testing.T) {
	interval := (30 * time.Minute).Milliseconds()
	r := &Restriction{TTL: (24 * time.Hour).Milliseconds(), Interval: &interval}
	require.Equal(t, 30*time.Minute, r.Window())

	// Without an interval the TTL bounds the window.
	r.Interval = nil
	require.Equal(t, 24*time.Hour, r.Window())

	zero := int64(0)
	r.Interval = &zero
	require.Equal(t, 24*time.Hour, r.Window())

	require.Equal(t, 24*time.Hour, r.Retention())
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: now.Add(time.Minute)}
	require.False(t, s.Expired(now))
	require.True(t, s.Expired(now.Add(time.Minute)))
	require.True(t, s.Expired(now.Add(time.Hour)))
}
