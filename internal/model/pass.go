package model

import "time"

// Pass states. A pass only ever moves from active to expired; the
// reverse transition does not exist.
const (
	StateActive  = "active"
	StateExpired = "expired"
)

// MaxPassDuration caps how long a single pass may last.
const MaxPassDuration = time.Hour

// Pass records a time-bounded authorization for a student to be at a
// location. Durations travel as milliseconds end-to-end; clients convert
// from minutes before sending. The persisted State column is only a
// cache: the truth is computed from CreatedAt, Duration and the clock,
// so a stale row can never resurrect an expired pass.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – student who holds the pass.
//  Location  – where the pass permits the student to be.
//  Duration  – lifetime of the pass in milliseconds.
//  State     – cached state, "active" or "expired".
//  CreatedAt – creation timestamp; the pass clock starts here.
//  UpdatedAt – last update timestamp (state cache refresh).
type Pass struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	Location  string    `json:"location"`
	Duration  int64     `json:"duration"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Lifetime returns the pass duration as a time.Duration.
func (p *Pass) Lifetime() time.Duration { return time.Duration(p.Duration) * time.Millisecond }

// ExpiresAt returns the instant the pass stops being active.
func (p *Pass) ExpiresAt() time.Time { return p.CreatedAt.Add(p.Lifetime()) }

// ComputeState derives the pass state from time. It is a pure function
// and idempotent: once now reaches CreatedAt+Duration the result is
// expired on every subsequent call.
func ComputeState(p *Pass, now time.Time) string {
	if now.Before(p.ExpiresAt()) {
		return StateActive
	}
	return StateExpired
}

// RefreshState overwrites the cached State with the computed one and
// reports whether it changed.
func (p *Pass) RefreshState(now time.Time) bool {
	next := ComputeState(p, now)
	if p.State == next {
		return false
	}
	p.State = next
	return true
}
