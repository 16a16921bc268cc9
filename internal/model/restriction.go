package model

import "time"

// Restriction types. A frequency rule limits how many passes one user
// may create per rolling window; an area rule caps how many active
// passes may target one location at a time.
const (
	TypeArea      = "area"
	TypeFrequency = "frequency"
)

// Restriction is one policy rule limiting pass issuance. Rules are
// configuration data: created and updated by IT/SENIOR staff, read-only
// to the quota evaluator. TTL and Interval are milliseconds, matching
// the wire unit used everywhere else.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – human-readable rule name, echoed in denial reasons.
//  Type      – TypeArea or TypeFrequency.
//  TTL       – how long the rule's counting window is retained, in ms.
//  Amount    – maximum count before the rule denies. Zero denies always.
//  Interval  – frequency rules only: rolling window length in ms.
//  Target    – area rules only: the location the rule applies to.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Restriction struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	TTL       int64     `json:"ttl"`
	Amount    uint32    `json:"amount"`
	Interval  *int64    `json:"interval,omitempty"`
	Target    *string   `json:"target,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Window returns the rolling window for a frequency rule. When Interval
// is unset the TTL bounds the window instead.
func (r *Restriction) Window() time.Duration {
	if r.Interval != nil && *r.Interval > 0 {
		return time.Duration(*r.Interval) * time.Millisecond
	}
	return time.Duration(r.TTL) * time.Millisecond
}

// Retention returns the area rule's counting window.
func (r *Restriction) Retention() time.Duration { return time.Duration(r.TTL) * time.Millisecond }
