// Package policy decides whether a new pass may be issued. It contains
// the restriction matching rules and the quota evaluator. The evaluator
// is pure with respect to storage: pass counts come in through the
// Counters interface so the decision logic can be exercised without a
// database.
package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/hall-pass/internal/model"
)

// Violation codes carried in denial reasons. The codes are stable
// identifiers for clients; Message is the human-readable rendering.
const (
	CodeDurationTooLong      = "duration_too_long"
	CodeFrequencyExceeded    = "frequency_exceeded"
	CodeAreaCapacityExceeded = "area_capacity_exceeded"
)

// Violation records one rule the request broke.
type Violation struct {
	Code        string `json:"code"`
	Restriction string `json:"restriction,omitempty"`
	Message     string `json:"message"`
}

// Decision is the outcome of evaluating a pass request. When the
// request is denied every broken rule is collected, not just the first:
// the primary reason reported to the client is the first violation in
// registry order and the rest are available for diagnostics.
type Decision struct {
	Allowed    bool
	Violations []Violation
}

// Reason returns the primary human-readable denial reason, or the empty
// string for an allowed decision.
func (d Decision) Reason() string {
	if d.Allowed || len(d.Violations) == 0 {
		return ""
	}
	return d.Violations[0].Message
}

// Counters supplies the pass counts the evaluator needs. The production
// implementation queries the passes table; tests substitute fakes.
type Counters interface {
	// CountByUserSince counts passes created by the user at or after since.
	CountByUserSince(ctx context.Context, userID uint64, since time.Time) (int, error)
	// CountActiveAtLocation counts passes from any user targeting the
	// location, created at or after since and still active at now.
	CountActiveAtLocation(ctx context.Context, location string, since, now time.Time) (int, error)
}

// Request carries the parameters of one pass-creation attempt.
// Duration is in milliseconds, the wire unit, and is compared in that
// unit: converting an attacker-supplied value to nanoseconds first
// could wrap a huge number into an in-cap one.
type Request struct {
	UserID   uint64
	Location string
	Duration int64
	Now      time.Time
}

// Applicable filters the registry down to the rules that could affect a
// request for the given location. Frequency rules always apply; area
// rules apply only when their target matches the requested location.
// The returned slice preserves registry order.
func Applicable(rules []model.Restriction, location string) []model.Restriction {
	out := make([]model.Restriction, 0, len(rules))
	for _, r := range rules {
		switch r.Type {
		case model.TypeFrequency:
			out = append(out, r)
		case model.TypeArea:
			if r.Target != nil && *r.Target == location {
				out = append(out, r)
			}
		}
	}
	return out
}

// Evaluator applies the applicable restrictions to a pass request.
type Evaluator struct {
	counters Counters
}

func NewEvaluator(counters Counters) *Evaluator { return &Evaluator{counters: counters} }

// Evaluate checks the request against the duration cap and every
// applicable restriction. Evaluation is order-independent: any single
// violation makes the whole decision a denial, and with no applicable
// rules the request is allowed (open by default). All violations are
// collected so callers can log the full set even though only the first
// is surfaced to the client.
func (e *Evaluator) Evaluate(ctx context.Context, req Request, rules []model.Restriction) (Decision, error) {
	var violations []Violation

	if req.Duration > model.MaxPassDuration.Milliseconds() {
		violations = append(violations, Violation{
			Code: CodeDurationTooLong,
			Message: fmt.Sprintf("requested duration %dms exceeds the maximum of %s",
				req.Duration, model.MaxPassDuration),
		})
	}

	for _, rule := range Applicable(rules, req.Location) {
		switch rule.Type {
		case model.TypeFrequency:
			count, err := e.counters.CountByUserSince(ctx, req.UserID, req.Now.Add(-rule.Window()))
			if err != nil {
				return Decision{}, err
			}
			if uint32(count) >= rule.Amount {
				violations = append(violations, Violation{
					Code:        CodeFrequencyExceeded,
					Restriction: rule.Name,
					Message: fmt.Sprintf("too many passes: at most %d per %s allowed by rule %q",
						rule.Amount, rule.Window(), rule.Name),
				})
			}
		case model.TypeArea:
			count, err := e.counters.CountActiveAtLocation(ctx, req.Location, req.Now.Add(-rule.Retention()), req.Now)
			if err != nil {
				return Decision{}, err
			}
			if uint32(count) >= rule.Amount {
				violations = append(violations, Violation{
					Code:        CodeAreaCapacityExceeded,
					Restriction: rule.Name,
					Message: fmt.Sprintf("area %q is at capacity: at most %d passes allowed by rule %q",
						req.Location, rule.Amount, rule.Name),
				})
			}
		}
	}

	if len(violations) > 0 {
		return Decision{Allowed: false, Violations: violations}, nil
	}
	return Decision{Allowed: true}, nil
}
