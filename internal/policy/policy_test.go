package policy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hall-pass/internal/model"
)

// fakeCounters returns canned counts and records the windows it was
// asked about.
type fakeCounters struct {
	userCount     int
	locationCount int
	userSince     []time.Time
	areaSince     []time.Time
}

func (f *fakeCounters) CountByUserSince(_ context.Context, _ uint64, since time.Time) (int, error) {
	f.userSince = append(f.userSince, since)
	return f.userCount, nil
}

func (f *fakeCounters) CountActiveAtLocation(_ context.Context, _ string, since, _ time.Time) (int, error) {
	f.areaSince = append(f.areaSince, since)
	return f.locationCount, nil
}

func ms(d time.Duration) *int64 {
	v := d.Milliseconds()
	return &v
}

func strptr(s string) *string { return &s }

func freqRule(name string, amount uint32, interval time.Duration) model.Restriction {
	return model.Restriction{
		Name:     name,
		Type:     model.TypeFrequency,
		TTL:      (24 * time.Hour).Milliseconds(),
		Amount:   amount,
		Interval: ms(interval),
	}
}

func areaRule(name string, amount uint32, target string, ttl time.Duration) model.Restriction {
	return model.Restriction{
		Name:   name,
		Type:   model.TypeArea,
		TTL:    ttl.Milliseconds(),
		Amount: amount,
		Target: strptr(target),
	}
}

func request(location string, duration time.Duration) Request {
	return Request{UserID: 1, Location: location, Duration: duration.Milliseconds(), Now: time.Now().UTC()}
}

func TestApplicable(t *testing.T) {
	rules := []model.Restriction{
		freqRule("bathroom-break", 2, time.Hour),
		areaRule("library-cap", 3, "library", time.Hour),
		areaRule("gym-cap", 5, "gym", time.Hour),
	}

	got := Applicable(rules, "library")
	require.Len(t, got, 2)
	require.Equal(t, "bathroom-break", got[0].Name)
	require.Equal(t, "library-cap", got[1].Name)

	got = Applicable(rules, "cafeteria")
	require.Len(t, got, 1)
	require.Equal(t, "bathroom-break", got[0].Name)
}

func TestEvaluateOpenByDefault(t *testing.T) {
	e := NewEvaluator(&fakeCounters{userCount: 100, locationCount: 100})
	d, err := e.Evaluate(context.Background(), request("library", 15*time.Minute), nil)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Empty(t, d.Violations)
	require.Equal(t, "", d.Reason())
}

func TestEvaluateDurationTooLong(t *testing.T) {
	// Duration cap applies regardless of quota state, even with no rules.
	e := NewEvaluator(&fakeCounters{})
	d, err := e.Evaluate(context.Background(), request("library", model.MaxPassDuration+time.Millisecond), nil)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, CodeDurationTooLong, d.Violations[0].Code)
}

func TestEvaluateHugeDurationDenied(t *testing.T) {
	// A millisecond value this large would wrap if converted to
	// nanoseconds first; the cap must hold for the full int64 range.
	huge := time.Minute.Milliseconds() + 1<<58
	e := NewEvaluator(&fakeCounters{})
	req := Request{UserID: 1, Location: "library", Duration: huge, Now: time.Now().UTC()}
	d, err := e.Evaluate(context.Background(), req, nil)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, CodeDurationTooLong, d.Violations[0].Code)
}

func TestEvaluateDurationAtCapAllowed(t *testing.T) {
	e := NewEvaluator(&fakeCounters{})
	d, err := e.Evaluate(context.Background(), request("library", model.MaxPassDuration), nil)
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestEvaluateFrequency(t *testing.T) {
	rules := []model.Restriction{freqRule("bathroom-break", 2, time.Hour)}

	for _, tc := range []struct {
		name    string
		count   int
		allowed bool
	}{
		{"under the limit", 0, true},
		{"one below", 1, true},
		{"at the limit", 2, false},
		{"over the limit", 3, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			counters := &fakeCounters{userCount: tc.count}
			e := NewEvaluator(counters)
			d, err := e.Evaluate(context.Background(), request("library", 10*time.Minute), rules)
			require.NoError(t, err)
			require.Equal(t, tc.allowed, d.Allowed)
			if !tc.allowed {
				require.Equal(t, CodeFrequencyExceeded, d.Violations[0].Code)
				require.Equal(t, "bathroom-break", d.Violations[0].Restriction)
				require.Contains(t, d.Reason(), "bathroom-break")
			}
		})
	}
}

func TestEvaluateFrequencyWindow(t *testing.T) {
	// The counter must be asked about now-interval, not the rule TTL.
	counters := &fakeCounters{}
	e := NewEvaluator(counters)
	req := request("library", 10*time.Minute)
	_, err := e.Evaluate(context.Background(), req, []model.Restriction{freqRule("r", 1, time.Hour)})
	require.NoError(t, err)
	require.Len(t, counters.userSince, 1)
	require.True(t, counters.userSince[0].Equal(req.Now.Add(-time.Hour)))
}

func TestEvaluateAreaCapacity(t *testing.T) {
	rules := []model.Restriction{areaRule("library-cap", 3, "library", time.Hour)}

	counters := &fakeCounters{locationCount: 3}
	e := NewEvaluator(counters)
	d, err := e.Evaluate(context.Background(), request("library", 10*time.Minute), rules)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, CodeAreaCapacityExceeded, d.Violations[0].Code)
	require.Contains(t, d.Reason(), "library")

	// The same rule must not apply to a different location.
	d, err = e.Evaluate(context.Background(), request("gym", 10*time.Minute), rules)
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestEvaluateZeroAmountAlwaysDenies(t *testing.T) {
	e := NewEvaluator(&fakeCounters{userCount: 0, locationCount: 0})
	d, err := e.Evaluate(context.Background(), request("library", 10*time.Minute),
		[]model.Restriction{freqRule("lockdown", 0, time.Hour)})
	require.NoError(t, err)
	require.False(t, d.Allowed)
}

func TestEvaluateCollectsAllViolations(t *testing.T) {
	// Both broken rules are reported; the first in registry order is the
	// primary reason, except the duration cap which always leads.
	rules := []model.Restriction{
		freqRule("bathroom-break", 1, time.Hour),
		areaRule("library-cap", 1, "library", time.Hour),
	}
	e := NewEvaluator(&fakeCounters{userCount: 5, locationCount: 5})
	d, err := e.Evaluate(context.Background(), request("library", 2*time.Hour), rules)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Len(t, d.Violations, 3)
	require.Equal(t, CodeDurationTooLong, d.Violations[0].Code)
	require.Equal(t, CodeFrequencyExceeded, d.Violations[1].Code)
	require.Equal(t, CodeAreaCapacityExceeded, d.Violations[2].Code)
}

func TestEvaluateOrderIndependentDenial(t *testing.T) {
	// Denial by any one rule is a total denial regardless of ordering.
	a := freqRule("a", 1, time.Hour)
	b := areaRule("b", 100, "library", time.Hour)
	e := NewEvaluator(&fakeCounters{userCount: 5, locationCount: 0})

	d1, err := e.Evaluate(context.Background(), request("library", time.Minute), []model.Restriction{a, b})
	require.NoError(t, err)
	d2, err := e.Evaluate(context.Background(), request("library", time.Minute), []model.Restriction{b, a})
	require.NoError(t, err)
	require.False(t, d1.Allowed)
	require.False(t, d2.Allowed)
}
