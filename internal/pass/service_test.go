package pass

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hall-pass/internal/model"
	"github.com/iliyamo/hall-pass/internal/policy"
)

// memStore is an in-memory Store used to exercise the lifecycle rules
// without a database.
type memStore struct {
	mu     sync.Mutex
	nextID uint64
	passes []model.Pass
	rules  []model.Restriction
	failed map[uint64]int
}

func newMemStore(rules ...model.Restriction) *memStore {
	return &memStore{rules: rules, failed: make(map[uint64]int)}
}

func (s *memStore) InsertPass(_ context.Context, p *model.Pass) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.UpdatedAt = p.CreatedAt
	p.State = model.StateActive
	s.passes = append(s.passes, *p)
	return nil
}

// seed adds a pass with a chosen creation time, bypassing the service.
func (s *memStore) seed(userID uint64, location string, duration time.Duration, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.passes = append(s.passes, model.Pass{
		ID:        s.nextID,
		UserID:    userID,
		Location:  location,
		Duration:  duration.Milliseconds(),
		State:     model.StateActive,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
}

func (s *memStore) PassesByUser(_ context.Context, userID uint64) ([]model.Pass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	out := make([]model.Pass, 0)
	for _, p := range s.passes {
		if p.UserID == userID {
			p.State = model.ComputeState(&p, now)
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) ActivePassesByUser(_ context.Context, userID uint64, now time.Time) ([]model.Pass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Pass, 0)
	for _, p := range s.passes {
		if p.UserID == userID && model.ComputeState(&p, now) == model.StateActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) ExpireDue(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.passes {
		if s.passes[i].State == model.StateActive && model.ComputeState(&s.passes[i], now) == model.StateExpired {
			s.passes[i].State = model.StateExpired
			s.passes[i].UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (s *memStore) ListRestrictions(context.Context) ([]model.Restriction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Restriction(nil), s.rules...), nil
}

func (s *memStore) IncrementFailedAttempts(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[userID]++
	return nil
}

func (s *memStore) CountByUserSince(_ context.Context, userID uint64, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.passes {
		if p.UserID == userID && !p.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CountActiveAtLocation(_ context.Context, location string, since, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.passes {
		if p.Location == location && !p.CreatedAt.Before(since) && model.ComputeState(&p, now) == model.StateActive {
			n++
		}
	}
	return n, nil
}

func frequencyRule(amount uint32, interval time.Duration) model.Restriction {
	v := interval.Milliseconds()
	return model.Restriction{
		ID:       1,
		Name:     "bathroom-break",
		Type:     model.TypeFrequency,
		TTL:      (24 * time.Hour).Milliseconds(),
		Amount:   amount,
		Interval: &v,
	}
}

func TestCreateNoRestrictionsAllows(t *testing.T) {
	store := newMemStore()
	svc := New(store, nil)

	p, d, err := svc.Create(context.Background(), 1, "library", (15*time.Minute).Milliseconds())
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.NotNil(t, p)
	require.Equal(t, model.StateActive, p.State)
	require.Equal(t, int64((15 * time.Minute).Milliseconds()), p.Duration)
	require.NotZero(t, p.ID)
}

func TestCreateDurationTooLongDenied(t *testing.T) {
	store := newMemStore()
	svc := New(store, nil)

	p, d, err := svc.Create(context.Background(), 1, "library", (2*time.Hour).Milliseconds())
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Nil(t, p)
	require.Equal(t, policy.CodeDurationTooLong, d.Violations[0].Code)
	require.Equal(t, 1, store.failed[1])
	require.Empty(t, store.passes, "a denied request must not persist a pass")
}

func TestCreateHugeDurationDenied(t *testing.T) {
	// 2^58 ms plus a minute wraps to exactly one minute when converted
	// to nanoseconds, so the cap is enforced on the millisecond value.
	store := newMemStore()
	svc := New(store, nil)

	p, d, err := svc.Create(context.Background(), 1, "library", time.Minute.Milliseconds()+1<<58)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Nil(t, p)
	require.Equal(t, policy.CodeDurationTooLong, d.Violations[0].Code)
	require.Empty(t, store.passes)
}

func TestCreateFrequencyLimit(t *testing.T) {
	// amount=2 per hour: two creations succeed, the third is denied,
	// and once the window has passed creation succeeds again.
	store := newMemStore(frequencyRule(2, time.Hour))
	svc := New(store, nil)
	ctx := context.Background()

	_, d, err := svc.Create(ctx, 1, "library", (10*time.Minute).Milliseconds())
	require.NoError(t, err)
	require.True(t, d.Allowed)

	_, d, err = svc.Create(ctx, 1, "library", (10*time.Minute).Milliseconds())
	require.NoError(t, err)
	require.True(t, d.Allowed)

	p, d, err := svc.Create(ctx, 1, "library", (10*time.Minute).Milliseconds())
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Nil(t, p)
	require.Equal(t, policy.CodeFrequencyExceeded, d.Violations[0].Code)

	// Another user is unaffected: frequency limits count per user.
	_, d, err = svc.Create(ctx, 2, "library", (10*time.Minute).Milliseconds())
	require.NoError(t, err)
	require.True(t, d.Allowed)

	// Simulate the window elapsing by backdating the stored passes.
	store.mu.Lock()
	for i := range store.passes {
		store.passes[i].CreatedAt = store.passes[i].CreatedAt.Add(-2 * time.Hour)
	}
	store.mu.Unlock()

	_, d, err = svc.Create(ctx, 1, "library", (10*time.Minute).Milliseconds())
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestCreateAreaCapacityGlobal(t *testing.T) {
	target := "library"
	ttl := time.Hour.Milliseconds()
	store := newMemStore(model.Restriction{
		ID:     1,
		Name:   "library-cap",
		Type:   model.TypeArea,
		TTL:    ttl,
		Amount: 2,
		Target: &target,
	})
	svc := New(store, nil)
	ctx := context.Background()
	now := time.Now().UTC()

	// Two other students already hold active library passes.
	store.seed(10, "library", 30*time.Minute, now.Add(-5*time.Minute))
	store.seed(11, "library", 30*time.Minute, now.Add(-5*time.Minute))

	p, d, err := svc.Create(ctx, 1, "library", (10*time.Minute).Milliseconds())
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Nil(t, p)
	require.Equal(t, policy.CodeAreaCapacityExceeded, d.Violations[0].Code)

	// A different location is unaffected by the library cap.
	_, d, err = svc.Create(ctx, 1, "gym", (10*time.Minute).Milliseconds())
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestCreateAreaCapacityIgnoresExpired(t *testing.T) {
	target := "library"
	store := newMemStore(model.Restriction{
		ID:     1,
		Name:   "library-cap",
		Type:   model.TypeArea,
		TTL:    time.Hour.Milliseconds(),
		Amount: 1,
		Target: &target,
	})
	svc := New(store, nil)

	// An expired pass at the location must not count against the cap.
	store.seed(10, "library", time.Minute, time.Now().UTC().Add(-30*time.Minute))

	_, d, err := svc.Create(context.Background(), 1, "library", (10*time.Minute).Milliseconds())
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestConcurrentCreatesSingleAllow(t *testing.T) {
	// Regression test for the evaluate-then-insert race: with a
	// frequency limit of one, two concurrent requests from the same
	// user must yield exactly one allow.
	for i := 0; i < 50; i++ {
		store := newMemStore(frequencyRule(1, time.Hour))
		svc := New(store, nil)

		var wg sync.WaitGroup
		decisions := make([]policy.Decision, 2)
		errs := make([]error, 2)
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				_, decisions[j], errs[j] = svc.Create(context.Background(), 1, "library", (10*time.Minute).Milliseconds())
			}(j)
		}
		wg.Wait()
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		allows := 0
		for _, d := range decisions {
			if d.Allowed {
				allows++
			}
		}
		require.Equal(t, 1, allows, "exactly one of two concurrent creates may be allowed")
		require.Len(t, store.passes, 1)
	}
}

func TestListAndActive(t *testing.T) {
	store := newMemStore()
	svc := New(store, nil)
	now := time.Now().UTC()

	store.seed(1, "library", 10*time.Minute, now.Add(-time.Minute)) // still active
	store.seed(1, "gym", time.Minute, now.Add(-10*time.Minute))     // expired
	store.seed(2, "library", 10*time.Minute, now)                   // other user

	all, err := svc.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, all, 2)

	active, err := svc.Active(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "library", active[0].Location)
}

func TestExpireDueIdempotent(t *testing.T) {
	store := newMemStore()
	svc := New(store, nil)
	now := time.Now().UTC()

	store.seed(1, "library", time.Minute, now.Add(-10*time.Minute))
	store.seed(1, "gym", time.Hour, now.Add(-10*time.Minute))

	n, err := svc.ExpireDue(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	// A second sweep finds nothing left to flip.
	n, err = svc.ExpireDue(context.Background(), now)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Equal(t, model.StateExpired, store.passes[0].State)
	require.Equal(t, model.StateActive, store.passes[1].State)
}

// recordingEvents captures lifecycle notifications.
type recordingEvents struct {
	mu      sync.Mutex
	created []model.Pass
	denied  []policy.Decision
}

func (r *recordingEvents) PassCreated(_ context.Context, p model.Pass) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, p)
}

func (r *recordingEvents) PassDenied(_ context.Context, _ uint64, _ string, d policy.Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.denied = append(r.denied, d)
}

func TestCreateEmitsEvents(t *testing.T) {
	events := &recordingEvents{}
	store := newMemStore(frequencyRule(1, time.Hour))
	svc := New(store, events)
	ctx := context.Background()

	_, _, err := svc.Create(ctx, 1, "library", (10*time.Minute).Milliseconds())
	require.NoError(t, err)
	_, _, err = svc.Create(ctx, 1, "library", (10*time.Minute).Milliseconds())
	require.NoError(t, err)

	require.Len(t, events.created, 1)
	require.Equal(t, "library", events.created[0].Location)
	require.Len(t, events.denied, 1)
	require.False(t, events.denied[0].Allowed)
}
