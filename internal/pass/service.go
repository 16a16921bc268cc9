// Package pass implements the pass lifecycle: admission, creation,
// listing and deterministic expiry. The storage layer sits behind the
// Store interface so the lifecycle rules can be tested in memory.
package pass

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/hall-pass/internal/model"
	"github.com/iliyamo/hall-pass/internal/policy"
)

// Store is the persistence surface the service needs. The MySQL
// repositories satisfy it in production.
type Store interface {
	policy.Counters

	InsertPass(ctx context.Context, p *model.Pass) error
	PassesByUser(ctx context.Context, userID uint64) ([]model.Pass, error)
	ActivePassesByUser(ctx context.Context, userID uint64, now time.Time) ([]model.Pass, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
	ListRestrictions(ctx context.Context) ([]model.Restriction, error)
	IncrementFailedAttempts(ctx context.Context, userID uint64) error
}

// Events receives lifecycle notifications. Delivery is best-effort:
// implementations must never block the request path on a slow or
// unavailable sink.
type Events interface {
	PassCreated(ctx context.Context, p model.Pass)
	PassDenied(ctx context.Context, userID uint64, location string, d policy.Decision)
}

// NopEvents discards all notifications.
type NopEvents struct{}

func (NopEvents) PassCreated(context.Context, model.Pass)                     {}
func (NopEvents) PassDenied(context.Context, uint64, string, policy.Decision) {}

// Service is the pass lifecycle manager. Create serializes per user:
// the evaluate-then-insert sequence for one user runs under that user's
// lock, so two concurrent requests can never both pass a frequency
// check before either pass is written.
type Service struct {
	store     Store
	evaluator *policy.Evaluator
	events    Events

	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

// New constructs a Service. A nil events sink means notifications are
// discarded.
func New(store Store, events Events) *Service {
	if events == nil {
		events = NopEvents{}
	}
	return &Service{
		store:     store,
		evaluator: policy.NewEvaluator(store),
		events:    events,
		locks:     make(map[uint64]*sync.Mutex),
	}
}

// userLock returns the mutex serializing pass creation for one user.
// Locks are never removed; the map grows with the number of users that
// ever requested a pass, which is bounded and small.
func (s *Service) userLock(userID uint64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// Create evaluates the request against all applicable restrictions and,
// when allowed, persists a new active pass. On denial the decision is
// returned with a nil pass, the user's failed-attempt counter is bumped
// and a denial event is emitted; the caller surfaces the primary reason
// verbatim. Secondary violations are logged here since only the first
// reaches the client.
func (s *Service) Create(ctx context.Context, userID uint64, location string, durationMS int64) (*model.Pass, policy.Decision, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	rules, err := s.store.ListRestrictions(ctx)
	if err != nil {
		return nil, policy.Decision{}, err
	}
	now := time.Now().UTC()
	decision, err := s.evaluator.Evaluate(ctx, policy.Request{
		UserID:   userID,
		Location: location,
		Duration: durationMS,
		Now:      now,
	}, rules)
	if err != nil {
		return nil, policy.Decision{}, err
	}
	if !decision.Allowed {
		for _, v := range decision.Violations[1:] {
			log.Printf("pass denied user=%d location=%s also violated: %s", userID, location, v.Message)
		}
		if err := s.store.IncrementFailedAttempts(ctx, userID); err != nil {
			log.Printf("failed to record denied attempt for user %d: %v", userID, err)
		}
		s.events.PassDenied(ctx, userID, location, decision)
		return nil, decision, nil
	}

	p := &model.Pass{
		UserID:   userID,
		Location: location,
		Duration: durationMS,
		State:    model.StateActive,
	}
	if err := s.store.InsertPass(ctx, p); err != nil {
		return nil, policy.Decision{}, err
	}
	s.events.PassCreated(ctx, *p)
	return p, decision, nil
}

// List returns all of the user's passes with their state recomputed on
// read; the persisted state column is never trusted.
func (s *Service) List(ctx context.Context, userID uint64) ([]model.Pass, error) {
	return s.store.PassesByUser(ctx, userID)
}

// Active returns the user's passes whose computed state is active right now.
func (s *Service) Active(ctx context.Context, userID uint64) ([]model.Pass, error) {
	return s.store.ActivePassesByUser(ctx, userID, time.Now().UTC())
}

// ExpireDue refreshes the persisted state cache for every pass that has
// run out. Idempotent; safe to run concurrently with requests and with
// other sweeps.
func (s *Service) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	return s.store.ExpireDue(ctx, now)
}
