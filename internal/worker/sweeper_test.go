package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeExpirer) ExpireDue(context.Context, time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return 2, f.err
}

func (f *fakeExpirer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestNewSweeperClampsInterval(t *testing.T) {
	s := NewSweeper(&fakeExpirer{}, 10*time.Millisecond)
	require.Equal(t, time.Second, s.every)

	s = NewSweeper(&fakeExpirer{}, 5*time.Minute)
	require.Equal(t, 5*time.Minute, s.every)
}

func TestSweepCallsExpirer(t *testing.T) {
	f := &fakeExpirer{}
	s := NewSweeper(f, time.Minute)
	s.sweep(context.Background(), time.Now().UTC())
	require.Equal(t, 1, f.count())
}

func TestSweepSurvivesErrors(t *testing.T) {
	f := &fakeExpirer{err: errors.New("connection refused")}
	s := NewSweeper(f, time.Minute)
	// Must not panic; the error is logged and the next tick retries.
	s.sweep(context.Background(), time.Now().UTC())
	s.sweep(context.Background(), time.Now().UTC())
	require.Equal(t, 2, f.count())
}

func TestRunStopsOnCancel(t *testing.T) {
	f := &fakeExpirer{}
	s := &Sweeper{passes: f, every: 10 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// Give the ticker a few periods, then cancel and verify Run returns.
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	require.Greater(t, f.count(), 0)
}
