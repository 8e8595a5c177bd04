package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/motivaitor/insight/internal/ability"
	"github.com/motivaitor/insight/internal/activity"
)

type staticOwners struct {
	owners []activity.OwnerID
	err    error
}

func (s staticOwners) ListOwners(context.Context) ([]activity.OwnerID, error) {
	return s.owners, s.err
}

type countingEngine struct {
	mu    sync.Mutex
	calls map[activity.OwnerID]int
	fail  activity.OwnerID
	inUse atomic.Int32
	peak  atomic.Int32
}

func (c *countingEngine) Recompute(_ context.Context, owner activity.OwnerID, _ time.Time) (ability.State, error) {
	n := c.inUse.Add(1)
	defer c.inUse.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = map[activity.OwnerID]int{}
	}
	c.calls[owner]++
	if owner == c.fail {
		return ability.State{}, errors.New("disk full")
	}
	return ability.State{}, nil
}

func TestRunOnceRecomputesEachOwnerOnce(t *testing.T) {
	engine := &countingEngine{fail: "bob"}
	owners := staticOwners{owners: []activity.OwnerID{"alice", "bob", "alice", "", "carol", "dave", "erin"}}

	s, err := New(owners, engine, "", 2)
	require.NoError(t, err)

	res, err := s.RunOnce(context.Background(), time.Now())
	require.NoError(t, err)
	require.Equal(t, RunResult{Owners: 5, Failed: 1}, res)

	require.Equal(t, map[activity.OwnerID]int{"alice": 1, "bob": 1, "carol": 1, "dave": 1, "erin": 1}, engine.calls)
	require.LessOrEqual(t, engine.peak.Load(), int32(2))
}

func TestRunOnceListFailure(t *testing.T) {
	s, err := New(staticOwners{err: errors.New("db closed")}, &countingEngine{}, "", 1)
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background(), time.Now())
	require.ErrorContains(t, err, "list owners")
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := New(staticOwners{}, &countingEngine{}, "every tuesday", 1)
	require.Error(t, err)

	for _, spec := range []string{DefaultSchedule, "@daily", "*/5 * * * * *"} {
		_, err := New(staticOwners{}, &countingEngine{}, spec, 1)
		require.NoError(t, err, spec)
	}
}

func TestRunOnceWithEngineAppliesDailyDecay(t *testing.T) {
	ctx := context.Background()
	store := activity.NewMemoryStore()
	now := time.Date(2025, 7, 10, 3, 0, 0, 0, time.UTC)

	require.NoError(t, store.CreateHealthEntry(ctx, &activity.HealthEntry{
		OwnerID: "alice", Date: now.AddDate(0, 0, -30), SleepHours: 8, MoodScore: 8,
	}))

	states := &stateMap{m: map[activity.OwnerID]ability.State{"alice": {Health: 40}}}
	engine := ability.NewEngine(store, states, ability.DefaultConfig())

	s, err := New(store, engine, "", 2)
	require.NoError(t, err)

	for day := 0; day < 3; day++ {
		_, err := s.RunOnce(ctx, now.AddDate(0, 0, day))
		require.NoError(t, err)
	}
	require.Equal(t, 37.0, states.m["alice"].Health)
}

func TestSchedulerFires(t *testing.T) {
	engine := &countingEngine{}
	s, err := New(staticOwners{owners: []activity.OwnerID{"alice"}}, engine, "* * * * * *", 1)
	require.NoError(t, err)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool {
		engine.mu.Lock()
		defer engine.mu.Unlock()
		return engine.calls["alice"] > 0
	}, 2500*time.Millisecond, 50*time.Millisecond)
}

type stateMap struct {
	mu sync.Mutex
	m  map[activity.OwnerID]ability.State
}

func (s *stateMap) GetAbilities(_ context.Context, owner activity.OwnerID) (ability.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[owner], nil
}

func (s *stateMap) SaveAbilities(_ context.Context, owner activity.OwnerID, st ability.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[owner] = st
	return nil
}
