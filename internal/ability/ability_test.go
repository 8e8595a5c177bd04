package ability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/motivaitor/insight/internal/activity"
)

var today = time.Date(2025, time.June, 20, 18, 30, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return today.Add(-time.Duration(n) * 24 * time.Hour)
}

func completed(n int, at time.Time) []activity.Task {
	out := make([]activity.Task, n)
	for i := range out {
		ts := at
		out[i] = activity.Task{ID: int64(i + 1), Completed: true, CompletedAt: &ts}
	}
	return out
}

func TestWillpower(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, 0.0, Compute(Window{}, State{Willpower: 80}, today, cfg).Willpower)
	require.Equal(t, 15.0, Compute(Window{CompletedTasks: completed(3, daysAgo(1))}, State{}, today, cfg).Willpower)
	require.Equal(t, 100.0, Compute(Window{CompletedTasks: completed(25, daysAgo(2))}, State{}, today, cfg).Willpower)
	require.Equal(t, 0.0, Compute(Window{CompletedTasks: completed(4, daysAgo(8))}, State{}, today, cfg).Willpower)
}

func TestWillpowerWindowStartsAtMidnight(t *testing.T) {
	cfg := DefaultConfig()
	edge := activity.Midnight(today).Add(-7 * 24 * time.Hour)

	state := Compute(Window{CompletedTasks: completed(1, edge)}, State{}, today, cfg)
	require.Equal(t, 5.0, state.Willpower)

	state = Compute(Window{CompletedTasks: completed(1, edge.Add(-time.Second))}, State{}, today, cfg)
	require.Equal(t, 0.0, state.Willpower)
}

func TestHealthFromEntries(t *testing.T) {
	cfg := DefaultConfig()

	full := Compute(Window{HealthEntries: []activity.HealthEntry{
		{Date: daysAgo(1), SleepHours: 7.5, MoodScore: 8.0},
	}}, State{}, today, cfg)
	require.Equal(t, 100.0, full.Health)

	capped := Compute(Window{HealthEntries: []activity.HealthEntry{
		{Date: daysAgo(1), SleepHours: 10, MoodScore: 10},
	}}, State{}, today, cfg)
	require.Equal(t, 100.0, capped.Health)

	// avg sleep 6 -> 40 pts, avg mood 5 -> 31.25 pts, floor(71.25) = 71
	mixed := Compute(Window{HealthEntries: []activity.HealthEntry{
		{Date: daysAgo(1), SleepHours: 4, MoodScore: 4},
		{Date: daysAgo(2), SleepHours: 8, MoodScore: 6},
	}}, State{Health: 3}, today, cfg)
	require.Equal(t, 71.0, mixed.Health)
}

func TestHealthDecay(t *testing.T) {
	cfg := DefaultConfig()

	require.Equal(t, 9.0, Compute(Window{}, State{Health: 10}, today, cfg).Health)
	require.Equal(t, 0.0, Compute(Window{}, State{Health: 0.5}, today, cfg).Health)
	require.Equal(t, 0.0, Compute(Window{}, State{}, today, cfg).Health)

	stale := Compute(Window{HealthEntries: []activity.HealthEntry{
		{Date: daysAgo(9), SleepHours: 8, MoodScore: 8},
	}}, State{Health: 40}, today, cfg)
	require.Equal(t, 39.0, stale.Health)
}

func TestHealthDecayElapsed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DecayMode = DecayElapsed

	prior := State{Health: 50, ComputedAt: today.Add(-3*24*time.Hour - time.Hour)}
	require.Equal(t, 47.0, Compute(Window{}, prior, today, cfg).Health)

	sameDay := State{Health: 50, ComputedAt: today.Add(-2 * time.Hour)}
	require.Equal(t, 50.0, Compute(Window{}, sameDay, today, cfg).Health)

	never := State{Health: 50}
	require.Equal(t, 49.0, Compute(Window{}, never, today, cfg).Health)
}

func workout(date time.Time, volumes ...float64) activity.Workout {
	w := activity.Workout{Date: date}
	for _, v := range volumes {
		w.Exercises = append(w.Exercises, activity.ExerciseLog{VolumeLoad: v})
	}
	return w
}

func TestStrength(t *testing.T) {
	cfg := DefaultConfig()

	state := Compute(Window{Workouts: []activity.Workout{
		workout(daysAgo(2), 2000, 1000),
		workout(daysAgo(10), 3000),
		workout(daysAgo(20), 50000),
	}}, State{}, today, cfg)
	require.InDelta(t, 22.0, state.Strength, 1e-9)

	heavy := Compute(Window{Workouts: []activity.Workout{workout(daysAgo(1), 250000)}}, State{}, today, cfg)
	require.Equal(t, 100.0, heavy.Strength)

	require.Equal(t, 0.0, Compute(Window{}, State{Strength: 70}, today, cfg).Strength)
}

func TestWindowsCompareCivilDatesWestOfUTC(t *testing.T) {
	west := time.FixedZone("UTC-5", -5*60*60)
	now := time.Date(2025, time.April, 10, 12, 0, 0, 0, west)
	// Stored civil dates come back as UTC midnights.
	firstDay := time.Date(2025, time.April, 3, 0, 0, 0, 0, time.UTC)
	dayBefore := time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC)

	state := Compute(Window{
		HealthEntries: []activity.HealthEntry{{Date: firstDay, SleepHours: 7.5, MoodScore: 8}},
		Workouts:      []activity.Workout{workout(firstDay.AddDate(0, 0, -7), 2000)},
	}, State{Health: 10}, now, DefaultConfig())
	require.Equal(t, 100.0, state.Health)
	require.InDelta(t, 10.0, state.Strength, 1e-9)

	stale := Compute(Window{
		HealthEntries: []activity.HealthEntry{{Date: dayBefore, SleepHours: 7.5, MoodScore: 8}},
	}, State{Health: 10}, now, DefaultConfig())
	require.Equal(t, 9.0, stale.Health)
}

func TestWindowStartAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// DST began on 2025-03-09, inside the week before this instant.
	now := time.Date(2025, time.March, 12, 9, 0, 0, 0, loc)
	require.Equal(t, time.Date(2025, time.March, 5, 0, 0, 0, 0, loc), windowStart(now, 7*24*time.Hour))
}

func TestRounded(t *testing.T) {
	s := State{Willpower: 33.333, Health: 9.96, Strength: 22.049}.Rounded()
	require.Equal(t, 33.3, s.Willpower)
	require.Equal(t, 10.0, s.Health)
	require.Equal(t, 22.0, s.Strength)
}

type memStates struct {
	mu      sync.Mutex
	states  map[activity.OwnerID]State
	saveErr error
}

func (m *memStates) GetAbilities(_ context.Context, owner activity.OwnerID) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[owner], nil
}

func (m *memStates) SaveAbilities(_ context.Context, owner activity.OwnerID, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.states == nil {
		m.states = make(map[activity.OwnerID]State)
	}
	m.states[owner] = s
	return nil
}

func TestEngineRecompute(t *testing.T) {
	ctx := context.Background()
	mem := activity.NewMemoryStore()
	states := &memStates{states: map[activity.OwnerID]State{"alice": {Health: 10}}}

	for i := 0; i < 4; i++ {
		at := daysAgo(1)
		require.NoError(t, mem.CreateTask(ctx, &activity.Task{OwnerID: "alice", Content: "x", Completed: true, CompletedAt: &at}))
	}
	require.NoError(t, mem.CreateTask(ctx, &activity.Task{OwnerID: "bob", Content: "not mine", Completed: true, CompletedAt: &today}))
	require.NoError(t, mem.CreateWorkout(ctx, &activity.Workout{
		OwnerID: "alice",
		Date:    daysAgo(3),
		Exercises: []activity.ExerciseLog{
			{ExerciseName: "Squat", Sets: 5, Reps: "5", Weight: 100},
			{ExerciseName: "Bench", Sets: 3, Reps: "10,8,6", Weight: 50},
		},
	}))

	engine := NewEngine(mem, states, Config{})
	state, err := engine.Recompute(ctx, "alice", today)
	require.NoError(t, err)

	require.Equal(t, 20.0, state.Willpower)
	require.Equal(t, 9.0, state.Health)
	require.InDelta(t, 8+4.0, state.Strength, 1e-9)
	require.Equal(t, today, state.ComputedAt)
	require.Equal(t, state, states.states["alice"])

	again, err := engine.Recompute(ctx, "alice", today)
	require.NoError(t, err)
	require.Equal(t, 8.0, again.Health)
}

func TestEngineRecomputePersistenceFailure(t *testing.T) {
	saveErr := errors.New("disk full")
	engine := NewEngine(activity.NewMemoryStore(), &memStates{saveErr: saveErr}, DefaultConfig())

	_, err := engine.Recompute(context.Background(), "alice", today)
	require.ErrorIs(t, err, saveErr)
}

func TestEngineRecomputeRequiresOwner(t *testing.T) {
	engine := NewEngine(activity.NewMemoryStore(), &memStates{}, DefaultConfig())
	_, err := engine.Recompute(context.Background(), "", today)
	require.ErrorIs(t, err, activity.ErrEmptyOwner)
}
