package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/motivaitor/insight/internal/activity"
)

type upsertCall struct {
	owner    activity.OwnerID
	id, text string
	meta     map[string]string
}

type recordingIndexer struct {
	mu    sync.Mutex
	calls []upsertCall
	err   error
}

func (r *recordingIndexer) Upsert(_ context.Context, owner activity.OwnerID, id, text string, meta map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, upsertCall{owner, id, text, meta})
	return r.err
}

var occurred = time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)

func event(eventType string, payload string) Event {
	return Event{
		ID:         "evt-1",
		EventType:  eventType,
		OwnerID:    "alice",
		OccurredAt: occurred,
		Payload:    json.RawMessage(payload),
	}
}

func TestHandleWorkoutPersistsAndIndexes(t *testing.T) {
	ctx := context.Background()
	store := activity.NewMemoryStore()
	ix := &recordingIndexer{}
	h := NewIndexingHandler(store, ix)

	err := h.Handle(ctx, event(EventWorkoutLogged, `{
		"name": "Pull day",
		"duration_minutes": 45,
		"exercises": [{"exercise_name": "Row", "sets": 3, "reps": "10", "weight": 50}]
	}`))
	require.NoError(t, err)

	workouts, err := store.WorkoutsSince(ctx, "alice", occurred.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Len(t, workouts, 1)
	require.Equal(t, 1500.0, workouts[0].TotalVolume())

	require.Len(t, ix.calls, 1)
	call := ix.calls[0]
	require.Equal(t, activity.OwnerID("alice"), call.owner)
	require.Equal(t, "workout_1", call.id)
	require.Equal(t, "Workout 'Pull day' (duration: 45min, volume: 1500kg). Exercises: Row: 3x10 @ 50kg.", call.text)
	require.Equal(t, map[string]string{"type": "workout", "date": "2025-04-01"}, call.meta)
}

func TestHandleTaskLifecycle(t *testing.T) {
	ctx := context.Background()
	store := activity.NewMemoryStore()
	ix := &recordingIndexer{}
	h := NewIndexingHandler(store, ix)

	require.NoError(t, h.Handle(ctx, event(EventTaskCreated, `{"content": "Renew gym pass", "points": 2}`)))
	require.NoError(t, h.Handle(ctx, event(EventTaskCompleted, `{"task_id": 1, "content": "Renew gym pass"}`)))

	done, err := store.CompletedTasksSince(ctx, "alice", occurred.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, done, 1)
	require.Equal(t, occurred, *done[0].CompletedAt, "completion time defaults to the event time")

	require.Len(t, ix.calls, 2)
	require.Equal(t, "task_1", ix.calls[1].id)
	require.Equal(t, "2025-04-01", ix.calls[1].meta["date"])
}

func TestHandleCompletingUnknownTaskFails(t *testing.T) {
	h := NewIndexingHandler(activity.NewMemoryStore(), &recordingIndexer{})
	err := h.Handle(context.Background(), event(EventTaskCompleted, `{"task_id": 99}`))
	require.ErrorIs(t, err, activity.ErrNotFound)
}

func TestHandleHealthAndPomodoroDefaultDates(t *testing.T) {
	ctx := context.Background()
	store := activity.NewMemoryStore()
	ix := &recordingIndexer{}
	h := NewIndexingHandler(store, ix)

	require.NoError(t, h.Handle(ctx, event(EventHealthLogged, `{"sleep_hours": 8, "mood_score": 6}`)))
	require.NoError(t, h.Handle(ctx, event(EventPomodoroLogged, `{"duration_minutes": 25}`)))

	entries, err := store.HealthEntriesSince(ctx, "alice", occurred)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, activity.Midnight(occurred), entries[0].Date)

	poms, err := store.PomodorosSince(ctx, "alice", occurred)
	require.NoError(t, err)
	require.Len(t, poms, 1)

	require.Len(t, ix.calls, 2)
	require.Equal(t, "health", ix.calls[0].meta["type"])
	require.Equal(t, "pomodoro", ix.calls[1].meta["type"])
}

func TestHandleIndexFailureDoesNotFailPersistence(t *testing.T) {
	store := activity.NewMemoryStore()
	h := NewIndexingHandler(store, &recordingIndexer{err: errors.New("embedding service down")})

	require.NoError(t, h.Handle(context.Background(), event(EventHealthLogged, `{"sleep_hours": 7, "mood_score": 7}`)))

	entries, err := store.HealthEntriesSince(context.Background(), "alice", occurred)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestHandleNoteUsesEventID(t *testing.T) {
	ix := &recordingIndexer{}
	h := NewIndexingHandler(activity.NewMemoryStore(), ix)

	require.NoError(t, h.Handle(context.Background(), event(EventNoteAdded, `{"text": "Knee hurts on stairs"}`)))
	require.Len(t, ix.calls, 1)
	require.Equal(t, "note_evt-1", ix.calls[0].id)
	require.Equal(t, "note", ix.calls[0].meta["type"])
}

func TestHandleProjectCreated(t *testing.T) {
	ctx := context.Background()
	store := activity.NewMemoryStore()
	ix := &recordingIndexer{}
	h := NewIndexingHandler(store, ix)

	require.NoError(t, h.Handle(ctx, event(EventProjectCreated, `{"name": "Thesis", "owner_id": "mallory"}`)))

	projects, err := store.ListProjects(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, "Thesis", projects[0].Name)
	require.Equal(t, occurred, projects[0].CreatedAt)
	require.Empty(t, ix.calls)

	others, err := store.ListProjects(ctx, "mallory")
	require.NoError(t, err)
	require.Empty(t, others, "payload owner never overrides the event owner")
}

func TestHandleUnsupportedAndMalformed(t *testing.T) {
	h := NewIndexingHandler(activity.NewMemoryStore(), &recordingIndexer{})

	require.ErrorIs(t, h.Handle(context.Background(), event("calendar.synced", `{}`)), ErrUnsupportedEvent)
	require.ErrorIs(t, h.Handle(context.Background(), event(EventTaskCreated, ``)), ErrMalformedPayload)
	require.ErrorIs(t, h.Handle(context.Background(), event(EventTaskCreated, `[1,2]`)), ErrMalformedPayload)
}
